// Package config loads YAML robot descriptions and joint-limit override
// files, and adapts them to the collaborator interfaces the snsik facade
// consumes. It is read at construction time only; solve calls never touch
// it.
package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/tingelst/sns-ik/pkg/chain"
	"github.com/tingelst/sns-ik/pkg/snsik"
)

// JointLimits are a joint's hard limits.
type JointLimits struct {
	Lower    float64 `yaml:"lower"`
	Upper    float64 `yaml:"upper"`
	Velocity float64 `yaml:"velocity"`
}

// SafetyLimits are optional soft limits intersected with the hard ones.
type SafetyLimits struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Joint describes one movable joint of the robot.
type Joint struct {
	Name   string        `yaml:"name"`
	Type   string        `yaml:"type"` // revolute, continuous or prismatic
	Axis   [3]float64    `yaml:"axis"`
	Origin [3]float64    `yaml:"origin"`
	Limits *JointLimits  `yaml:"limits,omitempty"`
	Safety *SafetyLimits `yaml:"safety,omitempty"`
}

// Robot is the YAML robot description.
type Robot struct {
	Name   string     `yaml:"name"`
	Tip    [3]float64 `yaml:"tip"`
	Joints []Joint    `yaml:"joints"`
}

// Load reads a robot description from path.
func Load(path string) (*Robot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read robot description: %w", err)
	}
	var r Robot
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("config: parse robot description: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Save writes the description to path.
func (r *Robot) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("config: encode robot description: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write robot description: %w", err)
	}
	return nil
}

func (r *Robot) validate() error {
	if len(r.Joints) == 0 {
		return fmt.Errorf("config: robot %q declares no joints", r.Name)
	}
	for i, j := range r.Joints {
		if j.Name == "" {
			return fmt.Errorf("config: joint %d has no name", i)
		}
		switch j.Type {
		case "revolute", "prismatic":
			if j.Limits == nil {
				return fmt.Errorf("config: joint %s: %s joints need limits", j.Name, j.Type)
			}
		case "continuous":
		default:
			return fmt.Errorf("config: joint %s has unknown type %q", j.Name, j.Type)
		}
	}
	return nil
}

// Chain builds the serial kinematic chain the description declares.
func (r *Robot) Chain() (*chain.Serial, error) {
	segs := make([]chain.Segment, len(r.Joints))
	for i, j := range r.Joints {
		class := snsik.MotionRotational
		if j.Type == "prismatic" {
			class = snsik.MotionTranslational
		}
		segs[i] = chain.Segment{
			Name:   j.Name,
			Class:  class,
			Axis:   r3.Vec{X: j.Axis[0], Y: j.Axis[1], Z: j.Axis[2]},
			Origin: r3.Vec{X: j.Origin[0], Y: j.Origin[1], Z: j.Origin[2]},
		}
	}
	return chain.NewSerial(segs, r3.Vec{X: r.Tip[0], Y: r.Tip[1], Z: r.Tip[2]})
}

// Description adapts the robot to the facade's description collaborator.
func (r *Robot) Description() snsik.Description {
	byName := make(map[string]Joint, len(r.Joints))
	for _, j := range r.Joints {
		byName[j.Name] = j
	}
	return description{joints: byName}
}

type description struct {
	joints map[string]Joint
}

func (d description) Joint(name string) (snsik.JointInfo, bool) {
	j, ok := d.joints[name]
	if !ok {
		return snsik.JointInfo{}, false
	}
	info := snsik.JointInfo{Class: snsik.MotionRotational}
	switch j.Type {
	case "prismatic":
		info.Class = snsik.MotionTranslational
	case "continuous":
		info.Continuous = true
	}
	if j.Limits != nil {
		info.Lower = j.Limits.Lower
		info.Upper = j.Limits.Upper
		info.Velocity = j.Limits.Velocity
	}
	if j.Safety != nil {
		info.HasSafety = true
		info.SoftLower = j.Safety.Lower
		info.SoftUpper = j.Safety.Upper
	}
	return info, true
}

// DefaultRobot returns a six-revolute sample arm, used by the CLI when no
// description file is given and by tests.
func DefaultRobot() *Robot {
	limits := &JointLimits{Lower: -3.14, Upper: 3.14, Velocity: 2.0}
	joint := func(name string, axis, origin [3]float64) Joint {
		l := *limits
		return Joint{Name: name, Type: "revolute", Axis: axis, Origin: origin, Limits: &l}
	}
	return &Robot{
		Name: "sample-6r",
		Tip:  [3]float64{0.1, 0, 0},
		Joints: []Joint{
			joint("j1", [3]float64{0, 0, 1}, [3]float64{0, 0, 0.2}),
			joint("j2", [3]float64{0, 1, 0}, [3]float64{0, 0, 0.2}),
			joint("j3", [3]float64{0, 1, 0}, [3]float64{0.3, 0, 0}),
			joint("j4", [3]float64{1, 0, 0}, [3]float64{0.3, 0, 0}),
			joint("j5", [3]float64{0, 1, 0}, [3]float64{0.2, 0, 0}),
			joint("j6", [3]float64{1, 0, 0}, [3]float64{0.1, 0, 0}),
		},
	}
}
