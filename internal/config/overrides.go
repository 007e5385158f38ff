package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OverrideEntry narrows one joint's bounds. Absent fields leave the derived
// value alone.
type OverrideEntry struct {
	MinPosition     *float64 `yaml:"min_position,omitempty"`
	MaxPosition     *float64 `yaml:"max_position,omitempty"`
	MaxVelocity     *float64 `yaml:"max_velocity,omitempty"`
	MaxAcceleration *float64 `yaml:"max_acceleration,omitempty"`
}

// Overrides is the YAML joint-limit override file: per-joint entries keyed
// by joint name, mirroring a planning-pipeline joint_limits section. It
// implements the facade's override collaborator.
type Overrides struct {
	JointLimits map[string]OverrideEntry `yaml:"joint_limits"`
}

// LoadOverrides reads an override file from path.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read overrides: %w", err)
	}
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("config: parse overrides: %w", err)
	}
	return &o, nil
}

func (o *Overrides) lookup(joint string, field func(OverrideEntry) *float64) (float64, bool) {
	if o == nil {
		return 0, false
	}
	entry, ok := o.JointLimits[joint]
	if !ok {
		return 0, false
	}
	v := field(entry)
	if v == nil {
		return 0, false
	}
	return *v, true
}

func (o *Overrides) MinPosition(joint string) (float64, bool) {
	return o.lookup(joint, func(e OverrideEntry) *float64 { return e.MinPosition })
}

func (o *Overrides) MaxPosition(joint string) (float64, bool) {
	return o.lookup(joint, func(e OverrideEntry) *float64 { return e.MaxPosition })
}

func (o *Overrides) MaxVelocity(joint string) (float64, bool) {
	return o.lookup(joint, func(e OverrideEntry) *float64 { return e.MaxVelocity })
}

func (o *Overrides) MaxAcceleration(joint string) (float64, bool) {
	return o.lookup(joint, func(e OverrideEntry) *float64 { return e.MaxAcceleration })
}
