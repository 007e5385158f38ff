package snsik

import (
	"fmt"
	"math"
)

// Continuous joints carry sentinel infinite position bounds. The sentinel is
// defined here once, as true IEEE infinity, independent of any narrower
// floating-point width: a rotational joint classifies as Continuous exactly
// when both resolved bounds are infinite.
var (
	continuousLower = math.Inf(-1)
	continuousUpper = math.Inf(1)
)

// NewChainConfig derives the per-joint capability table for chain from a
// robot description plus optional overrides (ov may be nil). For each
// movable joint: continuous joints get sentinel infinite position bounds;
// otherwise the position bound is the intersection of the hard limits and
// any declared soft safety limits, the velocity bound is the hard velocity
// limit, and acceleration defaults to zero. Overrides may narrow position
// bounds (min wins max, max wins min), tighten or supply the velocity bound,
// and set the acceleration bound. A joint absent from the description must
// be fully resolvable from overrides or construction fails.
func NewChainConfig(chain Chain, desc Description, ov Overrides) (*ChainConfig, error) {
	if desc == nil {
		return nil, &ConfigError{Reason: "no robot description"}
	}
	joints := chain.Joints()
	if len(joints) == 0 {
		return nil, &ConfigError{Reason: "chain contains zero movable joints, there is no IK to solve"}
	}

	specs := make([]JointSpec, len(joints))
	for i, cj := range joints {
		var lower, upper, velocity, acceleration float64
		info, described := desc.Joint(cj.Name)
		haveBounds := described
		if described {
			if info.Continuous {
				lower, upper = continuousLower, continuousUpper
			} else {
				lower, upper = info.Lower, info.Upper
				if info.HasSafety {
					lower = math.Max(lower, info.SoftLower)
					upper = math.Min(upper, info.SoftUpper)
				}
				velocity = math.Abs(info.Velocity)
			}
		}

		if ov != nil {
			if v, ok := ov.MaxPosition(cj.Name); ok {
				if haveBounds {
					upper = math.Min(upper, v)
				} else {
					upper = v
				}
			}
			if v, ok := ov.MinPosition(cj.Name); ok {
				if haveBounds {
					lower = math.Max(lower, v)
				} else {
					lower = v
				}
			}
			if !haveBounds {
				_, hasMin := ov.MinPosition(cj.Name)
				_, hasMax := ov.MaxPosition(cj.Name)
				haveBounds = hasMin && hasMax
			}
			if v, ok := ov.MaxVelocity(cj.Name); ok {
				if velocity > 0 {
					velocity = math.Min(velocity, math.Abs(v))
				} else {
					velocity = math.Abs(v)
				}
			}
			if v, ok := ov.MaxAcceleration(cj.Name); ok {
				acceleration = math.Abs(v)
			}
		}

		if !haveBounds {
			return nil, &ConfigError{Reason: fmt.Sprintf(
				"joint %s: limits declared neither in the robot description nor in overrides", cj.Name)}
		}
		specs[i] = JointSpec{
			Name:            cj.Name,
			Type:            classifyJoint(cj.Class, lower, upper),
			Lower:           lower,
			Upper:           upper,
			MaxVelocity:     velocity,
			MaxAcceleration: acceleration,
		}
	}
	return finishChainConfig(specs)
}

// ChainConfigFromBounds builds the capability table from explicit bound
// arrays with no derivation. Every array must have one entry per movable
// joint, in chain order. Continuous joints are expressed with the sentinel
// infinite bounds.
func ChainConfigFromBounds(chain Chain, names []string, lower, upper, maxVelocity, maxAcceleration []float64) (*ChainConfig, error) {
	joints := chain.Joints()
	n := len(joints)
	if n == 0 {
		return nil, &ConfigError{Reason: "chain contains zero movable joints, there is no IK to solve"}
	}
	for what, got := range map[string]int{
		"joint names":                len(names),
		"lower position bounds":      len(lower),
		"upper position bounds":      len(upper),
		"max velocity bounds":        len(maxVelocity),
		"max acceleration bounds":    len(maxAcceleration),
	} {
		if got != n {
			return nil, &ConfigError{Reason: fmt.Sprintf("%d %s for a chain with %d movable joints", got, what, n)}
		}
	}

	specs := make([]JointSpec, n)
	for i, cj := range joints {
		specs[i] = JointSpec{
			Name:            names[i],
			Type:            classifyJoint(cj.Class, lower[i], upper[i]),
			Lower:           lower[i],
			Upper:           upper[i],
			MaxVelocity:     maxVelocity[i],
			MaxAcceleration: maxAcceleration[i],
		}
	}
	return finishChainConfig(specs)
}

func classifyJoint(class MotionClass, lower, upper float64) JointType {
	if class == MotionTranslational {
		return Prismatic
	}
	if math.IsInf(lower, -1) && math.IsInf(upper, 1) {
		return Continuous
	}
	return Revolute
}

func finishChainConfig(specs []JointSpec) (*ChainConfig, error) {
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		if s.Name == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("joint %d has no name", i)}
		}
		if _, dup := index[s.Name]; dup {
			return nil, &ConfigError{Reason: "duplicate joint name " + s.Name}
		}
		index[s.Name] = i
		if s.Type == Continuous {
			continue
		}
		if math.IsInf(s.Lower, 0) || math.IsInf(s.Upper, 0) || math.IsNaN(s.Lower) || math.IsNaN(s.Upper) {
			return nil, &ConfigError{Reason: fmt.Sprintf("joint %s: non-continuous joint without finite position bounds", s.Name)}
		}
		if s.Lower >= s.Upper {
			return nil, &ConfigError{Reason: fmt.Sprintf(
				"joint %s: lower bound %g is not below upper bound %g", s.Name, s.Lower, s.Upper)}
		}
	}
	return &ChainConfig{joints: specs, index: index}, nil
}
