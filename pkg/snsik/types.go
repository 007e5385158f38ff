// Package snsik provides an inverse kinematics facade for redundant
// kinematic chains. It derives a validated per-joint capability table from a
// robot description (or explicit bounds), selects among the SNS velocity
// solver variants at runtime, and resolves Cartesian pose or twist commands
// into joint-space commands, optionally pursuing a nullspace bias toward
// preferred joint values.
//
// A facade instance owns its chain configuration and solver handle
// exclusively and performs no internal locking: concurrent calls on one
// instance (including solver swaps) must be serialized by the caller.
// Distinct instances share nothing.
package snsik

import (
	"gonum.org/v1/gonum/mat"

	"github.com/tingelst/sns-ik/pkg/solver"
)

// MotionClass is the kind of motion a chain joint produces.
type MotionClass int

const (
	// MotionRotational joints rotate about their axis.
	MotionRotational MotionClass = iota
	// MotionTranslational joints slide along their axis.
	MotionTranslational
)

// JointType classifies a configured joint. Rotational joints whose resolved
// bounds sit at the continuous sentinel classify as Continuous, other
// rotational joints as Revolute, translational joints as Prismatic.
type JointType int

const (
	Revolute JointType = iota
	Continuous
	Prismatic
)

func (t JointType) String() string {
	switch t {
	case Revolute:
		return "revolute"
	case Continuous:
		return "continuous"
	case Prismatic:
		return "prismatic"
	default:
		return "unknown"
	}
}

// ChainJoint is one movable joint as enumerated by the chain collaborator.
type ChainJoint struct {
	Name  string
	Class MotionClass
}

// Chain is the kinematic chain collaborator: movable-joint enumeration, the
// chain Jacobian at a configuration, and the forward pose at a configuration
// (used only by position solving).
type Chain interface {
	Joints() []ChainJoint
	Jacobian(q []float64) (*mat.Dense, error)
	Forward(q []float64) (solver.Pose, error)
}

// JointInfo is what a robot description declares about one joint.
type JointInfo struct {
	Class      MotionClass
	Continuous bool // rotational joint with no position limits
	Lower      float64
	Upper      float64
	Velocity   float64 // hard velocity limit, 0 when undeclared
	HasSafety  bool
	SoftLower  float64
	SoftUpper  float64
}

// Description is the robot description collaborator, consulted only during
// construction. The second return is false when the joint is not described.
type Description interface {
	Joint(name string) (JointInfo, bool)
}

// Overrides is the configuration override collaborator, consulted only
// during construction: optional per-joint bound narrowing keyed by joint
// name. Each method's second return is false when no override is declared.
type Overrides interface {
	MinPosition(joint string) (float64, bool)
	MaxPosition(joint string) (float64, bool)
	MaxVelocity(joint string) (float64, bool)
	MaxAcceleration(joint string) (float64, bool)
}

// JointSpec is one joint's resolved capability entry.
type JointSpec struct {
	Name            string
	Type            JointType
	Lower           float64
	Upper           float64
	MaxVelocity     float64
	MaxAcceleration float64
}

// ChainConfig is the validated per-joint bound/type table, ordered exactly
// as the chain's movable joints. It is frozen at construction.
type ChainConfig struct {
	joints []JointSpec
	index  map[string]int
}

// Len returns the number of configured joints.
func (c *ChainConfig) Len() int { return len(c.joints) }

// Joint returns the capability entry at position i in chain order.
func (c *ChainConfig) Joint(i int) JointSpec { return c.joints[i] }

// Index resolves a joint name to its chain position.
func (c *ChainConfig) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Names returns the joint names in chain order.
func (c *ChainConfig) Names() []string {
	names := make([]string, len(c.joints))
	for i, j := range c.joints {
		names[i] = j.Name
	}
	return names
}

// Limits returns the capability bounds in the solver package's shape.
func (c *ChainConfig) Limits() solver.Limits {
	n := len(c.joints)
	lim := solver.Limits{
		Lower:           make([]float64, n),
		Upper:           make([]float64, n),
		MaxVelocity:     make([]float64, n),
		MaxAcceleration: make([]float64, n),
	}
	for i, j := range c.joints {
		lim.Lower[i] = j.Lower
		lim.Upper[i] = j.Upper
		lim.MaxVelocity[i] = j.MaxVelocity
		lim.MaxAcceleration[i] = j.MaxAcceleration
	}
	return lim
}

// NullspaceBias asks the solver to drive the named joints toward the paired
// positions using whatever capacity the primary task leaves unused. Names
// and Positions must pair up one-to-one and every name must exist in the
// chain.
type NullspaceBias struct {
	Names     []string
	Positions []float64
}
