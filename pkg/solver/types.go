// Package solver implements the SNS (Saturation in the Null Space) family of
// velocity-level inverse kinematics solvers for redundant kinematic chains,
// plus an iterative position-level wrapper built on top of them.
//
// A velocity solver consumes a priority-ordered task stack and the current
// joint configuration and produces joint velocities that respect the per-joint
// capability bounds it was configured with. Five interchangeable variants
// exist behind the VelocitySolver interface; New selects one by Type.
//
// Solver instances are NOT safe for concurrent use. Every call runs to
// completion on the caller's goroutine; callers needing concurrency should
// use one instance per goroutine or serialize access externally.
package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Twist is a 6-dimensional Cartesian velocity command: linear x, y, z
// followed by angular x, y, z.
type Twist [6]float64

// Vec returns the twist as a fresh 6-element column vector.
func (t Twist) Vec() *mat.VecDense {
	v := make([]float64, 6)
	copy(v, t[:])
	return mat.NewVecDense(6, v)
}

// Scale returns the twist multiplied component-wise by s.
func (t Twist) Scale(s float64) Twist {
	var out Twist
	for i, v := range t {
		out[i] = v * s
	}
	return out
}

// Pose is a Cartesian frame: a position and a unit-quaternion orientation.
type Pose struct {
	Position    r3.Vec
	Orientation quat.Number
}

// IdentityPose returns the origin pose with identity orientation.
func IdentityPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// ErrorTwist returns the displacement twist that carries pose p onto target:
// linear part is the position difference, angular part is the axis-angle
// representation of the rotation from p's orientation to target's.
func ErrorTwist(p, target Pose) Twist {
	var tw Twist
	d := r3.Sub(target.Position, p.Position)
	tw[0], tw[1], tw[2] = d.X, d.Y, d.Z

	// q_err rotates p's frame onto the target frame, expressed in the world.
	qe := quat.Mul(target.Orientation, quat.Conj(p.Orientation))
	if qe.Real < 0 { // shortest rotation
		qe = quat.Scale(-1, qe)
	}
	s := math.Sqrt(qe.Imag*qe.Imag + qe.Jmag*qe.Jmag + qe.Kmag*qe.Kmag)
	if s < 1e-12 {
		return tw
	}
	angle := 2 * math.Atan2(s, qe.Real)
	tw[3] = qe.Imag / s * angle
	tw[4] = qe.Jmag / s * angle
	tw[5] = qe.Kmag / s * angle
	return tw
}

// Task pairs a task Jacobian (rows = task dimension, columns = joint count)
// with the desired task-space velocity of matching row count.
type Task struct {
	Jacobian *mat.Dense
	Desired  *mat.VecDense
}

// Stack is an ordered task list consumed by strictly decreasing priority:
// index 0 is the primary task, later entries are best-effort secondary
// objectives satisfied only in the nullspace of the tasks above them.
type Stack []Task

func (s Stack) validate(joints int) error {
	if len(s) == 0 {
		return fmt.Errorf("solver: empty task stack")
	}
	for i, t := range s {
		if t.Jacobian == nil || t.Desired == nil {
			return fmt.Errorf("solver: task %d is missing a jacobian or desired velocity", i)
		}
		r, c := t.Jacobian.Dims()
		if c != joints {
			return fmt.Errorf("solver: task %d jacobian has %d columns, chain has %d joints", i, c, joints)
		}
		if t.Desired.Len() != r {
			return fmt.Errorf("solver: task %d desired velocity has %d rows, jacobian has %d", i, t.Desired.Len(), r)
		}
	}
	return nil
}

// Limits holds the per-joint capability bounds a solver must respect.
// A MaxVelocity or MaxAcceleration entry of zero means unbounded.
type Limits struct {
	Lower           []float64
	Upper           []float64
	MaxVelocity     []float64
	MaxAcceleration []float64
}

// Joints returns the number of joints the limits describe.
func (l Limits) Joints() int { return len(l.Lower) }

func (l Limits) validate(joints int) error {
	for name, s := range map[string][]float64{
		"lower position":   l.Lower,
		"upper position":   l.Upper,
		"max velocity":     l.MaxVelocity,
		"max acceleration": l.MaxAcceleration,
	} {
		if len(s) != joints {
			return fmt.Errorf("solver: %d %s bounds for %d joints", len(s), name, joints)
		}
	}
	return nil
}
