// Package chain provides a simple serial kinematic chain model: an ordered
// list of revolute or prismatic joints, each with a fixed offset from its
// parent and a motion axis, plus a tip offset. It implements the chain
// collaborator interface consumed by the snsik facade, computing forward
// kinematics by quaternion accumulation and the geometric Jacobian.
package chain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tingelst/sns-ik/pkg/snsik"
	"github.com/tingelst/sns-ik/pkg/solver"
)

// Segment is one joint of a serial chain. Origin is the fixed translation
// from the parent joint frame, expressed in the parent frame; Axis is the
// unit motion axis in the segment's own frame.
type Segment struct {
	Name   string
	Class  snsik.MotionClass
	Origin r3.Vec
	Axis   r3.Vec
}

// Serial is a fixed serial chain. It is immutable after construction and
// safe for concurrent reads.
type Serial struct {
	segments []Segment
	tip      r3.Vec
}

// NewSerial validates the segments (nonempty, unique names, unit axes) and
// returns the chain. tip is the end-effector offset from the last joint
// frame.
func NewSerial(segments []Segment, tip r3.Vec) (*Serial, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("chain: no segments")
	}
	seen := make(map[string]struct{}, len(segments))
	for i, seg := range segments {
		if seg.Name == "" {
			return nil, fmt.Errorf("chain: segment %d has no name", i)
		}
		if _, dup := seen[seg.Name]; dup {
			return nil, fmt.Errorf("chain: duplicate segment name %s", seg.Name)
		}
		seen[seg.Name] = struct{}{}
		if n := r3.Norm(seg.Axis); math.Abs(n-1) > 1e-9 {
			return nil, fmt.Errorf("chain: segment %s axis has norm %g, want 1", seg.Name, n)
		}
	}
	segs := append([]Segment(nil), segments...)
	return &Serial{segments: segs, tip: tip}, nil
}

// DoF returns the number of movable joints.
func (s *Serial) DoF() int { return len(s.segments) }

// Joints enumerates the movable joints in chain order.
func (s *Serial) Joints() []snsik.ChainJoint {
	out := make([]snsik.ChainJoint, len(s.segments))
	for i, seg := range s.segments {
		out[i] = snsik.ChainJoint{Name: seg.Name, Class: seg.Class}
	}
	return out
}

// frames walks the chain at configuration q, yielding each joint's world
// origin and world motion axis, plus the tip pose.
func (s *Serial) frames(q []float64) (origins, axes []r3.Vec, tip solver.Pose, err error) {
	if len(q) != len(s.segments) {
		return nil, nil, tip, fmt.Errorf("chain: %d joint positions for %d joints", len(q), len(s.segments))
	}
	origins = make([]r3.Vec, len(s.segments))
	axes = make([]r3.Vec, len(s.segments))

	p := r3.Vec{}
	r := quat.Number{Real: 1}
	for i, seg := range s.segments {
		p = r3.Add(p, rotate(r, seg.Origin))
		axis := rotate(r, seg.Axis)
		origins[i] = p
		axes[i] = axis
		if seg.Class == snsik.MotionTranslational {
			p = r3.Add(p, r3.Scale(q[i], axis))
		} else {
			r = quat.Mul(r, axisAngle(seg.Axis, q[i]))
		}
	}
	p = r3.Add(p, rotate(r, s.tip))
	return origins, axes, solver.Pose{Position: p, Orientation: r}, nil
}

// Forward returns the tip pose at configuration q.
func (s *Serial) Forward(q []float64) (solver.Pose, error) {
	_, _, tip, err := s.frames(q)
	return tip, err
}

// Jacobian returns the 6-by-DoF geometric Jacobian at configuration q, rows
// ordered linear x, y, z then angular x, y, z.
func (s *Serial) Jacobian(q []float64) (*mat.Dense, error) {
	origins, axes, tip, err := s.frames(q)
	if err != nil {
		return nil, err
	}
	jac := mat.NewDense(6, len(s.segments), nil)
	for i, seg := range s.segments {
		var lin, ang r3.Vec
		if seg.Class == snsik.MotionTranslational {
			lin = axes[i]
		} else {
			lin = r3.Cross(axes[i], r3.Sub(tip.Position, origins[i]))
			ang = axes[i]
		}
		jac.Set(0, i, lin.X)
		jac.Set(1, i, lin.Y)
		jac.Set(2, i, lin.Z)
		jac.Set(3, i, ang.X)
		jac.Set(4, i, ang.Y)
		jac.Set(5, i, ang.Z)
	}
	return jac, nil
}

// rotate applies the unit quaternion r to v.
func rotate(r quat.Number, v r3.Vec) r3.Vec {
	p := quat.Mul(quat.Mul(r, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(r))
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// axisAngle returns the unit quaternion rotating by angle about axis.
func axisAngle(axis r3.Vec, angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)
	return quat.Number{Real: c, Imag: s * axis.X, Jmag: s * axis.Y, Kmag: s * axis.Z}
}
