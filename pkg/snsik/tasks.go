package snsik

import (
	"gonum.org/v1/gonum/mat"

	"github.com/tingelst/sns-ik/pkg/solver"
)

// nullspaceBiasJacobian maps a bias request onto the chain: row i of the
// returned selection Jacobian has a single 1 in the column of bias joint i,
// and the returned indices give those columns in request order. An unknown
// name or a name/value count mismatch yields a LookupError and no Jacobian.
func nullspaceBiasJacobian(cfg *ChainConfig, bias *NullspaceBias) (*mat.Dense, []int, error) {
	if len(bias.Names) != len(bias.Positions) {
		return nil, nil, &LookupError{Reason: "joint name and position counts differ"}
	}
	jac := mat.NewDense(len(bias.Names), cfg.Len(), nil)
	indices := make([]int, len(bias.Names))
	for i, name := range bias.Names {
		idx, ok := cfg.Index(name)
		if !ok {
			return nil, nil, &LookupError{Joint: name, Reason: "not part of the kinematic chain"}
		}
		jac.Set(i, idx, 1)
		indices[i] = idx
	}
	return jac, indices, nil
}

// empty reports whether the request asks for no bias at all. A nil request
// and one naming no joints both mean the caller wants a plain solve.
func (b *NullspaceBias) empty() bool {
	return b == nil || (len(b.Names) == 0 && len(b.Positions) == 0)
}

// buildStack assembles the priority-ordered task stack for a velocity solve:
// the Cartesian task (chain Jacobian, desired twist) always at index 0, and
// the nullspace bias task at index 1 when a bias is requested. The bias
// desired velocity is the proportional law gain*(target-q)/loopPeriod per
// biased joint.
func (ik *IK) buildStack(jac *mat.Dense, twist solver.Twist, q []float64, bias *NullspaceBias) (solver.Stack, error) {
	stack := solver.Stack{{Jacobian: jac, Desired: twist.Vec()}}
	if bias.empty() {
		return stack, nil
	}
	biasJac, indices, err := nullspaceBiasJacobian(ik.cfg, bias)
	if err != nil {
		return nil, err
	}
	desired := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		desired.SetVec(i, ik.nullspaceGain*(bias.Positions[i]-q[idx])/ik.loopPeriod)
	}
	return append(stack, solver.Task{Jacobian: biasJac, Desired: desired}), nil
}
