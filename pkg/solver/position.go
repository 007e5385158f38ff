package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PoseChain is the kinematic capability the position solver needs: joint
// count, the chain Jacobian at a configuration, and the forward pose at a
// configuration.
type PoseChain interface {
	DoF() int
	Jacobian(q []float64) (*mat.Dense, error)
	Forward(q []float64) (Pose, error)
}

// BiasTask is a preferred-posture objective pursued in the nullspace of the
// Cartesian goal: a selection Jacobian picking the biased joints, their
// column indices, the preferred joint values, and the shared proportional
// gain.
type BiasTask struct {
	Jacobian *mat.Dense
	Indices  []int
	Targets  []float64
	Gain     float64
}

const (
	defaultPositionIterations = 200
	// defaultEps is the convergence tolerance applied to any twist
	// component whose caller-supplied tolerance is zero.
	defaultEps = 1e-5
)

// PositionIK resolves a target pose into joint positions by repeatedly
// driving a velocity solver with the pose-error twist and integrating over
// the control period. Joint position limits are enforced here, by clamping
// each integration step; the wrapped velocity solver runs with its own
// position-limit handling disabled.
type PositionIK struct {
	chain   PoseChain
	vel     VelocitySolver
	lim     Limits
	eps     float64
	dt      float64
	maxIter int
}

// NewPositionIK wraps vel, which must already be configured for the same
// chain, into a position-level solver. eps <= 0 selects the default
// tolerance.
func NewPositionIK(chain PoseChain, vel VelocitySolver, lim Limits, eps, loopPeriod float64) (*PositionIK, error) {
	if chain == nil || vel == nil {
		return nil, fmt.Errorf("solver: position solver needs a chain and a velocity solver")
	}
	if err := lim.validate(chain.DoF()); err != nil {
		return nil, err
	}
	if eps <= 0 {
		eps = defaultEps
	}
	if loopPeriod <= 0 {
		return nil, fmt.Errorf("solver: loop period must be positive, got %g", loopPeriod)
	}
	return &PositionIK{
		chain:   chain,
		vel:     vel,
		lim:     lim,
		eps:     eps,
		dt:      loopPeriod,
		maxIter: defaultPositionIterations,
	}, nil
}

// Solve returns joint positions reaching target from the seed q0. tol gives
// a per-axis Cartesian tolerance; zero components fall back to the solver's
// eps.
func (p *PositionIK) Solve(q0 []float64, target Pose, tol Twist) ([]float64, error) {
	return p.solve(q0, target, nil, tol)
}

// SolveWithBias is Solve with a preferred-posture task stacked below the
// Cartesian goal.
func (p *PositionIK) SolveWithBias(q0 []float64, target Pose, bias *BiasTask, tol Twist) ([]float64, error) {
	if bias != nil {
		if err := p.checkBias(bias); err != nil {
			return nil, err
		}
	}
	return p.solve(q0, target, bias, tol)
}

func (p *PositionIK) checkBias(bias *BiasTask) error {
	rows, cols := bias.Jacobian.Dims()
	if cols != p.chain.DoF() {
		return fmt.Errorf("solver: bias jacobian has %d columns, chain has %d joints", cols, p.chain.DoF())
	}
	if len(bias.Indices) != rows || len(bias.Targets) != rows {
		return fmt.Errorf("solver: bias jacobian has %d rows but %d indices and %d targets",
			rows, len(bias.Indices), len(bias.Targets))
	}
	for _, idx := range bias.Indices {
		if idx < 0 || idx >= p.chain.DoF() {
			return fmt.Errorf("solver: bias joint index %d out of range", idx)
		}
	}
	return nil
}

func (p *PositionIK) solve(q0 []float64, target Pose, bias *BiasTask, tol Twist) ([]float64, error) {
	n := p.chain.DoF()
	if len(q0) != n {
		return nil, fmt.Errorf("solver: %d seed positions for %d joints", len(q0), n)
	}
	q := append([]float64(nil), q0...)

	for iter := 0; iter < p.maxIter; iter++ {
		pose, err := p.chain.Forward(q)
		if err != nil {
			return nil, fmt.Errorf("solver: forward kinematics: %w", err)
		}
		errTw := ErrorTwist(pose, target)
		if p.converged(errTw, tol) {
			return q, nil
		}

		jac, err := p.chain.Jacobian(q)
		if err != nil {
			return nil, fmt.Errorf("solver: jacobian: %w", err)
		}
		// Close the pose error over one control period.
		stack := Stack{{Jacobian: jac, Desired: errTw.Scale(1 / p.dt).Vec()}}
		if bias != nil {
			desired := mat.NewVecDense(len(bias.Indices), nil)
			for i, idx := range bias.Indices {
				desired.SetVec(i, bias.Gain*(bias.Targets[i]-q[idx])/p.dt)
			}
			stack = append(stack, Task{Jacobian: bias.Jacobian, Desired: desired})
		}

		qdot, err := p.vel.Solve(stack, q)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			q[i] += qdot[i] * p.dt
			if !math.IsInf(p.lim.Lower[i], -1) && q[i] < p.lim.Lower[i] {
				q[i] = p.lim.Lower[i]
			}
			if !math.IsInf(p.lim.Upper[i], 1) && q[i] > p.lim.Upper[i] {
				q[i] = p.lim.Upper[i]
			}
		}
	}
	return nil, fmt.Errorf("solver: no converged solution within %d iterations", p.maxIter)
}

func (p *PositionIK) converged(errTw, tol Twist) bool {
	for i, e := range errTw {
		t := tol[i]
		if t <= 0 {
			t = p.eps
		}
		if math.Abs(e) > t {
			return false
		}
	}
	return true
}
