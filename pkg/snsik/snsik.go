package snsik

import (
	"go.uber.org/zap"

	"github.com/tingelst/sns-ik/pkg/solver"
)

// SolverFactory constructs a velocity solver for a tag. It exists as a seam
// for tests; production code uses the solver package's factory.
type SolverFactory func(t solver.Type, joints int, loopPeriod float64) (solver.VelocitySolver, error)

// solverHandle owns exactly one velocity solver and the position wrapper
// built around it, tagged with the selected variant. Handles are replaced
// wholesale on a solver swap, never mutated, so no caller can observe a
// half-updated pair.
type solverHandle struct {
	typ      solver.Type
	velocity solver.VelocitySolver
	position *solver.PositionIK
}

// IK is the inverse kinematics facade. Construct it with New or
// NewFromBounds; the zero value is unready and every solve on it returns
// ErrNotReady.
//
// An IK instance must not be used concurrently: a solver swap replaces the
// handle a solve reads.
type IK struct {
	chain         Chain
	cfg           *ChainConfig
	loopPeriod    float64
	eps           float64
	nullspaceGain float64
	initialType   solver.Type
	factory       SolverFactory
	log           *zap.Logger

	handle *solverHandle
	ready  bool
}

// Option adjusts facade construction.
type Option func(*IK)

// WithLogger installs a structured logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(ik *IK) {
		if log != nil {
			ik.log = log
		}
	}
}

// WithSolveType selects the initial velocity solver variant. The default is
// Standard.
func WithSolveType(t solver.Type) Option {
	return func(ik *IK) { ik.initialType = t }
}

// WithNullspaceGain sets the shared proportional gain of the nullspace bias
// control law. The default is 1.
func WithNullspaceGain(gain float64) Option {
	return func(ik *IK) { ik.nullspaceGain = gain }
}

// WithTolerance sets the position solver's convergence tolerance.
func WithTolerance(eps float64) Option {
	return func(ik *IK) { ik.eps = eps }
}

// WithSolverFactory replaces the velocity solver factory.
func WithSolverFactory(f SolverFactory) Option {
	return func(ik *IK) {
		if f != nil {
			ik.factory = f
		}
	}
}

// New builds a facade for chain, deriving joint capabilities from the robot
// description and optional overrides (ov may be nil). loopPeriod is the
// caller's control period in seconds. On any construction failure the
// returned error is a *ConfigError and no usable facade exists.
func New(chain Chain, desc Description, ov Overrides, loopPeriod float64, opts ...Option) (*IK, error) {
	cfg, err := NewChainConfig(chain, desc, ov)
	if err != nil {
		return nil, err
	}
	return finishFacade(chain, cfg, loopPeriod, opts)
}

// NewFromBounds builds a facade from explicit bound arrays, one entry per
// movable joint in chain order, with no derivation.
func NewFromBounds(chain Chain, names []string, lower, upper, maxVelocity, maxAcceleration []float64, loopPeriod float64, opts ...Option) (*IK, error) {
	cfg, err := ChainConfigFromBounds(chain, names, lower, upper, maxVelocity, maxAcceleration)
	if err != nil {
		return nil, err
	}
	return finishFacade(chain, cfg, loopPeriod, opts)
}

func finishFacade(chain Chain, cfg *ChainConfig, loopPeriod float64, opts []Option) (*IK, error) {
	if loopPeriod <= 0 {
		return nil, &ConfigError{Reason: "loop period must be positive"}
	}
	ik := &IK{
		chain:         chain,
		cfg:           cfg,
		loopPeriod:    loopPeriod,
		nullspaceGain: 1,
		initialType:   solver.Standard,
		factory:       solver.New,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ik)
	}
	if err := ik.SetVelocitySolveType(ik.initialType); err != nil {
		return nil, err
	}
	for i := 0; i < cfg.Len(); i++ {
		j := cfg.Joint(i)
		ik.log.Info("using joint",
			zap.String("name", j.Name),
			zap.Stringer("type", j.Type),
			zap.Float64("lower", j.Lower),
			zap.Float64("upper", j.Upper),
			zap.Float64("velocity", j.MaxVelocity),
			zap.Float64("acceleration", j.MaxAcceleration))
	}
	return ik, nil
}

// Config returns the frozen per-joint capability table.
func (ik *IK) Config() *ChainConfig { return ik.cfg }

// VelocitySolveType returns the active solver variant.
func (ik *IK) VelocitySolveType() solver.Type {
	if ik.handle == nil {
		return ""
	}
	return ik.handle.typ
}

// SetVelocitySolveType swaps the active velocity solver, and the position
// wrapper around it, for the named variant. Asking for the type already
// active is a benign no-op reported as ErrSolveTypeActive: the existing
// solver stays valid and usable. An unknown type yields a *ConfigError and
// leaves the existing solver untouched. On an unconfigured facade the call
// yields ErrNotReady, like the solve entry points.
func (ik *IK) SetVelocitySolveType(t solver.Type) error {
	if ik.cfg == nil {
		return ErrNotReady
	}
	if ik.handle != nil && ik.handle.typ == t {
		return ErrSolveTypeActive
	}
	vel, err := ik.factory(t, ik.cfg.Len(), ik.loopPeriod)
	if err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	if err := vel.SetCapabilities(ik.cfg.Limits()); err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	// Position limits are enforced by the position wrapper, not inside the
	// velocity solver.
	vel.UsePositionLimits(false)
	pos, err := solver.NewPositionIK(chainAdapter{ik.chain, ik.cfg.Len()}, vel, ik.cfg.Limits(), ik.eps, ik.loopPeriod)
	if err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	ik.handle = &solverHandle{typ: t, velocity: vel, position: pos}
	ik.ready = true
	ik.log.Info("velocity solver selected", zap.String("type", string(t)))
	return nil
}

// SolveVelocity resolves a Cartesian twist into joint velocities at the
// current configuration q, optionally biasing the nullspace toward preferred
// joint values.
func (ik *IK) SolveVelocity(q []float64, twist solver.Twist, bias *NullspaceBias) ([]float64, error) {
	if !ik.ready {
		return nil, ErrNotReady
	}
	jac, err := ik.chain.Jacobian(q)
	if err != nil {
		return nil, &DelegateError{Op: "chain jacobian", Err: err}
	}
	stack, err := ik.buildStack(jac, twist, q, bias)
	if err != nil {
		return nil, err
	}
	qdot, err := ik.handle.velocity.Solve(stack, q)
	if err != nil {
		return nil, &DelegateError{Op: "velocity solve", Err: err}
	}
	return qdot, nil
}

// SolvePosition resolves a target pose into joint positions from the seed
// q. tol is a per-axis Cartesian tolerance; zero components use the
// facade's default. A bias request is forwarded to the position wrapper as
// a selection Jacobian, indices, and the shared gain.
func (ik *IK) SolvePosition(q []float64, target solver.Pose, bias *NullspaceBias, tol solver.Twist) ([]float64, error) {
	if !ik.ready {
		return nil, ErrNotReady
	}
	if bias.empty() {
		out, err := ik.handle.position.Solve(q, target, tol)
		if err != nil {
			return nil, &DelegateError{Op: "position solve", Err: err}
		}
		return out, nil
	}
	jac, indices, err := nullspaceBiasJacobian(ik.cfg, bias)
	if err != nil {
		return nil, err
	}
	out, err := ik.handle.position.SolveWithBias(q, target, &solver.BiasTask{
		Jacobian: jac,
		Indices:  indices,
		Targets:  bias.Positions,
		Gain:     ik.nullspaceGain,
	}, tol)
	if err != nil {
		return nil, &DelegateError{Op: "position solve", Err: err}
	}
	return out, nil
}

// chainAdapter narrows the facade's Chain to what the position solver needs.
type chainAdapter struct {
	Chain
	dof int
}

func (c chainAdapter) DoF() int { return c.dof }
