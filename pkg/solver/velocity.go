package solver

import "fmt"

// Type names one of the closed set of velocity solver variants.
type Type string

const (
	// Standard is the baseline SNS solver: joints are saturated one at a
	// time and the task is scaled down only when the remaining freedom
	// cannot realize it.
	Standard Type = "standard"
	// Fast performs a single saturation-free pass and rescales the whole
	// task once. Cheapest, loosest tracking.
	Fast Type = "fast"
	// Optimal searches all visited saturation sets and keeps the one with
	// the largest achievable task scale.
	Optimal Type = "optimal"
	// OptimalScaleMargin behaves like Optimal but deliberately leaves a
	// scale margin unused, so lower-priority tasks retain some capacity.
	OptimalScaleMargin Type = "optimal_scale_margin"
	// FastOptimal tries the Fast pass first and falls back to the Optimal
	// search only when the fast solution had to be scaled.
	FastOptimal Type = "fast_optimal"
)

// Types lists every selectable velocity solver variant.
func Types() []Type {
	return []Type{Standard, Fast, Optimal, OptimalScaleMargin, FastOptimal}
}

// VelocitySolver is the capability contract every variant satisfies: accept
// per-joint capability bounds, accept a position-limit toggle, and resolve a
// task stack plus the current configuration into joint velocities.
type VelocitySolver interface {
	// SetCapabilities installs the per-joint bounds the solver must respect.
	SetCapabilities(lim Limits) error
	// UsePositionLimits toggles shaping of position (and acceleration)
	// limits into the velocity bounds. Disabled when a position-level
	// wrapper enforces them instead.
	UsePositionLimits(enabled bool)
	// Solve returns joint velocities realizing the task stack as far as the
	// capability bounds allow, highest priority first.
	Solve(stack Stack, q []float64) ([]float64, error)
}

// New constructs the velocity solver variant named by t for a chain with the
// given joint count, using loopPeriod (seconds) as the control period.
func New(t Type, joints int, loopPeriod float64) (VelocitySolver, error) {
	if joints <= 0 {
		return nil, fmt.Errorf("solver: joint count must be positive, got %d", joints)
	}
	if loopPeriod <= 0 {
		return nil, fmt.Errorf("solver: loop period must be positive, got %g", loopPeriod)
	}
	switch t {
	case Standard:
		return &standardSolver{capabilities: newCapabilities(joints, loopPeriod)}, nil
	case Fast:
		return &fastSolver{capabilities: newCapabilities(joints, loopPeriod)}, nil
	case Optimal:
		return &optimalSolver{capabilities: newCapabilities(joints, loopPeriod)}, nil
	case OptimalScaleMargin:
		return &scaleMarginSolver{capabilities: newCapabilities(joints, loopPeriod), margin: defaultScaleMargin}, nil
	case FastOptimal:
		return &fastOptimalSolver{capabilities: newCapabilities(joints, loopPeriod)}, nil
	default:
		return nil, fmt.Errorf("solver: unknown velocity solver type %q", t)
	}
}

// capabilities is the per-instance configuration state common to all
// variants. It is embedded by value: instances never share it.
type capabilities struct {
	joints            int
	dt                float64
	lim               Limits
	haveLimits        bool
	positionLimits    bool
}

func newCapabilities(joints int, dt float64) capabilities {
	return capabilities{joints: joints, dt: dt, positionLimits: true}
}

func (c *capabilities) SetCapabilities(lim Limits) error {
	if err := lim.validate(c.joints); err != nil {
		return err
	}
	c.lim = Limits{
		Lower:           append([]float64(nil), lim.Lower...),
		Upper:           append([]float64(nil), lim.Upper...),
		MaxVelocity:     append([]float64(nil), lim.MaxVelocity...),
		MaxAcceleration: append([]float64(nil), lim.MaxAcceleration...),
	}
	c.haveLimits = true
	return nil
}

func (c *capabilities) UsePositionLimits(enabled bool) {
	c.positionLimits = enabled
}

func (c *capabilities) prepare(stack Stack, q []float64) (lo, hi []float64, err error) {
	if !c.haveLimits {
		return nil, nil, fmt.Errorf("solver: capabilities not set")
	}
	if len(q) != c.joints {
		return nil, nil, fmt.Errorf("solver: %d joint positions for %d joints", len(q), c.joints)
	}
	if err := stack.validate(c.joints); err != nil {
		return nil, nil, err
	}
	lo, hi = velocityBox(c.lim, q, c.dt, c.positionLimits)
	return lo, hi, nil
}
