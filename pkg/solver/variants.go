package solver

// defaultScaleMargin is the fraction of the achievable task scale the
// OptimalScaleMargin variant actually uses, keeping the remainder available
// for lower-priority tasks.
const defaultScaleMargin = 0.9

// standardSolver is the baseline SNS algorithm: saturate one joint per
// iteration, fall back to the most recent feasible task scale.
type standardSolver struct {
	capabilities
}

func (s *standardSolver) Solve(stack Stack, q []float64) ([]float64, error) {
	lo, hi, err := s.prepare(stack, q)
	if err != nil {
		return nil, err
	}
	qdot, _, err := solveStack(stack, s.joints, lo, hi, taskOptions{iterative: true, margin: 1})
	return qdot, err
}

// fastSolver makes a single saturation-free pass and rescales the whole task
// once when the unconstrained solution leaves the velocity box.
type fastSolver struct {
	capabilities
}

func (s *fastSolver) Solve(stack Stack, q []float64) ([]float64, error) {
	lo, hi, err := s.prepare(stack, q)
	if err != nil {
		return nil, err
	}
	qdot, _, err := solveStack(stack, s.joints, lo, hi, taskOptions{margin: 1})
	return qdot, err
}

// optimalSolver searches the visited saturation sets for the one admitting
// the largest task scale.
type optimalSolver struct {
	capabilities
}

func (s *optimalSolver) Solve(stack Stack, q []float64) ([]float64, error) {
	lo, hi, err := s.prepare(stack, q)
	if err != nil {
		return nil, err
	}
	qdot, _, err := solveStack(stack, s.joints, lo, hi, taskOptions{iterative: true, keepBest: true, margin: 1})
	return qdot, err
}

// scaleMarginSolver is the optimal search with a deliberate scale margin.
type scaleMarginSolver struct {
	capabilities
	margin float64
}

func (s *scaleMarginSolver) Solve(stack Stack, q []float64) ([]float64, error) {
	lo, hi, err := s.prepare(stack, q)
	if err != nil {
		return nil, err
	}
	qdot, _, err := solveStack(stack, s.joints, lo, hi, taskOptions{iterative: true, keepBest: true, margin: s.margin})
	return qdot, err
}

// fastOptimalSolver tries the cheap single-pass solve first and reruns the
// optimal search only when the fast solution had to scale the primary task.
type fastOptimalSolver struct {
	capabilities
}

func (s *fastOptimalSolver) Solve(stack Stack, q []float64) ([]float64, error) {
	lo, hi, err := s.prepare(stack, q)
	if err != nil {
		return nil, err
	}
	qdot, scale, err := solveStack(stack, s.joints, lo, hi, taskOptions{margin: 1})
	if err == nil && scale >= 1 {
		return qdot, nil
	}
	qdot, _, err = solveStack(stack, s.joints, lo, hi, taskOptions{iterative: true, keepBest: true, margin: 1})
	return qdot, err
}
