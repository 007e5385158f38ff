package solver

import "math"

// velocityBox computes the feasible joint velocity interval [lo, hi] for the
// current configuration over one control period. Velocity limits always
// apply; position and acceleration limits are shaped into velocity space only
// when position-limit handling is enabled (when a solver runs underneath a
// position-level wrapper, the wrapper owns position enforcement instead).
func velocityBox(lim Limits, q []float64, dt float64, usePosition bool) (lo, hi []float64) {
	n := len(q)
	lo = make([]float64, n)
	hi = make([]float64, n)
	for i := 0; i < n; i++ {
		vmax := lim.MaxVelocity[i]
		if vmax <= 0 {
			vmax = math.Inf(1)
		}
		lo[i] = -vmax
		hi[i] = vmax

		if !usePosition {
			continue
		}
		if !math.IsInf(lim.Lower[i], -1) {
			// Velocity that reaches the bound in exactly one period, and the
			// velocity from which the bound is still reachable without
			// exceeding the deceleration limit.
			reach := (lim.Lower[i] - q[i]) / dt
			if a := lim.MaxAcceleration[i]; a > 0 {
				if d := q[i] - lim.Lower[i]; d > 0 {
					brake := -math.Sqrt(2 * a * d)
					if brake > reach {
						reach = brake
					}
				}
			}
			if reach > lo[i] {
				lo[i] = reach
			}
		}
		if !math.IsInf(lim.Upper[i], 1) {
			reach := (lim.Upper[i] - q[i]) / dt
			if a := lim.MaxAcceleration[i]; a > 0 {
				if d := lim.Upper[i] - q[i]; d > 0 {
					brake := math.Sqrt(2 * a * d)
					if brake < reach {
						reach = brake
					}
				}
			}
			if reach < hi[i] {
				hi[i] = reach
			}
		}
		if lo[i] > hi[i] {
			// Joint already outside its position bound: allow motion back in.
			lo[i], hi[i] = math.Min(lo[i], 0), math.Max(hi[i], 0)
		}
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
