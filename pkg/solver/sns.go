package solver

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// boxEps is the tolerance used when testing a joint velocity against its box.
const boxEps = 1e-9

var errInfeasible = errors.New("solver: task infeasible within joint capability bounds")

// taskOptions selects the saturation behavior of a single task solve.
type taskOptions struct {
	// iterative enables the per-joint saturation loop. When false a single
	// pass is made and the whole task is rescaled at once.
	iterative bool
	// keepBest tracks the saturation set with the largest achievable task
	// scale instead of the most recently visited one.
	keepBest bool
	// margin multiplies the task scale whenever the task had to be scaled
	// down, leaving capacity for lower-priority tasks. 1 means no margin.
	margin float64
}

// taskResult carries the outcome of one prioritized task solve.
type taskResult struct {
	qdot  *mat.VecDense // accumulated joint velocity after this task
	next  *mat.Dense    // projector onto the nullspace of this and all higher tasks
	scale float64       // achieved task scale in (0, 1]
}

// solveTask resolves a single task inside the nullspace of the tasks above
// it. qdotIn is the accumulated solution of the higher-priority tasks and P
// the projector onto their combined nullspace; lo and hi bound each joint's
// velocity. The SNS scheme saturates one violating joint per iteration,
// resolving each saturation through the projector so saturated joints sit at
// their bounds without disturbing the tasks above, and falls back to a scaled
// task when the remaining freedom runs out. Every candidate solution has the
// form qdotIn + P*z.
func solveTask(t Task, qdotIn *mat.VecDense, P *mat.Dense, lo, hi []float64, opt taskOptions) (taskResult, error) {
	n := qdotIn.Len()

	// Projector for the next task, from the unsaturated task Jacobian.
	var jp mat.Dense
	jp.Mul(t.Jacobian, P)
	pinJP, _, err := pseudoinverse(&jp)
	if err != nil {
		return taskResult{}, err
	}
	next := mat.NewDense(n, n, nil)
	next.Mul(pinJP, &jp)
	next.Sub(P, next)

	satSet := make([]bool, n)
	satValue := make([]float64, n)
	var saturated []int
	bestScale := -1.0
	var bestBase, bestDir *mat.VecDense
	rank0 := 0

	for iter := 0; iter <= n; iter++ {
		anchor, Ps := qdotIn, P
		if len(saturated) > 0 {
			a, p, ok := pinSaturated(qdotIn, P, saturated, satValue)
			if !ok {
				// The saturation set is no longer reachable inside the
				// higher-priority nullspace: fall back to the scaled task.
				break
			}
			anchor, Ps = a, p
		}
		var jb mat.Dense
		jb.Mul(t.Jacobian, Ps)
		pin, rank, err := pseudoinverse(&jb)
		if err != nil {
			return taskResult{}, err
		}
		if iter == 0 {
			rank0 = rank
		} else if rank < rank0 {
			// The saturations consumed the freedom the task needs: it can
			// no longer be realized exactly, fall back to the scaled task.
			break
		}

		// qdot(s) = base + s*dir, where s scales the desired velocity. Both
		// terms stay inside anchor + range(Ps), so the tasks above this one
		// are never disturbed.
		var jq, resid, dir mat.VecDense
		jq.MulVec(t.Jacobian, anchor)
		resid.MulVec(pin, &jq)
		dir.MulVec(pin, t.Desired)
		base := mat.NewVecDense(n, nil)
		base.SubVec(anchor, &resid)

		qdot := mat.NewVecDense(n, nil)
		qdot.AddVec(base, &dir)

		// Most violating joint among the unsaturated ones.
		worst, worstExcess := -1, boxEps
		for i := 0; i < n; i++ {
			if satSet[i] {
				continue
			}
			v := qdot.AtVec(i)
			var excess float64
			if v < lo[i] {
				excess = lo[i] - v
			} else if v > hi[i] {
				excess = v - hi[i]
			}
			if excess > worstExcess {
				worst, worstExcess = i, excess
			}
		}
		if worst < 0 {
			return taskResult{qdot: qdot, next: next, scale: 1}, nil
		}

		// Largest task scale feasible with the current saturation set.
		s := taskScale(base, &dir, satSet, lo, hi)
		if inBox(scaledSolution(base, &dir, s), lo, hi) {
			if s > bestScale || !opt.keepBest {
				bestScale, bestBase, bestDir = s, base, &dir
			}
		}

		if !opt.iterative {
			break
		}

		// Saturate the most critical joint at its exceeded bound.
		satSet[worst] = true
		satValue[worst] = clamp(qdot.AtVec(worst), lo[worst], hi[worst])
		saturated = append(saturated, worst)
	}

	if bestBase == nil {
		return taskResult{}, errInfeasible
	}
	scale := bestScale
	qdot := scaledSolution(bestBase, bestDir, scale)
	if opt.margin < 1 && scale > 0 {
		if reduced := scale * opt.margin; inBox(scaledSolution(bestBase, bestDir, reduced), lo, hi) {
			scale = reduced
			qdot = scaledSolution(bestBase, bestDir, scale)
		}
	}
	return taskResult{qdot: qdot, next: next, scale: scale}, nil
}

// pinSaturated resolves the saturated joints as an equality task inside the
// higher-priority nullspace: the returned anchor holds each saturated joint
// at its recorded bound without disturbing the tasks above, and the returned
// projector spans the freedom that remains. ok is false when the saturation
// set cannot be realized in range(P).
func pinSaturated(qdotIn *mat.VecDense, P *mat.Dense, saturated []int, value []float64) (anchor *mat.VecDense, next *mat.Dense, ok bool) {
	n := qdotIn.Len()
	m := len(saturated)
	sel := mat.NewDense(m, n, nil)
	gap := mat.NewVecDense(m, nil)
	for i, j := range saturated {
		sel.Set(i, j, 1)
		gap.SetVec(i, value[j]-qdotIn.AtVec(j))
	}
	var sp mat.Dense
	sp.Mul(sel, P)
	pin, rank, err := pseudoinverse(&sp)
	if err != nil || rank < m {
		return nil, nil, false
	}
	var corr mat.VecDense
	corr.MulVec(pin, gap)
	anchor = mat.NewVecDense(n, nil)
	anchor.AddVec(qdotIn, &corr)

	next = mat.NewDense(n, n, nil)
	next.Mul(pin, &sp)
	next.Sub(P, next)
	return anchor, next, true
}

// taskScale returns the largest s in [0, 1] for which every unsaturated
// joint velocity base_i + s*dir_i stays inside its box.
func taskScale(base, dir *mat.VecDense, saturated []bool, lo, hi []float64) float64 {
	s := 1.0
	for i := 0; i < base.Len(); i++ {
		if saturated[i] {
			continue
		}
		b, d := base.AtVec(i), dir.AtVec(i)
		switch {
		case d > boxEps:
			if si := (hi[i] - b) / d; si < s {
				s = si
			}
		case d < -boxEps:
			if si := (lo[i] - b) / d; si < s {
				s = si
			}
		default:
			continue
		}
	}
	if s < 0 {
		s = 0
	}
	return s
}

// scaledSolution evaluates base + s*dir. No per-component clamping: clamping
// would push the solution out of the higher-priority nullspace, so box
// feasibility is checked separately with inBox.
func scaledSolution(base, dir *mat.VecDense, s float64) *mat.VecDense {
	out := mat.NewVecDense(base.Len(), nil)
	out.AddScaledVec(base, s, dir)
	return out
}

// inBox reports whether every component of v lies inside its velocity box.
func inBox(v *mat.VecDense, lo, hi []float64) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if x < lo[i]-boxEps || x > hi[i]+boxEps {
			return false
		}
	}
	return true
}

// solveStack runs the prioritized task loop shared by all variants. The
// primary task must succeed; secondary tasks are best-effort and are skipped
// when infeasible in the remaining nullspace. The returned scale is the
// primary task's achieved scale.
func solveStack(stack Stack, joints int, lo, hi []float64, opt taskOptions) ([]float64, float64, error) {
	qdot := mat.NewVecDense(joints, nil)
	P := eye(joints)
	primaryScale := 1.0
	for i, task := range stack {
		res, err := solveTask(task, qdot, P, lo, hi, opt)
		if err != nil {
			if i == 0 {
				return nil, 0, fmt.Errorf("solver: primary task: %w", err)
			}
			continue // secondary objectives yield to the tasks above them
		}
		if i == 0 {
			primaryScale = res.scale
		}
		qdot = res.qdot
		P = res.next
	}
	out := make([]float64, joints)
	copy(out, qdot.RawVector().Data)
	return out, primaryScale, nil
}
