package solver

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// planar2 is a two-revolute planar arm in the xy plane with unit links,
// rotating about z. Analytic kinematics keep the solver tests independent of
// any chain model.
type planar2 struct{}

func (planar2) DoF() int { return 2 }

func (planar2) Forward(q []float64) (Pose, error) {
	if len(q) != 2 {
		return Pose{}, fmt.Errorf("want 2 joints, got %d", len(q))
	}
	x := math.Cos(q[0]) + math.Cos(q[0]+q[1])
	y := math.Sin(q[0]) + math.Sin(q[0]+q[1])
	s, c := math.Sincos((q[0] + q[1]) / 2)
	return Pose{
		Position:    r3.Vec{X: x, Y: y},
		Orientation: quat.Number{Real: c, Kmag: s},
	}, nil
}

func (planar2) Jacobian(q []float64) (*mat.Dense, error) {
	if len(q) != 2 {
		return nil, fmt.Errorf("want 2 joints, got %d", len(q))
	}
	s1, c1 := math.Sincos(q[0])
	s12, c12 := math.Sincos(q[0] + q[1])
	jac := mat.NewDense(6, 2, nil)
	jac.Set(0, 0, -s1-s12)
	jac.Set(0, 1, -s12)
	jac.Set(1, 0, c1+c12)
	jac.Set(1, 1, c12)
	jac.Set(5, 0, 1)
	jac.Set(5, 1, 1)
	return jac, nil
}

func planarLimits() Limits {
	return Limits{
		Lower:           []float64{-math.Pi, -math.Pi},
		Upper:           []float64{math.Pi, math.Pi},
		MaxVelocity:     []float64{4, 4},
		MaxAcceleration: []float64{0, 0},
	}
}

func newPositionIK(t *testing.T) *PositionIK {
	t.Helper()
	vel, err := New(Standard, 2, 0.01)
	require.NoError(t, err)
	require.NoError(t, vel.SetCapabilities(planarLimits()))
	vel.UsePositionLimits(false)
	pos, err := NewPositionIK(planar2{}, vel, planarLimits(), 1e-6, 0.01)
	require.NoError(t, err)
	return pos
}

// positionOnlyTol relaxes the orientation axes so the underactuated planar
// arm only has to reach the target point.
func positionOnlyTol() Twist {
	return Twist{0, 0, 0, math.Inf(1), math.Inf(1), math.Inf(1)}
}

func TestPositionSolveConverges(t *testing.T) {
	pos := newPositionIK(t)
	want, err := planar2{}.Forward([]float64{0.7, -0.4})
	require.NoError(t, err)

	got, err := pos.Solve([]float64{0.5, -0.2}, want, positionOnlyTol())
	require.NoError(t, err)

	reached, err := planar2{}.Forward(got)
	require.NoError(t, err)
	require.InDelta(t, want.Position.X, reached.Position.X, 1e-5)
	require.InDelta(t, want.Position.Y, reached.Position.Y, 1e-5)
}

func TestPositionSolveRespectsLimits(t *testing.T) {
	pos := newPositionIK(t)
	target, err := planar2{}.Forward([]float64{1.2, 0.8})
	require.NoError(t, err)
	got, err := pos.Solve([]float64{0.1, 0.1}, target, positionOnlyTol())
	require.NoError(t, err)
	lim := planarLimits()
	for i, q := range got {
		require.GreaterOrEqual(t, q, lim.Lower[i]-1e-12)
		require.LessOrEqual(t, q, lim.Upper[i]+1e-12)
	}
}

func TestPositionSolveUnreachable(t *testing.T) {
	pos := newPositionIK(t)
	// The arm's reach is 2; this target is outside it.
	target := Pose{Position: r3.Vec{X: 5, Y: 0}, Orientation: quat.Number{Real: 1}}
	if _, err := pos.Solve([]float64{0.1, 0.1}, target, positionOnlyTol()); err == nil {
		t.Fatal("expected failure for an unreachable target")
	}
}

func TestPositionSolveWithBias(t *testing.T) {
	pos := newPositionIK(t)
	want, err := planar2{}.Forward([]float64{0.9, -0.7})
	require.NoError(t, err)

	biasJac := mat.NewDense(1, 2, []float64{0, 1})
	bias := &BiasTask{Jacobian: biasJac, Indices: []int{1}, Targets: []float64{-0.7}, Gain: 1}
	got, err := pos.SolveWithBias([]float64{0.5, -0.3}, want, bias, positionOnlyTol())
	require.NoError(t, err)

	reached, err := planar2{}.Forward(got)
	require.NoError(t, err)
	require.InDelta(t, want.Position.X, reached.Position.X, 1e-5)
	require.InDelta(t, want.Position.Y, reached.Position.Y, 1e-5)
}

func TestPositionSolveBiasValidation(t *testing.T) {
	pos := newPositionIK(t)
	target, err := planar2{}.Forward([]float64{0.3, 0.3})
	require.NoError(t, err)

	bad := &BiasTask{
		Jacobian: mat.NewDense(1, 2, []float64{0, 1}),
		Indices:  []int{5}, // out of range
		Targets:  []float64{0},
		Gain:     1,
	}
	if _, err := pos.SolveWithBias([]float64{0, 0}, target, bad, positionOnlyTol()); err == nil {
		t.Fatal("expected error for out-of-range bias index")
	}
}

func TestErrorTwistIdentity(t *testing.T) {
	p := Pose{Position: r3.Vec{X: 1, Y: 2, Z: 3}, Orientation: quat.Number{Real: 1}}
	tw := ErrorTwist(p, p)
	for i, v := range tw {
		require.InDelta(t, 0, v, 1e-12, "component %d", i)
	}
}

func TestErrorTwistRotation(t *testing.T) {
	from := IdentityPose()
	s, c := math.Sincos(math.Pi / 4) // 90 degrees about z
	to := Pose{Orientation: quat.Number{Real: c, Kmag: s}}
	tw := ErrorTwist(from, to)
	require.InDelta(t, 0, tw[3], 1e-9)
	require.InDelta(t, 0, tw[4], 1e-9)
	require.InDelta(t, math.Pi/2, tw[5], 1e-9)
}
