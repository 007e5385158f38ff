package snsik

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	"github.com/tingelst/sns-ik/pkg/solver"
)

func sixJointConfig(t *testing.T) *ChainConfig {
	t.Helper()
	names := []string{"j1", "j2", "j3", "j4", "j5", "j6"}
	ch := rotationalChain(names...)
	ones := []float64{1, 1, 1, 1, 1, 1}
	lower := []float64{-3, -3, -3, -3, -3, -3}
	upper := []float64{3, 3, 3, 3, 3, 3}
	zeros := make([]float64, 6)
	cfg, err := ChainConfigFromBounds(ch, names, lower, upper, ones, zeros)
	if err != nil {
		t.Fatalf("ChainConfigFromBounds failed: %v", err)
	}
	return cfg
}

func TestNullspaceBiasJacobian(t *testing.T) {
	cfg := sixJointConfig(t)
	bias := &NullspaceBias{Names: []string{"j2", "j5"}, Positions: []float64{1.0, -0.5}}

	jac, indices, err := nullspaceBiasJacobian(cfg, bias)
	if err != nil {
		t.Fatalf("nullspaceBiasJacobian failed: %v", err)
	}
	if diff := cmp.Diff([]int{1, 4}, indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}

	r, c := jac.Dims()
	if r != 2 || c != 6 {
		t.Fatalf("selection Jacobian is %dx%d, want 2x6", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := 0.0
			if (i == 0 && j == 1) || (i == 1 && j == 4) {
				want = 1.0
			}
			if got := jac.At(i, j); got != want {
				t.Errorf("jac[%d,%d] = %g, want %g", i, j, got, want)
			}
		}
	}
}

func TestNullspaceBiasJacobianErrors(t *testing.T) {
	cfg := sixJointConfig(t)

	cases := []struct {
		name string
		bias *NullspaceBias
	}{
		{"unknown joint", &NullspaceBias{Names: []string{"j2", "ghost"}, Positions: []float64{1, 2}}},
		{"count mismatch", &NullspaceBias{Names: []string{"j2", "j5"}, Positions: []float64{1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			jac, indices, err := nullspaceBiasJacobian(cfg, tc.bias)
			var lookupErr *LookupError
			if !errors.As(err, &lookupErr) {
				t.Fatalf("expected *LookupError, got %v", err)
			}
			if jac != nil || indices != nil {
				t.Error("failed lookup must not produce a partial Jacobian")
			}
		})
	}
}

func TestBuildStackWithoutBias(t *testing.T) {
	// A bias naming no joints is the same as no bias at all.
	cases := []struct {
		name string
		bias *NullspaceBias
	}{
		{"nil bias", nil},
		{"empty bias", &NullspaceBias{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ik := &IK{cfg: sixJointConfig(t), loopPeriod: 0.01, nullspaceGain: 1.0}
			jac := mat.NewDense(6, 6, nil)
			twist := solver.Twist{0, 0, 0.1, 0, 0, 0}

			stack, err := ik.buildStack(jac, twist, make([]float64, 6), tc.bias)
			if err != nil {
				t.Fatalf("buildStack failed: %v", err)
			}
			if len(stack) != 1 {
				t.Fatalf("expected a single task, got %d", len(stack))
			}
			if stack[0].Jacobian != jac {
				t.Error("primary task must carry the chain Jacobian")
			}
			if got := stack[0].Desired.AtVec(2); got != 0.1 {
				t.Errorf("primary desired z velocity = %g, want 0.1", got)
			}
		})
	}
}

func TestBuildStackBiasLaw(t *testing.T) {
	ik := &IK{cfg: sixJointConfig(t), loopPeriod: 0.01, nullspaceGain: 0.5}
	jac := mat.NewDense(6, 6, nil)
	q := []float64{0, 0.2, 0, 0, -0.1, 0}
	bias := &NullspaceBias{Names: []string{"j2", "j5"}, Positions: []float64{1.0, -0.5}}

	stack, err := ik.buildStack(jac, solver.Twist{}, q, bias)
	if err != nil {
		t.Fatalf("buildStack failed: %v", err)
	}
	if len(stack) != 2 {
		t.Fatalf("expected two tasks, got %d", len(stack))
	}

	// gain * (target - q) / loopPeriod
	desired := stack[1].Desired
	if desired.Len() != 2 {
		t.Fatalf("bias desired has %d entries, want 2", desired.Len())
	}
	if got, want := desired.AtVec(0), 0.5*(1.0-0.2)/0.01; !approx(got, want) {
		t.Errorf("bias velocity for j2 = %g, want %g", got, want)
	}
	if got, want := desired.AtVec(1), 0.5*(-0.5-(-0.1))/0.01; !approx(got, want) {
		t.Errorf("bias velocity for j5 = %g, want %g", got, want)
	}
}

func TestBuildStackBiasErrorPropagates(t *testing.T) {
	ik := &IK{cfg: sixJointConfig(t), loopPeriod: 0.01, nullspaceGain: 1.0}
	bias := &NullspaceBias{Names: []string{"ghost"}, Positions: []float64{1}}

	stack, err := ik.buildStack(mat.NewDense(6, 6, nil), solver.Twist{}, make([]float64, 6), bias)
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected *LookupError, got %v", err)
	}
	if stack != nil {
		t.Error("failed bias lookup must not produce a stack")
	}
}

func approx(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-12
}
