package analysis

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/san-kum/daprop/internal/da"
)

func TestJacobian(t *testing.T) {
	alg := da.MustConfig(2, 2)
	final := []da.DA{
		alg.Const(1).Add(alg.Var(1).Scale(0.2)).Add(alg.Var(2).Scale(0.1)),
		alg.Var(2).Scale(-0.3).Add(alg.Var(1).Mul(alg.Var(2))),
	}

	j, err := Jacobian(final, 0.1)
	if err != nil {
		t.Fatalf("jacobian failed: %v", err)
	}
	want := [][]float64{{2, 1}, {0, -3}}
	for r := range want {
		for c := range want[r] {
			if got := j.At(r, c); !scalar.EqualWithinAbs(got, want[r][c], 1e-12) {
				t.Errorf("J[%d][%d]: expected %v, got %v", r, c, want[r][c], got)
			}
		}
	}

	if _, err := Jacobian(nil, 0.1); !errors.Is(err, ErrNoMap) {
		t.Errorf("expected ErrNoMap, got %v", err)
	}
	if _, err := Jacobian(final, 0); !errors.Is(err, ErrNoMap) {
		t.Errorf("expected ErrNoMap for zero scale, got %v", err)
	}
}

func TestLyapunovExponent(t *testing.T) {
	alg := da.MustConfig(1, 3)
	scale := 0.5
	final := []da.DA{
		alg.Var(1).Scale(math.Exp(2) * scale),
		alg.Var(2).Scale(math.Exp(-1) * scale),
		alg.Var(3).Scale(scale),
	}

	got, err := LyapunovExponent(final, scale, 2)
	if err != nil {
		t.Fatalf("lyapunov failed: %v", err)
	}
	if !scalar.EqualWithinAbs(got, 1, 1e-12) {
		t.Errorf("expected exponent 1, got %v", got)
	}
}

func TestOrderProfile(t *testing.T) {
	alg := da.MustConfig(3, 2)
	x := alg.Const(-4).Add(alg.Var(2).Scale(0.5)).Add(alg.Var(1).Mul(alg.Var(1)).Scale(-0.25))

	got := OrderProfile(x)
	want := []float64{4, 0.5, 0.25, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d orders, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if OrderProfile(da.DA{}) != nil {
		t.Error("expected nil profile for detached zero")
	}
}
