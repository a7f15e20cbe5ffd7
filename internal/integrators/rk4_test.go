package integrators

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4[float64](vspace.Float64{})
	x := vspace.Vector[float64]{1.0, 0.0}
	cfg := dynamo.DefaultConfig()
	cfg.T1, cfg.Dt = 1.0, 0.01

	stats, err := IntegrateConst(context.Background(), integ, harmonicOscillator[float64](vspace.Float64{}), &x, cfg, nil)
	if err != nil {
		t.Fatalf("integration failed: %v", err)
	}

	if stats.Steps != 100 {
		t.Errorf("expected 100 steps, got %d", stats.Steps)
	}
	if stats.Time != 1.0 {
		t.Errorf("expected to end at 1.0, got %v", stats.Time)
	}

	if math.Abs(x[0]-math.Cos(1)) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], math.Cos(1))
	}
	if math.Abs(x[1]+math.Sin(1)) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], -math.Sin(1))
	}
}

func TestEulerConverges(t *testing.T) {
	x := vspace.Vector[float64]{1.0}
	cfg := dynamo.DefaultConfig()
	cfg.T1, cfg.Dt = 1.0, 1e-4

	if _, err := IntegrateConst(context.Background(), NewEuler[float64](vspace.Float64{}), decay[float64](vspace.Float64{}), &x, cfg, nil); err != nil {
		t.Fatalf("integration failed: %v", err)
	}
	if math.Abs(x[0]-math.Exp(-1)) > 1e-4 {
		t.Errorf("expected %f, got %f", math.Exp(-1), x[0])
	}
}
