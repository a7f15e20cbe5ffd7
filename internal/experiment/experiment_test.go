package experiment

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-kit/log"

	"github.com/san-kum/daprop/internal/config"
	"github.com/san-kum/daprop/internal/da"
	"github.com/san-kum/daprop/internal/dynamo"
)

const stepLimit = 100_000

// Lorenz from (10, 5, 5) + 0.1*identity at order 8, tolerances 1e-10 on
// [0, 10]. With nominal magnitudes the step control sees exactly what the
// float run sees, so the nominal trajectory must match it.
func TestLorenzNominalMatchesReference(t *testing.T) {
	cfg := config.GetPreset("lorenz", "nominal")
	cfg.MaxSteps = stepLimit

	result, err := New(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Stats.Steps == 0 || result.Stats.Steps >= stepLimit {
		t.Errorf("unexpected step count %d", result.Stats.Steps)
	}
	if result.Stats.Steps != result.ReferenceStats.Steps {
		t.Errorf("expected identical step counts, got %d and %d", result.Stats.Steps, result.ReferenceStats.Steps)
	}
	if math.Abs(result.Stats.Time-10) > 1e-12 {
		t.Errorf("expected to end at t=10, got %v", result.Stats.Time)
	}
	if result.Deviation > cfg.AbsTol {
		t.Errorf("nominal deviates from reference by %g", result.Deviation)
	}

	for i, x := range result.Final {
		if x.Config().Order() != 8 {
			t.Errorf("component %d lost its algebra", i)
		}
		if math.IsNaN(x.Abs()) || math.IsInf(x.Abs(), 0) {
			t.Errorf("component %d has invalid magnitude", i)
		}
	}
}

func TestLorenzMaxMagnitudeCompletes(t *testing.T) {
	cfg := config.GetPreset("lorenz", "classic")
	cfg.Order = 4
	cfg.MaxSteps = stepLimit

	result, err := New(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Stats.Steps >= stepLimit {
		t.Errorf("exceeded step limit: %d", result.Stats.Steps)
	}
	if len(result.Times) != result.Stats.Steps+1 || len(result.Nominal) != len(result.Times) {
		t.Errorf("trajectory has %d times and %d rows for %d steps", len(result.Times), len(result.Nominal), result.Stats.Steps)
	}
	for i, x := range result.Final {
		lin := x.Coeff(1)
		if lin == 0 || math.IsNaN(lin) || math.IsInf(lin, 0) {
			t.Errorf("component %d: implausible sensitivity %g", i, lin)
		}
	}
	if math.IsNaN(result.Deviation) {
		t.Error("deviation is NaN")
	}
}

func TestInitialState(t *testing.T) {
	alg := da.MustConfig(2, 2)
	x, err := InitialState(alg, []float64{1, 2, 3}, 0.5)
	if err != nil {
		t.Fatalf("initial state failed: %v", err)
	}

	if len(x) != 3 {
		t.Fatalf("expected 3 components, got %d", len(x))
	}
	if x[0].Coeff(1) != 0.5 || x[1].Coeff(0, 1) != 0.5 {
		t.Errorf("expected perturbed first two components, got %v / %v", x[0].Coeffs(), x[1].Coeffs())
	}
	if x[2].Cons() != 3 || x[2].Abs() != 3 {
		t.Errorf("expected unperturbed third component, got %v", x[2].Coeffs())
	}
}

func TestRunErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model = "pendulum"
	if _, err := New(cfg).Run(context.Background()); err == nil {
		t.Error("expected error for unknown model")
	}

	cfg = config.DefaultConfig()
	cfg.Params = map[string]float64{"gamma": 1}
	if _, err := New(cfg).Run(context.Background()); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}

	for _, state := range [][]float64{{1, 2}, {1, 2, 3, 4}} {
		cfg = config.GetPreset("lorenz", "linear")
		cfg.InitState = state
		if _, err := New(cfg).Run(context.Background()); !errors.Is(err, dynamo.ErrDimensionMismatch) {
			t.Errorf("init_state %v: expected ErrDimensionMismatch, got %v", state, err)
		}
	}

	cfg = config.DefaultConfig()
	cfg.Order = 2
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(cfg).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFixedStepIntegrators(t *testing.T) {
	for _, name := range []string{"rk4", "euler"} {
		t.Run(name, func(t *testing.T) {
			cfg := config.GetPreset("vanderpol", "limit_cycle")
			cfg.Integrator = name
			cfg.Order = 2
			cfg.T1 = 1
			cfg.Dt = 0.01

			result, err := New(cfg).Run(context.Background())
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if result.Stats.Steps != 100 {
				t.Errorf("expected 100 steps, got %d", result.Stats.Steps)
			}
			if result.Deviation > 1e-9 {
				t.Errorf("fixed-step nominal should match reference, deviation %g", result.Deviation)
			}
		})
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.GetPreset("rossler", "spiral")
	cfg.Order = 1
	cfg.T1 = 1

	if _, err := New(cfg, WithLogger(log.NewLogfmtLogger(&buf))).Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"msg=\"integration complete\"", "model=rossler", "msg=\"reference complete\""} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSweep(t *testing.T) {
	var exps []*Experiment
	for _, order := range []int{1, 2, 3} {
		cfg := config.GetPreset("lorenz", "linear")
		cfg.Order = order
		cfg.T1 = 0.5
		exps = append(exps, New(cfg))
	}

	results, err := NewSweep(exps...).Run(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if got := r.Final[0].Config().Order(); got != i+1 {
			t.Errorf("result %d: expected order %d, got %d", i, i+1, got)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	models := r.ListModels()
	if len(models) != 3 || models[0] != "lorenz" {
		t.Errorf("unexpected models %v", models)
	}
	if _, err := r.GetModel("lorenz"); err != nil {
		t.Errorf("lorenz missing: %v", err)
	}
}

func TestFixedStepBlowUp(t *testing.T) {
	cfg := config.GetPreset("vanderpol", "stiff")
	cfg.Integrator = "euler"
	cfg.Params = map[string]float64{"mu": 1000}
	cfg.Dt = 0.5
	cfg.T1 = 200

	_, err := New(cfg).Run(context.Background())
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestProgressCallback(t *testing.T) {
	cfg := config.GetPreset("lorenz", "linear")
	cfg.Dt = 1

	var seen []Progress
	result, err := New(cfg, WithProgress(func(p Progress) { seen = append(seen, p) })).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(seen) != result.Stats.Steps+1 {
		t.Fatalf("expected %d progress calls, got %d", result.Stats.Steps+1, len(seen))
	}
	if seen[0].Steps != 0 || seen[0].T != cfg.T0 {
		t.Errorf("expected the initial state first, got %+v", seen[0])
	}
	last := seen[len(seen)-1]
	if last.Steps != result.Stats.Steps || last.Rejected != result.Stats.Rejected {
		t.Errorf("last progress %+v disagrees with stats %+v", last, result.Stats)
	}
	if result.Stats.Rejected == 0 {
		t.Error("expected rejections for dt0=1 at tolerance 1e-12")
	}
	if last.Nominal[0] != result.FinalNominal()[0] {
		t.Errorf("expected final nominal %v, got %v", result.FinalNominal()[0], last.Nominal[0])
	}
}
