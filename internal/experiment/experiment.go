package experiment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/daprop/internal/config"
	"github.com/san-kum/daprop/internal/da"
	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/integrators"
	"github.com/san-kum/daprop/internal/vspace"
)

// progressEvery is how many accepted steps pass between debug log lines.
const progressEvery = 1000

type Result struct {
	Config  *config.Config
	Times   []float64
	Nominal [][]float64
	Final   vspace.Vector[da.DA]
	Stats   dynamo.Stats
	Elapsed time.Duration

	// Reference is the float64 run from the same nominal state, when enabled.
	Reference      []float64
	ReferenceStats dynamo.Stats
	Deviation      float64
}

type Option func(*Experiment)

func WithLogger(l log.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// WithProgress registers a callback run after every accepted step,
// including the initial state, on the integrating goroutine.
func WithProgress(fn func(Progress)) Option {
	return func(e *Experiment) { e.progress = fn }
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   log.Logger
	progress func(Progress)
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = log.With(e.logger, "model", cfg.Model, "order", cfg.Order, "magnitude", cfg.Magnitude)
	return e
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// InitialState lifts the nominal state into the algebra and perturbs the
// first min(dim, vars) components by scale times their variable.
func InitialState(alg *da.Config, nominal []float64, scale float64) (vspace.Vector[da.DA], error) {
	x := vspace.Vector[da.DA](alg.Vector(nominal...))
	for i := 0; i < len(x) && i < alg.Vars(); i++ {
		x[i] = x[i].Add(alg.Var(i + 1).Scale(scale))
	}
	if err := vspace.CheckAlgebra(x); err != nil {
		return nil, err
	}
	return x, nil
}

func applyParams(sys dynamo.Configurable, params map[string]float64) error {
	for name, v := range params {
		if err := sys.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

func integrate[T any, A vspace.Algebra[T]](ctx context.Context, cfg *config.Config, alg A, sys dynamo.System[T], x *vspace.Vector[T], obs dynamo.Observer[T]) (dynamo.Stats, error) {
	dcfg := cfg.Dynamo()
	switch cfg.Integrator {
	case "rk4":
		return integrators.IntegrateConst[T](ctx, integrators.NewRK4[T](alg), sys, x, dcfg, obs)
	case "euler":
		return integrators.IntegrateConst[T](ctx, integrators.NewEuler[T](alg), sys, x, dcfg, obs)
	default:
		return integrators.IntegrateAdaptive[T](ctx, integrators.NewRK45[T](alg, cfg.AbsTol, cfg.RelTol), sys, x, dcfg, obs)
	}
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model, err := e.registry.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	alg, err := cfg.Algebra()
	if err != nil {
		return nil, err
	}

	sys := model.NewDA()
	if err := applyParams(sys, cfg.Params); err != nil {
		return nil, err
	}

	nominal := cfg.GetInitState(sys.DefaultState())
	if dim := len(sys.DefaultState()); len(nominal) != dim {
		return nil, fmt.Errorf("%w: %s has %d state components, init_state has %d", dynamo.ErrDimensionMismatch, cfg.Model, dim, len(nominal))
	}
	x, err := InitialState(alg, nominal, cfg.Scale)
	if err != nil {
		return nil, err
	}

	result := &Result{Config: cfg}
	rec := &recorder{result: result, logger: e.logger, progress: e.progress}

	level.Info(e.logger).Log("msg", "integrating", "integrator", cfg.Integrator, "t0", cfg.T0, "t1", cfg.T1, "monomials", alg.Size())
	start := time.Now()

	result.Stats, err = integrate[da.DA](ctx, cfg, vspace.DA{}, sys, &x, rec)
	result.Elapsed = time.Since(start)
	result.Final = x
	if err == nil && !dynamo.IsValid[da.DA](vspace.DA{}, x) {
		err = fmt.Errorf("%w: final state at t=%g", dynamo.ErrInvalidState, result.Stats.Time)
	}
	if err != nil {
		level.Error(e.logger).Log("msg", "integration failed", "err", err)
		return result, err
	}

	level.Info(e.logger).Log("msg", "integration complete", "steps", result.Stats.Steps, "rejected", result.Stats.Rejected, "evaluations", result.Stats.Evaluations, "elapsed", result.Elapsed)

	if cfg.Reference {
		if err := e.runReference(ctx, model, nominal, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (e *Experiment) runReference(ctx context.Context, model Model, nominal []float64, result *Result) error {
	sys := model.NewFloat()
	if err := applyParams(sys, e.cfg.Params); err != nil {
		return err
	}

	x := vspace.Vector[float64](nominal).Clone()
	stats, err := integrate[float64](ctx, e.cfg, vspace.Float64{}, sys, &x, nil)
	if err != nil {
		return fmt.Errorf("reference run: %w", err)
	}

	result.Reference = x
	result.ReferenceStats = stats
	result.Deviation = NominalDeviation(result.Final, x)

	level.Info(e.logger).Log("msg", "reference complete", "steps", stats.Steps, "deviation", result.Deviation)
	return nil
}

// NominalDeviation is the largest absolute difference between the nominal
// parts of x and a plain state.
func NominalDeviation(x vspace.Vector[da.DA], ref []float64) float64 {
	dev := 0.0
	for i := range x {
		if i >= len(ref) {
			break
		}
		dev = math.Max(dev, math.Abs(x[i].Cons()-ref[i]))
	}
	return dev
}

// FinalNominal returns the nominal part of the final state.
func (r *Result) FinalNominal() []float64 {
	out := make([]float64, len(r.Final))
	for i, v := range r.Final {
		out[i] = v.Cons()
	}
	return out
}
