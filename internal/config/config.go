package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/daprop/internal/da"
	"github.com/san-kum/daprop/internal/dynamo"
)

const (
	DefaultModel      = "lorenz"
	DefaultIntegrator = "rk45"
	DefaultOrder      = 8
	DefaultVars       = 3
	DefaultScale      = 0.1
	DefaultT1         = 10.0
	DefaultDt         = 0.1
	DefaultTol        = 1e-10
	DefaultMaxSteps   = 1_000_000
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Model      string             `yaml:"model"`
	Integrator string             `yaml:"integrator"`
	Order      int                `yaml:"order"`
	Vars       int                `yaml:"vars"`
	Magnitude  string             `yaml:"magnitude"`
	Scale      float64            `yaml:"scale"`
	T0         float64            `yaml:"t0"`
	T1         float64            `yaml:"t1"`
	Dt         float64            `yaml:"dt"`
	AbsTol     float64            `yaml:"abs_tol"`
	RelTol     float64            `yaml:"rel_tol"`
	MaxSteps   int                `yaml:"max_steps"`
	Reference  bool               `yaml:"reference"`
	InitState  []float64          `yaml:"init_state,omitempty"`
	Params     map[string]float64 `yaml:"params,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		Order:      DefaultOrder,
		Vars:       DefaultVars,
		Magnitude:  da.MagnitudeMax.String(),
		Scale:      DefaultScale,
		T1:         DefaultT1,
		Dt:         DefaultDt,
		AbsTol:     DefaultTol,
		RelTol:     DefaultTol,
		MaxSteps:   DefaultMaxSteps,
		Reference:  true,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Integrator {
	case "rk45", "rk4", "euler":
	default:
		return fmt.Errorf("%w: unknown integrator %q", ErrInvalid, c.Integrator)
	}
	if _, err := da.ParseMagnitude(c.Magnitude); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Order < 1 || c.Vars < 1 {
		return fmt.Errorf("%w: order and vars must be positive, got %d and %d", ErrInvalid, c.Order, c.Vars)
	}
	if err := c.Dynamo().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Algebra builds the DA configuration the run's elements share.
func (c *Config) Algebra() (*da.Config, error) {
	mag, err := da.ParseMagnitude(c.Magnitude)
	if err != nil {
		return nil, err
	}
	return da.NewConfig(c.Order, c.Vars, da.WithMagnitude(mag))
}

func (c *Config) Dynamo() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.T0, cfg.T1, cfg.Dt = c.T0, c.T1, c.Dt
	cfg.AbsTol, cfg.RelTol = c.AbsTol, c.RelTol
	cfg.MaxSteps = c.MaxSteps
	return cfg
}

// GetInitState returns the configured nominal state, or defaults when none is set.
func (c *Config) GetInitState(defaults []float64) []float64 {
	src := c.InitState
	if len(src) == 0 {
		src = defaults
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

func (c *Config) Clone() *Config {
	cp := *c
	cp.InitState = append([]float64(nil), c.InitState...)
	if c.Params != nil {
		cp.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			cp.Params[k] = v
		}
	}
	return &cp
}
