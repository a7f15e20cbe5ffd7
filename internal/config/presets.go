package config

import "sort"

var Presets = map[string]map[string]*Config{
	"lorenz": {
		"classic": {
			Model: "lorenz", Integrator: "rk45", Order: 8, Vars: 3, Magnitude: "max", Scale: 0.1,
			T1: 10, Dt: 0.1, AbsTol: 1e-10, RelTol: 1e-10, MaxSteps: DefaultMaxSteps, Reference: true,
			InitState: []float64{10, 5, 5},
		},
		"nominal": {
			Model: "lorenz", Integrator: "rk45", Order: 8, Vars: 3, Magnitude: "nominal", Scale: 0.1,
			T1: 10, Dt: 0.1, AbsTol: 1e-10, RelTol: 1e-10, MaxSteps: DefaultMaxSteps, Reference: true,
			InitState: []float64{10, 5, 5},
		},
		"linear": {
			Model: "lorenz", Integrator: "rk45", Order: 1, Vars: 3, Magnitude: "max", Scale: 1e-3,
			T1: 2, Dt: 0.01, AbsTol: 1e-12, RelTol: 1e-12, MaxSteps: DefaultMaxSteps, Reference: true,
			InitState: []float64{10, 5, 5},
		},
	},
	"rossler": {
		"spiral": {
			Model: "rossler", Integrator: "rk45", Order: 4, Vars: 3, Magnitude: "max", Scale: 0.01,
			T1: 50, Dt: 0.1, AbsTol: 1e-10, RelTol: 1e-10, MaxSteps: DefaultMaxSteps, Reference: true,
			InitState: []float64{1, 1, 1},
		},
	},
	"vanderpol": {
		"limit_cycle": {
			Model: "vanderpol", Integrator: "rk45", Order: 4, Vars: 2, Magnitude: "max", Scale: 0.05,
			T1: 20, Dt: 0.1, AbsTol: 1e-10, RelTol: 1e-10, MaxSteps: DefaultMaxSteps, Reference: true,
			InitState: []float64{2, 0}, Params: map[string]float64{"mu": 1.0},
		},
		"stiff": {
			Model: "vanderpol", Integrator: "rk45", Order: 2, Vars: 2, Magnitude: "max", Scale: 0.01,
			T1: 20, Dt: 0.01, AbsTol: 1e-8, RelTol: 1e-8, MaxSteps: DefaultMaxSteps, Reference: true,
			InitState: []float64{2, 0}, Params: map[string]float64{"mu": 10.0},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
