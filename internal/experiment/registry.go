package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/daprop/internal/da"
	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/physics"
	"github.com/san-kum/daprop/internal/vspace"
)

// Dynamics is what the registry hands out: a configurable system with a
// default nominal state.
type Dynamics[T any] interface {
	dynamo.System[T]
	dynamo.Configurable
	DefaultState() []float64
}

// Model builds the same system over DA states and over float64 states.
type Model struct {
	NewDA    func() Dynamics[da.DA]
	NewFloat func() Dynamics[float64]
}

type Registry struct {
	models map[string]Model
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]Model)}

	r.Register("lorenz", Model{
		NewDA:    func() Dynamics[da.DA] { return physics.NewLorenz[da.DA](vspace.DA{}) },
		NewFloat: func() Dynamics[float64] { return physics.NewLorenz[float64](vspace.Float64{}) },
	})
	r.Register("rossler", Model{
		NewDA:    func() Dynamics[da.DA] { return physics.NewRossler[da.DA](vspace.DA{}) },
		NewFloat: func() Dynamics[float64] { return physics.NewRossler[float64](vspace.Float64{}) },
	})
	r.Register("vanderpol", Model{
		NewDA:    func() Dynamics[da.DA] { return physics.NewVanDerPol[da.DA](vspace.DA{}) },
		NewFloat: func() Dynamics[float64] { return physics.NewVanDerPol[float64](vspace.Float64{}) },
	})

	return r
}

func (r *Registry) Register(name string, m Model) {
	r.models[name] = m
}

func (r *Registry) GetModel(name string) (Model, error) {
	m, ok := r.models[name]
	if !ok {
		return Model{}, fmt.Errorf("unknown model: %s", name)
	}
	return m, nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
