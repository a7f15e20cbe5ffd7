package da

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for algebra construction and mixing.
var (
	// ErrInvalidConfig indicates an order or variable count that cannot define an algebra.
	ErrInvalidConfig = errors.New("da: invalid algebra configuration")

	// ErrConfigMismatch indicates operands built from incompatible algebras.
	ErrConfigMismatch = errors.New("da: operands belong to different algebras")
)

// Magnitude selects how a single DA value is reduced to a scalar size.
type Magnitude int

const (
	// MagnitudeMax is the largest absolute coefficient of the expansion.
	MagnitudeMax Magnitude = iota
	// MagnitudeNominal is the absolute value of the constant term only.
	MagnitudeNominal
)

func (m Magnitude) String() string {
	switch m {
	case MagnitudeNominal:
		return "nominal"
	default:
		return "max"
	}
}

// ParseMagnitude maps a config string onto a Magnitude.
func ParseMagnitude(s string) (Magnitude, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max":
		return MagnitudeMax, nil
	case "nominal":
		return MagnitudeNominal, nil
	default:
		return MagnitudeMax, fmt.Errorf("%w: unknown magnitude %q", ErrInvalidConfig, s)
	}
}

type Option func(*Config)

func WithMagnitude(m Magnitude) Option {
	return func(c *Config) { c.mag = m }
}

type product struct{ i, j, k int }

// Config is the algebra every DA value refers to: truncation order,
// number of perturbation variables and the monomial layout they imply.
// A Config is immutable after construction and safe to share.
type Config struct {
	order int
	vars  int
	mag   Magnitude

	exps   [][]int
	degree []int
	index  map[uint64]int
	mul    []product
}

// NewConfig builds the algebra of polynomials in vars variables truncated at order.
func NewConfig(order, vars int, opts ...Option) (*Config, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: order must be at least 1, got %d", ErrInvalidConfig, order)
	}
	if vars < 1 {
		return nil, fmt.Errorf("%w: variable count must be at least 1, got %d", ErrInvalidConfig, vars)
	}

	c := &Config{order: order, vars: vars, index: make(map[uint64]int)}
	for _, opt := range opts {
		opt(c)
	}

	for d := 0; d <= order; d++ {
		c.enumerate(make([]int, vars), 0, d)
	}
	for i, e := range c.exps {
		c.index[c.key(e)] = i
	}
	c.buildProducts()

	return c, nil
}

// MustConfig is NewConfig for static setups; it panics on error.
func MustConfig(order, vars int, opts ...Option) *Config {
	c, err := NewConfig(order, vars, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// enumerate appends every exponent vector of total degree rem starting at
// variable pos, highest power of the first variable first.
func (c *Config) enumerate(e []int, pos, rem int) {
	if pos == c.vars-1 {
		e[pos] = rem
		exp := make([]int, c.vars)
		copy(exp, e)
		c.exps = append(c.exps, exp)
		deg := 0
		for _, p := range exp {
			deg += p
		}
		c.degree = append(c.degree, deg)
		return
	}
	for p := rem; p >= 0; p-- {
		e[pos] = p
		c.enumerate(e, pos+1, rem-p)
	}
	e[pos] = 0
}

func (c *Config) key(e []int) uint64 {
	var k uint64
	base := uint64(c.order + 1)
	for i := len(e) - 1; i >= 0; i-- {
		k = k*base + uint64(e[i])
	}
	return k
}

// buildProducts lists every coefficient pair whose product survives truncation.
// Monomials are graded, so the inner loop stops at the first one that is too high.
func (c *Config) buildProducts() {
	sum := make([]int, c.vars)
	for i, ei := range c.exps {
		for j, ej := range c.exps {
			if c.degree[i]+c.degree[j] > c.order {
				break
			}
			for v := range sum {
				sum[v] = ei[v] + ej[v]
			}
			c.mul = append(c.mul, product{i: i, j: j, k: c.index[c.key(sum)]})
		}
	}
}

func (c *Config) Order() int           { return c.order }
func (c *Config) Vars() int            { return c.vars }
func (c *Config) Magnitude() Magnitude { return c.mag }

// Size is the number of coefficients of one DA value.
func (c *Config) Size() int { return len(c.exps) }

// Exponents returns the exponent vector of monomial i.
func (c *Config) Exponents(i int) []int {
	e := make([]int, c.vars)
	copy(e, c.exps[i])
	return e
}

// Compatible reports whether values of both configs can be mixed.
func (c *Config) Compatible(o *Config) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	return c.order == o.order && c.vars == o.vars && c.mag == o.mag
}

func (c *Config) String() string {
	return fmt.Sprintf("DA(order=%d, vars=%d, magnitude=%s)", c.order, c.vars, c.mag)
}

// Index returns the position of a monomial in coefficient order.
func (c *Config) Index(exps ...int) (int, bool) { return c.indexOf(exps) }

func (c *Config) indexOf(exps []int) (int, bool) {
	if len(exps) > c.vars {
		return 0, false
	}
	e := make([]int, c.vars)
	copy(e, exps)
	deg := 0
	for _, p := range e {
		if p < 0 {
			return 0, false
		}
		deg += p
	}
	if deg > c.order {
		return 0, false
	}
	i, ok := c.index[c.key(e)]
	return i, ok
}
