package vspace

import (
	"fmt"

	"github.com/san-kum/daprop/internal/da"
)

// Vector is an ordered, resizable sequence of elements. For DA elements
// every entry must share one algebra; see [CheckAlgebra].
type Vector[T any] []T

// Resizer is implemented by containers whose length can change after
// construction.
type Resizer interface {
	Resize(n int)
}

var (
	_ Resizer = (*Vector[float64])(nil)
	_ Resizer = (*Vector[da.DA])(nil)
)

// IsResizeable reports whether *V can be resized. The answer depends only
// on the method set of V, so callers evaluate it once per type.
func IsResizeable[V any]() bool {
	_, ok := any((*V)(nil)).(Resizer)
	return ok
}

func (v Vector[T]) Len() int { return len(v) }

// Resize changes the length to n, keeping the first min(len, n) elements.
// New slots hold the zero value of T.
func (v *Vector[T]) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n <= cap(*v) {
		old := len(*v)
		*v = (*v)[:n]
		var zero T
		for i := old; i < n; i++ {
			(*v)[i] = zero
		}
		return
	}
	grown := make(Vector[T], n)
	copy(grown, *v)
	*v = grown
}

func (v Vector[T]) Clone() Vector[T] {
	c := make(Vector[T], len(v))
	copy(c, v)
	return c
}

// CheckAlgebra reports whether every element of v belongs to one algebra.
// Detached zero elements are accepted. It is meant for vector construction
// boundaries; the capability functions never call it.
func CheckAlgebra(v Vector[da.DA]) error {
	var ref *da.Config
	for _, x := range v {
		cfg := x.Config()
		if cfg == nil {
			continue
		}
		if ref == nil {
			ref = cfg
			continue
		}
		if !ref.Compatible(cfg) {
			return fmt.Errorf("%w: %s and %s", da.ErrConfigMismatch, ref, cfg)
		}
	}
	return nil
}
