package experiment

import (
	"context"
	"sync"
)

// Sweep runs several configurations concurrently, one experiment per
// goroutine. Results keep the order of the experiments.
type Sweep struct {
	experiments []*Experiment
}

func NewSweep(exps ...*Experiment) *Sweep {
	return &Sweep{experiments: exps}
}

func (s *Sweep) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(s.experiments))
	errs := make([]error, len(s.experiments))

	var wg sync.WaitGroup
	for i, exp := range s.experiments {
		wg.Add(1)
		go func(idx int, exp *Experiment) {
			defer wg.Done()
			results[idx], errs[idx] = exp.Run(ctx)
		}(i, exp)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
