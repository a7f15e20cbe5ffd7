package experiment

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/daprop/internal/da"
	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/vspace"
)

// Progress is a snapshot of a running propagation. Nominal is shared with
// the recorded trajectory and must not be modified.
type Progress struct {
	T        float64
	Steps    int
	Rejected int
	Nominal  []float64
}

// recorder keeps the nominal trajectory of a DA run and counts rejections.
type recorder struct {
	result   *Result
	logger   log.Logger
	progress func(Progress)

	steps    int
	rejected int
}

var (
	_ dynamo.Observer[da.DA] = (*recorder)(nil)
	_ dynamo.RejectObserver  = (*recorder)(nil)
)

func (r *recorder) OnStep(x vspace.Vector[da.DA], t float64) {
	row := make([]float64, len(x))
	for i, v := range x {
		row[i] = v.Cons()
	}
	r.result.Times = append(r.result.Times, t)
	r.result.Nominal = append(r.result.Nominal, row)

	if r.steps > 0 && r.steps%progressEvery == 0 {
		level.Debug(r.logger).Log("msg", "progress", "step", r.steps, "t", t, "rejected", r.rejected)
	}
	if r.progress != nil {
		r.progress(Progress{T: t, Steps: r.steps, Rejected: r.rejected, Nominal: row})
	}
	r.steps++
}

func (r *recorder) OnReject(_, _ float64) { r.rejected++ }
