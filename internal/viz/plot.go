package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series extracts component idx of every state, skipping short rows.
func Series(states [][]float64, idx int) []float64 {
	out := make([]float64, 0, len(states))
	for _, s := range states {
		if idx < len(s) {
			out = append(out, s[idx])
		}
	}
	return out
}

// PlotASCII charts one series per component, at most limit of them.
func PlotASCII(states [][]float64, names []string, limit int) []string {
	if len(states) == 0 {
		return nil
	}
	n := min(len(states[0]), limit)

	graphs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		caption := fmt.Sprintf("x%d vs time", i)
		if i < len(names) {
			caption = names[i] + " vs time"
		}
		graphs = append(graphs, asciigraph.Plot(Series(states, i),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
	}
	return graphs
}

// SavePNG draws every component against time into a single PNG file.
func SavePNG(path, title string, times []float64, states [][]float64, names []string) error {
	if len(states) == 0 || len(times) != len(states) {
		return fmt.Errorf("viz: need one time per state, got %d and %d", len(times), len(states))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = "nominal"
	p.Add(plotter.NewGrid())

	for i := range states[0] {
		xys := make(plotter.XYs, 0, len(states))
		for j, s := range states {
			if i < len(s) {
				xys = append(xys, plotter.XY{X: times[j], Y: s[i]})
			}
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)

		name := fmt.Sprintf("x%d", i)
		if i < len(names) {
			name = names[i]
		}
		p.Legend.Add(name, line)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
