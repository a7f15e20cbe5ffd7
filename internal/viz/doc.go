// Package viz renders stored runs for the terminal and for files.
//
//   - [Series] and [PlotASCII]: nominal trajectories as asciigraph charts
//   - [SavePNG]: the same trajectories as a PNG via gonum plot
//   - [Live]: bubbletea view following a running propagation
//   - [Sparkline] and the lipgloss styles used by the CLI summaries
package viz
