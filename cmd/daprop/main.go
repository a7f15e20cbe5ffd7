package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/san-kum/daprop/internal/analysis"
	"github.com/san-kum/daprop/internal/config"
	"github.com/san-kum/daprop/internal/experiment"
	"github.com/san-kum/daprop/internal/storage"
	"github.com/san-kum/daprop/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string

	integrator  string
	order       int
	vars        int
	magnitude   string
	scale       float64
	t1          float64
	dt          float64
	absTol      float64
	relTol      float64
	params      map[string]string
	noReference bool
	printFinal  bool

	orders  []int
	pngPath string
	outPath string

	logger log.Logger
)

func newLogger(debug bool) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = log.With(l, "ts", log.DefaultTimestampUTC)
	allow := level.AllowInfo()
	if debug {
		allow = level.AllowDebug()
	}
	return level.NewFilter(l, allow)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "daprop",
		Short:         "propagate uncertain initial states through ODEs with differential algebra",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".daprop", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "propagate a DA state and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runPropagation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&printFinal, "print-final", false, "print the final DA state")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run one propagation per DA order concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().IntSliceVar(&orders, "orders", []int{1, 2, 4, 8}, "DA orders to sweep")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "propagate with a live terminal view, then store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarize a run and print its final DA state",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the nominal trajectory of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "also write a PNG to this path")

	exportCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list presets for a model",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for %s\n", args[0])
				return
			}
			for _, p := range presets {
				fmt.Println(p)
			}
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range experiment.NewRegistry().ListModels() {
				fmt.Println(m)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, listCmd, showCmd, plotCmd, exportCmd, presetsCmd, modelsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusFail.Render("error:"), err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&integrator, "integrator", defaults.Integrator, "integrator (rk45, rk4, euler)")
	f.IntVar(&order, "order", defaults.Order, "DA truncation order")
	f.IntVar(&vars, "vars", defaults.Vars, "number of DA variables")
	f.StringVar(&magnitude, "magnitude", defaults.Magnitude, "element magnitude for error control (max, nominal)")
	f.Float64Var(&scale, "scale", defaults.Scale, "initial perturbation scale")
	f.Float64Var(&t1, "time", defaults.T1, "end time")
	f.Float64Var(&dt, "dt", defaults.Dt, "initial or fixed step")
	f.Float64Var(&absTol, "abs-tol", defaults.AbsTol, "absolute tolerance")
	f.Float64Var(&relTol, "rel-tol", defaults.RelTol, "relative tolerance")
	f.StringToStringVar(&params, "param", nil, "model parameter overrides (name=value)")
	f.BoolVar(&noReference, "no-reference", false, "skip the float64 reference run")
}

// buildConfig layers defaults, preset, config file and explicit flags, in that order.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.Model = model

	f := cmd.Flags()
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("order") {
		cfg.Order = order
	}
	if f.Changed("vars") {
		cfg.Vars = vars
	}
	if f.Changed("magnitude") {
		cfg.Magnitude = magnitude
	}
	if f.Changed("scale") {
		cfg.Scale = scale
	}
	if f.Changed("time") {
		cfg.T1 = t1
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("abs-tol") {
		cfg.AbsTol = absTol
	}
	if f.Changed("rel-tol") {
		cfg.RelTol = relTol
	}
	if noReference {
		cfg.Reference = false
	}

	if len(params) > 0 && cfg.Params == nil {
		cfg.Params = make(map[string]float64, len(params))
	}
	for name, raw := range params {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		cfg.Params[name] = v
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runPropagation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := experiment.New(cfg, experiment.WithLogger(logger)).Run(ctx)
	if err != nil {
		return err
	}

	runID, err := st.Save(result)
	if err != nil {
		return err
	}

	printSummary(runID, result)
	if printFinal {
		for i, x := range result.Final {
			fmt.Printf("\nx%d:\n%s", i, x)
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Intermediate frames are dropped while the view is busy; the final one is not.
	updates := make(chan tea.Msg, 1)
	exp := experiment.New(cfg, experiment.WithProgress(func(p experiment.Progress) {
		u := viz.LiveUpdate{T: p.T, Steps: p.Steps, Rejected: p.Rejected, Nominal: append([]float64(nil), p.Nominal...)}
		select {
		case updates <- u:
		default:
		}
	}))

	var result *experiment.Result
	var runErr error
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer close(updates)
		result, runErr = exp.Run(ctx)

		done := viz.LiveDone{Err: runErr}
		if runErr == nil {
			s := result.Stats
			done.Final = viz.LiveUpdate{T: s.Time, Steps: s.Steps, Rejected: s.Rejected, Nominal: result.FinalNominal()}
		}
		select {
		case updates <- done:
		case <-ctx.Done():
		}
	}()

	title := fmt.Sprintf("%s  order %d  %s", cfg.Model, cfg.Order, cfg.Magnitude)
	if _, err := tea.NewProgram(viz.NewLive(title, cfg.T0, cfg.T1, updates, cancel)).Run(); err != nil {
		cancel()
		<-finished
		return err
	}
	cancel()
	<-finished

	if errors.Is(runErr, context.Canceled) {
		fmt.Println(viz.Subtle.Render("canceled, run not stored"))
		return nil
	}
	if runErr != nil {
		return runErr
	}

	runID, err := st.Save(result)
	if err != nil {
		return err
	}
	printSummary(runID, result)
	return nil
}

func printSummary(runID string, r *experiment.Result) {
	lines := []string{
		viz.Title.Render(runID),
		viz.Metric("steps", r.Stats.Steps),
		viz.Metric("rejected", r.Stats.Rejected),
		viz.Metric("evaluations", r.Stats.Evaluations),
		viz.Metric("elapsed", r.Elapsed),
		viz.Metric("final", fmt.Sprintf("%.10g", r.FinalNominal())),
	}
	if r.Reference != nil {
		lines = append(lines, viz.Metric("deviation", fmt.Sprintf("%.3e", r.Deviation)))
	}
	if lambda, err := analysis.LyapunovExponent(r.Final, r.Config.Scale, r.Config.T1-r.Config.T0); err == nil {
		lines = append(lines, viz.Metric("lyapunov", fmt.Sprintf("%.4f", lambda)))
	}
	fmt.Println(viz.Panel.Render(strings.Join(lines, "\n")))
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exps := make([]*experiment.Experiment, 0, len(orders))
	for _, o := range orders {
		cfg := base.Clone()
		cfg.Order = o
		if err := cfg.Validate(); err != nil {
			return err
		}
		exps = append(exps, experiment.New(cfg, experiment.WithLogger(logger)))
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := experiment.NewSweep(exps...).Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tRUN\tSTEPS\tREJECTED\tELAPSED\tDEVIATION")
	for _, r := range results {
		runID, err := st.Save(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%v\t%.3e\n", r.Config.Order, runID, r.Stats.Steps, r.Stats.Rejected, r.Elapsed, r.Deviation)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tINTEG\tORDER\tMAG\tSTEPS\tT1")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%g\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Integrator,
			run.Order,
			run.Magnitude,
			run.Steps,
			run.T1,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	final, err := st.LoadFinal(args[0])
	if err != nil {
		return err
	}

	lines := []string{
		viz.Title.Render(meta.ID),
		viz.Metric("model", meta.Model),
		viz.Metric("algebra", fmt.Sprintf("order %d, %d vars, %s", meta.Order, meta.Vars, meta.Magnitude)),
		viz.Metric("interval", fmt.Sprintf("[%g, %g] dt0=%g", meta.T0, meta.T1, meta.Dt)),
		viz.Metric("tolerance", fmt.Sprintf("abs %g rel %g", meta.AbsTol, meta.RelTol)),
		viz.Metric("steps", fmt.Sprintf("%d (%d rejected)", meta.Steps, meta.Rejected)),
	}
	if meta.Deviation != nil {
		lines = append(lines, viz.Metric("deviation", fmt.Sprintf("%.3e", *meta.Deviation)))
	}
	if lambda, err := analysis.LyapunovExponent(final, meta.Scale, meta.T1-meta.T0); err == nil {
		lines = append(lines, viz.Metric("lyapunov", fmt.Sprintf("%.4f", lambda)))
	}
	for i, x := range final {
		lines = append(lines, viz.Metric(fmt.Sprintf("x%d", i), viz.Sparkline(viz.Series(states, i), 40)))
		lines = append(lines, viz.Metric("", viz.Subtle.Render(fmt.Sprintf("order profile %.2e", analysis.OrderProfile(x)))))
	}
	fmt.Println(viz.Panel.Render(strings.Join(lines, "\n")))

	for i, x := range final {
		fmt.Printf("\n%s\n%s", viz.Subtle.Render(fmt.Sprintf("x%d", i)), x)
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(states))

	for _, g := range viz.PlotASCII(states, nil, 6) {
		fmt.Println(g)
		fmt.Println()
	}

	if pngPath != "" {
		title := fmt.Sprintf("%s (order %d)", meta.Model, meta.Order)
		if err := viz.SavePNG(pngPath, title, times, states, nil); err != nil {
			return err
		}
		level.Info(logger).Log("msg", "wrote plot", "path", pngPath)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) (err error) {
	data, err := storage.New(dataDir).Export(args[0])
	if err != nil {
		return err
	}

	if outPath == "" {
		return storage.ExportJSON(os.Stdout, data)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return storage.ExportJSON(f, data)
}
