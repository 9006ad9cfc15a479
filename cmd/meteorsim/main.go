package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/meteorsim/internal/catalog"
	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/events"
	"github.com/san-kum/meteorsim/internal/experiment"
	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/observability"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/storage"
)

const catalogFile = "impacts.db"

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	dt         float64
	duration   float64
	timeScale  float64
	seed       int64
	integrator string
	vacuum     bool
	moon       bool
	count      int
	// ensemble
	numRuns int
	workers int
	// impacts
	runFilter string
	minEnergy float64
	limit     int
	// atmosphere table step in km
	altStep float64
	// tracing
	traceExporter string
	shutdownTrace func(context.Context) error
	// serve
	addr         string
	redisAddr    string
	redisChannel string
	consulAddr   string
	// sweep
	sweepParams []string
	sweepMetric string
	maximize    bool
	// batch
	saveBatch bool
	// export-svg
	svgSize int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "meteorsim",
		Short:        "meteor entry and impact simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := observability.TracingConfigFromEnv()
			if traceExporter != "" {
				cfg.Enabled = true
				cfg.Exporter = traceExporter
			}
			var err error
			shutdownTrace, err = observability.InitTracing(cmd.Context(), cfg, newLogger(config.DefaultConfig().Log))
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.ShutdownWithTimeout(context.Background(), shutdownTrace, nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".meteorsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace", "", "enable tracing with this exporter (stdout, otlp)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot altitude and speed of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export sampled trajectories as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a full run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tINTEGRATOR\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.Presets[name]
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.Integrator, p.Description)
			}
			w.Flush()
		},
	}

	atmosphereCmd := &cobra.Command{
		Use:   "atmosphere",
		Short: "print the standard atmosphere",
		RunE:  printAtmosphere,
	}
	atmosphereCmd.Flags().Float64Var(&altStep, "step", 25, "altitude step in km")

	impactsCmd := &cobra.Command{
		Use:   "impacts",
		Short: "query the impact catalog",
		RunE:  listImpacts,
	}
	impactsCmd.Flags().StringVar(&runFilter, "run", "", "only impacts of this run")
	impactsCmd.Flags().Float64Var(&minEnergy, "min-energy", 0, "minimum impact energy in J")
	impactsCmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "run seeded copies of a scenario in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addScenarioFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of runs")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all CPUs)")

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "run a continuous shower and expose Prometheus metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serve,
	}
	addScenarioFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":9090", "metrics listen address")
	serveCmd.Flags().StringVar(&redisAddr, "redis", "", "publish impacts to this Redis server")
	serveCmd.Flags().StringVar(&redisChannel, "redis-channel", events.DefaultChannel, "Redis channel for impacts")
	serveCmd.Flags().StringVar(&consulAddr, "consul", "", "register with this Consul agent")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export trajectories and impacts as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image size in px")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search over scenario parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "swept parameter, name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "impacts", "metric to rank by")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "rank by the largest metric value")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run the scenarios listed in a batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&saveBatch, "save", true, "store every step as a run")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		liveCmd, presetsCmd, atmosphereCmd, impactsCmd, ensembleCmd, serveCmd, sweepCmd, batchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "frame interval in seconds")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration in seconds")
	cmd.Flags().Float64Var(&timeScale, "time-scale", config.DefaultTimeScale, "time scale")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (euler, verlet, rk4)")
	cmd.Flags().BoolVar(&vacuum, "vacuum", false, "disable the atmosphere")
	cmd.Flags().BoolVar(&moon, "moon", false, "add the Moon as a secondary attractor")
	cmd.Flags().IntVar(&count, "count", 0, "shower size")
}

// scenario resolves the config for a command: preset, then file, then flags.
func scenario(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	name := "single"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return "", nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(config.ListPresets(), ", "))
	}

	if configFile != "" {
		var err error
		cfg, err = config.LoadOver(configFile, cfg)
		if err != nil {
			return "", nil, err
		}
		if len(args) == 0 {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("time-scale") {
		cfg.TimeScale = timeScale
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("vacuum") {
		cfg.Vacuum = vacuum
	}
	if flags.Changed("moon") {
		cfg.Moon = moon
	}
	if flags.Changed("count") {
		cfg.Shower.Count = count
	}

	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return name, cfg, nil
}

func newLogger(cfg logging.Config) logging.Logger {
	if logLevel != "" {
		cfg.Level = logLevel
	}
	if logFormat != "" {
		cfg.Format = logFormat
	}
	return logging.New(logging.FromEnv(cfg))
}

func runScenario(cmd *cobra.Command, args []string) error {
	name, cfg, err := scenario(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s scenario...\n", name)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}

	cat, err := catalog.Open(filepath.Join(dataDir, catalogFile))
	if err != nil {
		return err
	}
	defer cat.Close()
	if err := cat.Record(ctx, runID, result.Impacts); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("impacts: %d (%d still in flight)\n", len(result.Impacts), result.Remaining)
	if result.Stats.Impacts > 0 {
		fmt.Printf("energy: total %.4g J, max %.4g J (%.4g Mt TNT)\n",
			result.Stats.TotalEnergy, result.Stats.MaxEnergy, physics.TNTMegatons(result.Stats.MaxEnergy))
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tINTEGRATOR\tSPAWNED\tIMPACTS\tMAX ENERGY (J)\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3g\t%s\n",
			run.ID, run.Scenario, run.Integrator, run.Spawned, run.Impacts, run.MaxEnergy,
			run.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run:\t%s\n", meta.ID)
	fmt.Fprintf(w, "scenario:\t%s\n", meta.Scenario)
	fmt.Fprintf(w, "integrator:\t%s\n", meta.Integrator)
	fmt.Fprintf(w, "dt:\t%g s x %g\n", meta.Dt, meta.TimeScale)
	fmt.Fprintf(w, "duration:\t%g s\n", meta.Duration)
	fmt.Fprintf(w, "seed:\t%d\n", meta.Seed)
	fmt.Fprintf(w, "atmosphere:\t%t\n", !meta.Vacuum)
	fmt.Fprintf(w, "moon:\t%t\n", meta.Moon)
	fmt.Fprintf(w, "spawned:\t%d\n", meta.Spawned)
	fmt.Fprintf(w, "steps:\t%d\n", meta.Steps)
	fmt.Fprintf(w, "impacts:\t%d\n", meta.Impacts)
	fmt.Fprintf(w, "remaining:\t%d\n", meta.Remaining)
	fmt.Fprintf(w, "rejected updates:\t%d\n", meta.Rejected)
	fmt.Fprintf(w, "total energy:\t%.4g J\n", meta.TotalEnergy)
	fmt.Fprintf(w, "max energy:\t%.4g J\n", meta.MaxEnergy)
	for name, val := range meta.Metrics {
		fmt.Fprintf(w, "%s:\t%.6g\n", name, val)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no samples in run %s", runID)
	}

	// plot the first body; showers have too many to overlay
	body := samples[0].ID
	var altitude, speed []float64
	for _, s := range samples {
		if s.ID != body {
			continue
		}
		altitude = append(altitude, s.Altitude/1000)
		speed = append(speed, s.Speed/1000)
	}

	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("body: %d (%d samples)\n\n", body, len(altitude))

	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{altitude, "altitude (km)"},
		{speed, "speed (km/s)"},
	} {
		if len(series.data) < 2 {
			continue
		}
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportCSV(os.Stdout, args[0])
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func printAtmosphere(cmd *cobra.Command, args []string) error {
	if altStep <= 0 {
		return fmt.Errorf("step must be positive, got %g", altStep)
	}
	atm := physics.StandardAtmosphere()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ALT (km)\tDENSITY (kg/m³)\tPRESSURE (Pa)\tTEMP (K)\tWIND (m/s)\t")
	top := atm.MaxAltitude() + altStep*1000
	for h := 0.0; h <= top; h += altStep * 1000 {
		c := atm.At(h)
		fmt.Fprintf(w, "%.0f\t%.4g\t%.4g\t%.2f\t%.0f\t\n", h/1000, c.Density, c.Pressure, c.Temperature, c.Wind)
	}
	return w.Flush()
}

func listImpacts(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Open(filepath.Join(dataDir, catalogFile))
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx := cmd.Context()
	entries, err := cat.List(ctx, catalog.Filter{RunID: runFilter, MinEnergy: minEnergy, Limit: limit})
	if err != nil {
		return err
	}
	sum, err := cat.Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d impacts across %d runs, mean %.3g J, max %.3g J\n\n", sum.Impacts, sum.Runs, sum.MeanEnergy, sum.MaxEnergy)
	if len(entries) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tBODY\tTIME (s)\tLAT\tLON\tSPEED (km/s)\tENERGY (J)\tTNT (Mt)")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.2f\t%.2f\t%.2f\t%.3g\t%.3g\n",
			e.RunID, e.BodyID, e.Time, e.Latitude, e.Longitude, e.Speed/1000, e.Energy, e.TNTMegatons)
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	name, cfg, err := scenario(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d copies of %s...\n", numRuns, name)
	start := time.Now()
	runs, summary, err := experiment.RunEnsemble(ctx, cfg, experiment.NewRegistry(), numRuns, workers, log)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tIMPACTS\tREMAINING\tSTEPS\tMEAN ENERGY (J)\tMAX ENERGY (J)\tPEAK BURN")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.3g\t%.3g\t%.2f\n",
			r.Seed, r.Impacts, r.Remaining, r.Steps, r.MeanEnergy, r.MaxEnergy, r.PeakBurn)
	}
	w.Flush()

	fmt.Printf("\nruns: %d\n", summary.Runs)
	fmt.Printf("impacts: %d (mean %.1f per run)\n", summary.TotalImpacts, summary.MeanImpacts)
	fmt.Printf("mean energy: %.4g J\n", summary.MeanEnergy)
	fmt.Printf("max energy: %.4g J\n", summary.MaxEnergy)
	if !math.IsNaN(summary.MeanPeakBurn) {
		fmt.Printf("mean peak burn: %.3f\n", summary.MeanPeakBurn)
	}
	return nil
}
