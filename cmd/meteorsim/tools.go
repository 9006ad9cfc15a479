package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/meteorsim/internal/automation"
	"github.com/san-kum/meteorsim/internal/catalog"
	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/experiment"
	"github.com/san-kum/meteorsim/internal/export"
	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/optim"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/storage"
)

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	impacts, err := st.LoadImpacts(runID)
	if err != nil {
		return err
	}

	opts := export.DefaultSVGOptions(physics.EarthRadius)
	opts.Size = svgSize
	return export.TrajectorySVG(os.Stdout, samples, impacts, opts)
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required (available: %s)", strings.Join(optim.Parameters(), ", "))
	}
	name, base, err := scenario(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger(base.Log)

	params := make([]optim.Param, 0, len(sweepParams))
	for _, raw := range sweepParams {
		p, err := optim.ParseParam(raw)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	reg := experiment.NewRegistry()
	build := func(values map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for k, v := range values {
			if err := optim.Apply(cfg, k, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(cfg, reg, logging.Noop())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("sweep started", logging.String("scenario", name), logging.String("metric", sweepMetric))
	points, best, err := optim.NewGridSearch(params, maximize).Search(ctx, build, sweepMetric)
	if err != nil {
		return err
	}

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for _, p := range points {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", p.Params[n])
		}
		fmt.Fprintf(w, "%.6g\n", p.Value)
	}
	w.Flush()

	fmt.Printf("\nbest %s = %.6g at", sweepMetric, best.Value)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best.Params[n])
	}
	fmt.Println()
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	batch, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	log := newLogger(config.DefaultConfig().Log).With(logging.String("batch", batch.Name))

	var save automation.SaveFunc
	if saveBatch {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		cat, err := catalog.Open(filepath.Join(dataDir, catalogFile))
		if err != nil {
			return err
		}
		defer cat.Close()

		save = func(name string, cfg *config.Config, result *experiment.Result) (string, error) {
			runID, err := st.Save(name, cfg, result)
			if err != nil {
				return "", err
			}
			return runID, cat.Record(cmd.Context(), runID, result.Impacts)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunBatch(ctx, batch, experiment.NewRegistry(), log, save)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tSTEPS\tIMPACTS\tREMAINING\tMAX ENERGY (J)\tMETRICS")
	for _, r := range results {
		keys := make([]string, 0, len(r.Result.Metrics))
		for k := range r.Result.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		metrics := make([]string, len(keys))
		for i, k := range keys {
			metrics[i] = fmt.Sprintf("%s=%.3g", k, r.Result.Metrics[k])
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.3g\t%s\n", r.Name, r.RunID, r.Result.StepsTaken,
			len(r.Result.Impacts), r.Result.Remaining, r.Result.Stats.MaxEnergy, strings.Join(metrics, " "))
	}
	w.Flush()
	return err
}
