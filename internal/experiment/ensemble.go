package experiment

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/logging"
)

// EnsembleRun is the outcome of one seeded copy of a scenario.
type EnsembleRun struct {
	Seed       int64   `json:"seed"`
	Impacts    int     `json:"impacts"`
	Remaining  int     `json:"remaining"`
	Steps      int     `json:"steps"`
	MeanEnergy float64 `json:"mean_energy"`
	MaxEnergy  float64 `json:"max_energy"`
	PeakBurn   float64 `json:"peak_burn"`
}

type EnsembleSummary struct {
	Runs         int     `json:"runs"`
	TotalImpacts int     `json:"total_impacts"`
	MeanImpacts  float64 `json:"mean_impacts"`
	MeanEnergy   float64 `json:"mean_energy"`
	MaxEnergy    float64 `json:"max_energy"`
	MeanPeakBurn float64 `json:"mean_peak_burn"`
}

// RunEnsemble runs numRuns copies of cfg with seeds cfg.Seed, cfg.Seed+1,
// ... on up to workers goroutines. Every copy owns its own Simulation.
func RunEnsemble(ctx context.Context, cfg *config.Config, reg *Registry, numRuns, workers int, log logging.Logger) ([]EnsembleRun, EnsembleSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, EnsembleSummary{}, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "experiment.RunEnsemble")
	span.SetAttributes(attribute.Int("runs", numRuns), attribute.Int("workers", workers))
	defer span.End()

	ens := dynamo.NewEnsemble[EnsembleRun](numRuns, cfg.Seed, workers)
	runs, err := ens.Run(ctx, func(ctx context.Context, seed int64) (EnsembleRun, error) {
		c := cfg.Clone()
		c.Seed = seed
		c.SampleEvery = 0

		exp, err := New(c, reg, logging.Noop())
		if err != nil {
			return EnsembleRun{}, err
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return EnsembleRun{}, err
		}

		run := EnsembleRun{
			Seed:       seed,
			Impacts:    len(res.Impacts),
			Remaining:  res.Remaining,
			Steps:      res.StepsTaken,
			MeanEnergy: res.Metrics["impact_energy_mean"],
			MaxEnergy:  res.Stats.MaxEnergy,
			PeakBurn:   res.Metrics["peak_burn"],
		}
		if log != nil {
			log.Debug("ensemble run done", logging.Any("seed", seed), logging.Int("impacts", run.Impacts))
		}
		return run, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, EnsembleSummary{}, err
	}

	return runs, Summarize(runs), nil
}

// Summarize aggregates ensemble runs. The mean energy is weighted by impacts.
func Summarize(runs []EnsembleRun) EnsembleSummary {
	sum := EnsembleSummary{Runs: len(runs)}
	if len(runs) == 0 {
		return sum
	}

	var energy, burn float64
	for _, r := range runs {
		sum.TotalImpacts += r.Impacts
		energy += r.MeanEnergy * float64(r.Impacts)
		burn += r.PeakBurn
		sum.MaxEnergy = math.Max(sum.MaxEnergy, r.MaxEnergy)
	}
	sum.MeanImpacts = float64(sum.TotalImpacts) / float64(len(runs))
	sum.MeanPeakBurn = burn / float64(len(runs))
	if sum.TotalImpacts > 0 {
		sum.MeanEnergy = energy / float64(sum.TotalImpacts)
	}
	return sum
}
