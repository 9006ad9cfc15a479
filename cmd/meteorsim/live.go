package main

import (
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/experiment"
	"github.com/san-kum/meteorsim/internal/sim"
	"github.com/san-kum/meteorsim/internal/viz"
)

func runLive(cmd *cobra.Command, args []string) error {
	name, cfg, err := scenario(cmd, args)
	if err != nil {
		return err
	}
	// the TUI owns the terminal; keep logs quiet unless asked for
	if cfg.Log.Level == "" || cfg.Log.Level == "info" {
		cfg.Log.Level = "error"
	}
	log := newLogger(cfg.Log)

	s, err := experiment.NewSimulation(cfg, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	shower := spawnShower(cfg)

	return viz.Run(s, viz.Options{
		Title:     name,
		Dt:        cfg.Dt,
		TimeScale: cfg.TimeScale,
		Log:       log,
		Initial: func() []sim.BodySpec {
			specs := append([]sim.BodySpec(nil), cfg.Bodies...)
			return append(specs, experiment.ShowerSpecs(rng, s.Primary(), cfg.Shower)...)
		},
		Spawn: func() sim.BodySpec {
			return experiment.ShowerBody(rng, s.Primary(), shower)
		},
	})
}

// spawnShower returns the shower used for on-demand spawns, falling back to
// the shower preset when the scenario has none.
func spawnShower(cfg *config.Config) config.ShowerConfig {
	if cfg.Shower.SizeMax > 0 || cfg.Shower.SizeMin > 0 {
		return cfg.Shower
	}
	return config.GetPreset("shower").Shower
}
