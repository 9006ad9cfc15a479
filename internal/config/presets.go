package config

import (
	"sort"

	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

var Presets = map[string]*Config{
	"single": {
		Description: "one 100 m body entering at 20 km/s from 500 km",
		Integrator:  "euler", Dt: DefaultDt, Duration: 60, TimeScale: 1, SampleEvery: 5,
		Bodies: []sim.BodySpec{{
			Position: dynamo.Vec3{Y: physics.EarthRadius + 5},
			Velocity: dynamo.Vec3{Y: -physics.ToUnits(20000)},
			Size:     0.001,
		}},
	},
	"scenario": {
		Description: "reference case: distance 25, inbound 5 units/s, size 0.2",
		Integrator:  "euler", Dt: DefaultDt, Duration: 10, TimeScale: 1, SampleEvery: 1,
		Bodies: []sim.BodySpec{{
			Position: dynamo.Vec3{Y: 25},
			Velocity: dynamo.Vec3{Y: -5},
			Size:     0.2,
		}},
	},
	"shower": {
		Description: "fifty small bodies from random directions",
		Integrator:  "euler", Dt: DefaultDt, Duration: 120, TimeScale: 1, Seed: 42, SampleEvery: 10,
		Shower: ShowerConfig{
			Count: 50, Altitude: 5, Speed: 20000,
			SizeMin: 1e-5, SizeMax: 1e-3, Spread: 0.5,
		},
	},
	"grazing": {
		Description: "sub-orbital body skimming the upper atmosphere",
		Integrator:  "verlet", Dt: DefaultDt, Duration: 6000, TimeScale: 10, SampleEvery: 50,
		Bodies: []sim.BodySpec{{
			Position: dynamo.Vec3{Y: physics.EarthRadius + 1},
			Velocity: dynamo.Vec3{X: physics.ToUnits(7500)},
			Size:     0.0005,
		}},
	},
	"orbit": {
		Description: "circular orbit in a vacuum, checks integrator energy drift",
		Integrator:  "rk4", Dt: 5, Duration: 20000, TimeScale: 1, Vacuum: true, SampleEvery: 20,
		Bodies: []sim.BodySpec{{
			Position: dynamo.Vec3{X: 100},
			Velocity: dynamo.Vec3{Y: physics.CircularSpeed(physics.EarthMass, 100)},
			Size:     0.01,
		}},
	},
	"lunar": {
		Description: "body released between the Earth and the Moon",
		Integrator:  "verlet", Dt: 1, Duration: 60000, TimeScale: 1, Moon: true, SampleEvery: 100,
		Bodies: []sim.BodySpec{{
			Position: dynamo.Vec3{X: 3000},
			Velocity: dynamo.Vec3{X: -physics.ToUnits(10000)},
			Size:     0.002,
		}},
	},
}

// GetPreset returns a copy of a named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	cfg.Log = DefaultConfig().Log
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
