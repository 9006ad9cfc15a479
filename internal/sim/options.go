package sim

import (
	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/physics"
)

// Option configures a Simulation.
type Option func(*Simulation)

// WithIntegrator selects the stepping scheme. The default is semi-implicit Euler.
func WithIntegrator(integ dynamo.Integrator) Option {
	return func(s *Simulation) {
		if integ != nil {
			s.integrator = integ
		}
	}
}

// WithAtmosphere replaces the standard atmosphere. A nil atmosphere is a
// vacuum: no drag and no burning.
func WithAtmosphere(atm *physics.Atmosphere) Option {
	return func(s *Simulation) {
		s.atmosphere = atm
	}
}

// WithPrimary replaces the primary body.
func WithPrimary(primary physics.Attractor) Option {
	return func(s *Simulation) {
		s.primary = primary
	}
}

// WithSecondary adds attractors that pull on bodies but are never impact targets.
func WithSecondary(attractors ...physics.Attractor) Option {
	return func(s *Simulation) {
		s.secondaries = append(s.secondaries, attractors...)
	}
}

func WithLogger(log logging.Logger) Option {
	return func(s *Simulation) {
		if log != nil {
			s.log = log
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Simulation) {
		s.AddObserver(o)
	}
}

func WithMetric(m Metric) Option {
	return func(s *Simulation) {
		s.AddMetric(m)
	}
}
