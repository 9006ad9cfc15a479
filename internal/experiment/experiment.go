package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

const tracerName = "github.com/san-kum/meteorsim/internal/experiment"

// Sample is one body's state at a sampled step.
type Sample struct {
	Step int     `json:"step"`
	Time float64 `json:"time"`
	sim.BodyState
}

type Result struct {
	Samples    []Sample           `json:"samples"`
	Impacts    []sim.ImpactEvent  `json:"impacts"`
	Metrics    map[string]float64 `json:"metrics"`
	StepsTaken int                `json:"steps_taken"`
	Remaining  int                `json:"remaining"`
	Stats      sim.Stats          `json:"stats"`
}

type Experiment struct {
	cfg        *config.Config
	simulation *sim.Simulation
	randSource *rand.Rand
	log        logging.Logger
	spawned    bool
}

// New builds the simulation a scenario describes. Bodies are spawned by Run.
func New(cfg *config.Config, reg *Registry, log logging.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	s, err := NewSimulation(cfg, reg, log)
	if err != nil {
		return nil, err
	}
	for _, m := range reg.DefaultMetrics(s.Gravity()) {
		s.AddMetric(m)
	}

	return &Experiment{
		cfg:        cfg,
		simulation: s,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
		log:        log,
	}, nil
}

// NewSimulation returns an empty simulation with the integrator and
// environment of cfg and no metrics attached.
func NewSimulation(cfg *config.Config, reg *Registry, log logging.Logger) (*sim.Simulation, error) {
	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	opts := []sim.Option{
		sim.WithIntegrator(integ),
		sim.WithLogger(log),
	}
	if cfg.Vacuum {
		opts = append(opts, sim.WithAtmosphere(nil))
	}
	if cfg.Moon {
		opts = append(opts, sim.WithSecondary(physics.Moon()))
	}
	return sim.New(opts...), nil
}

// Simulation returns the underlying simulation for adding observers.
func (e *Experiment) Simulation() *sim.Simulation {
	return e.simulation
}

// Spawn places the explicit bodies and then the random shower.
func (e *Experiment) Spawn() error {
	if e.spawned {
		return nil
	}
	specs := append([]sim.BodySpec(nil), e.cfg.Bodies...)
	specs = append(specs, ShowerSpecs(e.randSource, e.simulation.Primary(), e.cfg.Shower)...)
	for i, spec := range specs {
		if _, err := e.simulation.Spawn(spec); err != nil {
			return fmt.Errorf("body %d: %w", i, err)
		}
	}
	e.spawned = true
	return nil
}

// Steps returns how many steps cover the configured duration.
func (e *Experiment) Steps() int {
	h := e.cfg.Dt * sim.ClampTimeScale(e.cfg.TimeScale)
	return int(math.Ceil(e.cfg.Duration/h - 1e-9))
}

// Run steps until every body is gone or the duration is covered. On
// cancellation the partial result is returned with the context error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.Spawn(); err != nil {
		return nil, err
	}

	s := e.simulation
	steps := e.Steps()
	result := &Result{
		Samples: make([]Sample, 0),
		Impacts: make([]sim.ImpactEvent, 0),
		Metrics: make(map[string]float64),
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "experiment.Run", trace.WithAttributes(
		attribute.String("integrator", s.Integrator().Name()),
		attribute.Int("bodies", s.Len()),
		attribute.Int("steps", steps),
		attribute.Int64("seed", e.cfg.Seed),
	))
	defer span.End()

	e.log.Info("run started",
		logging.String("integrator", s.Integrator().Name()),
		logging.Int("bodies", s.Len()),
		logging.Int("steps", steps))

	e.sample(result, 0)

	var runErr error
	for i := 1; i <= steps && s.Len() > 0; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		events, err := s.Step(e.cfg.Dt, e.cfg.TimeScale, false)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		result.StepsTaken++
		result.Impacts = append(result.Impacts, events...)

		if e.cfg.SampleEvery > 0 && (i%e.cfg.SampleEvery == 0 || i == steps) {
			e.sample(result, i)
		}
	}

	for _, m := range s.Metrics() {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Remaining = s.Len()
	result.Stats = s.Stats()

	span.SetAttributes(
		attribute.Int("steps_taken", result.StepsTaken),
		attribute.Int("impacts", len(result.Impacts)),
		attribute.Int("remaining", result.Remaining),
		attribute.Float64("max_energy", result.Stats.MaxEnergy),
	)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}

	e.log.Info("run finished",
		logging.Int("steps", result.StepsTaken),
		logging.Int("impacts", len(result.Impacts)),
		logging.Int("remaining", result.Remaining))

	return result, runErr
}

func (e *Experiment) sample(r *Result, step int) {
	if e.cfg.SampleEvery <= 0 {
		return
	}
	t := e.simulation.Time()
	for _, b := range e.simulation.Bodies() {
		r.Samples = append(r.Samples, Sample{Step: step, Time: t, BodyState: b})
	}
}
