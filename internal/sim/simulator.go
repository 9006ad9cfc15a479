package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/integrators"
	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/physics"
)

const (
	// FrameDt is the nominal host frame interval.
	FrameDt = 1.0 / 60.0

	MinTimeScale = 0.1
	MaxTimeScale = 100.0
)

// Simulation owns every active body and the accumulators built from their
// impacts. It is not safe for concurrent use; the host drives it one Step
// at a time.
type Simulation struct {
	primary     physics.Attractor
	secondaries []physics.Attractor
	atmosphere  *physics.Atmosphere
	gravity     *physics.Gravity
	drag        *physics.Drag
	integrator  dynamo.Integrator
	log         logging.Logger
	observers   []Observer
	metrics     []Metric

	bodies  []*Body
	nextID  BodyHandle
	removed map[BodyHandle]struct{}
	stats  Stats
	time   float64
	steps  int
}

// New returns an empty simulation around Earth with the standard
// atmosphere and semi-implicit Euler stepping.
func New(opts ...Option) *Simulation {
	s := &Simulation{
		primary:    physics.Earth(),
		atmosphere: physics.StandardAtmosphere(),
		integrator: integrators.NewEuler(),
		log:        logging.Noop(),
		observers:  make([]Observer, 0),
		metrics:    make([]Metric, 0),
		removed:    make(map[BodyHandle]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	attractors := append([]physics.Attractor{s.primary}, s.secondaries...)
	s.gravity = physics.NewGravity(attractors...)
	if s.atmosphere != nil {
		s.drag = physics.NewDrag(s.atmosphere)
	}
	return s
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }

func (s *Simulation) Primary() physics.Attractor      { return s.primary }
func (s *Simulation) Gravity() *physics.Gravity       { return s.gravity }
func (s *Simulation) Atmosphere() *physics.Atmosphere { return s.atmosphere }
func (s *Simulation) Integrator() dynamo.Integrator   { return s.integrator }
func (s *Simulation) Time() float64                   { return s.time }
func (s *Simulation) Len() int                        { return len(s.bodies) }
func (s *Simulation) Stats() Stats                    { return s.stats }
func (s *Simulation) Metrics() []Metric               { return s.metrics }

// Spawn registers a new active body. Mass is derived from the size and the
// bulk density of meteoroid material.
func (s *Simulation) Spawn(spec BodySpec) (BodyHandle, error) {
	if math.IsNaN(spec.Size) || math.IsInf(spec.Size, 0) || spec.Size <= 0 {
		s.log.Warn("spawn rejected", logging.Float("size", spec.Size))
		return 0, fmt.Errorf("size %v: %w", spec.Size, dynamo.ErrInvalidBody)
	}
	if !spec.Position.IsValid() || !spec.Velocity.IsValid() {
		s.log.Warn("spawn rejected", logging.String("position", spec.Position.String()),
			logging.String("velocity", spec.Velocity.String()))
		return 0, fmt.Errorf("non-finite position or velocity: %w", dynamo.ErrInvalidBody)
	}
	mass := physics.MassFromSize(spec.Size)
	if math.IsInf(mass, 0) || mass <= 0 {
		s.log.Warn("spawn rejected", logging.Float("mass", mass))
		return 0, fmt.Errorf("mass %v: %w", mass, dynamo.ErrInvalidBody)
	}

	s.nextID++
	b := &Body{
		id:       s.nextID,
		mass:     mass,
		size:     spec.Size,
		Position: spec.Position,
		Velocity: spec.Velocity,
	}
	s.bodies = append(s.bodies, b)
	s.stats.Spawned++

	s.log.Debug("spawn", logging.Uint64("body", uint64(b.id)),
		logging.Float("size", b.size), logging.Float("mass", b.mass))
	return b.id, nil
}

// Remove takes an active body out of the simulation without an impact.
// Handles of impacted, removed or never spawned bodies yield ErrUnknownBody.
func (s *Simulation) Remove(h BodyHandle) error {
	for i, b := range s.bodies {
		if b.id != h {
			continue
		}
		copy(s.bodies[i:], s.bodies[i+1:])
		s.bodies[len(s.bodies)-1] = nil
		s.bodies = s.bodies[:len(s.bodies)-1]
		s.removed[h] = struct{}{}
		s.stats.Removed++
		return nil
	}
	return fmt.Errorf("body %d: %w", h, dynamo.ErrUnknownBody)
}

// Status reports where a spawned body is in its lifecycle. A handle that
// left the active set without being removed has impacted.
func (s *Simulation) Status(h BodyHandle) (Status, error) {
	if h == 0 || h > s.nextID {
		return 0, fmt.Errorf("body %d: %w", h, dynamo.ErrUnknownBody)
	}
	for _, b := range s.bodies {
		if b.id == h {
			return Active, nil
		}
	}
	if _, ok := s.removed[h]; ok {
		return Removed, nil
	}
	return Impacted, nil
}

// RemoveAll clears all bodies, statistics and metric accumulators.
func (s *Simulation) RemoveAll() {
	s.bodies = nil
	s.nextID = 0
	s.removed = make(map[BodyHandle]struct{})
	s.stats = Stats{}
	s.time = 0
	s.steps = 0
	for _, m := range s.metrics {
		m.Reset()
	}
	for _, o := range s.observers {
		if r, ok := o.(Resetter); ok {
			r.Reset()
		}
	}
}

// Body returns a copy of an active body.
func (s *Simulation) Body(h BodyHandle) (BodyState, bool) {
	for _, b := range s.bodies {
		if b.id == h {
			return s.state(b), true
		}
	}
	return BodyState{}, false
}

// Bodies returns copies of every active body in spawn order.
func (s *Simulation) Bodies() []BodyState {
	out := make([]BodyState, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = s.state(b)
	}
	return out
}

func (s *Simulation) state(b *Body) BodyState {
	return BodyState{
		ID:            b.id,
		Position:      b.Position,
		Velocity:      b.Velocity,
		Mass:          b.mass,
		Size:          b.size,
		Altitude:      s.primary.Altitude(b.Position),
		Speed:         physics.ToMeters(b.Velocity.Norm()),
		Burning:       b.Burning,
		BurnIntensity: b.BurnIntensity,
	}
}

// AtmosphereAt returns local conditions at a distance (scene units) from
// the primary's center.
func (s *Simulation) AtmosphereAt(distanceFromCenter float64) physics.Conditions {
	h := physics.ToMeters(distanceFromCenter - s.primary.Radius)
	if s.atmosphere == nil {
		return physics.Conditions{Altitude: h}
	}
	return s.atmosphere.At(h)
}

// ClampTimeScale limits a host supplied time scale to the supported range.
func ClampTimeScale(ts float64) float64 {
	return math.Max(MinTimeScale, math.Min(MaxTimeScale, ts))
}

// Step advances every active body by dt·timeScale seconds of simulated time
// and returns the impacts that happened during the step. Impacted bodies
// are no longer active when Step returns. A paused step evaluates nothing.
func (s *Simulation) Step(dt, timeScale float64, paused bool) ([]ImpactEvent, error) {
	if paused {
		return nil, nil
	}
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return nil, fmt.Errorf("dt %v: %w", dt, dynamo.ErrInvalidStep)
	}
	if math.IsNaN(timeScale) {
		return nil, fmt.Errorf("time scale %v: %w", timeScale, dynamo.ErrInvalidStep)
	}
	h := dt * ClampTimeScale(timeScale)

	s.steps++
	s.time += h

	var impacts []ImpactEvent
	active := s.bodies[:0]
	for _, b := range s.bodies {
		if ev, hit := s.advance(b, h); hit {
			impacts = append(impacts, ev)
			continue
		}
		active = append(active, b)
	}
	for i := len(active); i < len(s.bodies); i++ {
		s.bodies[i] = nil
	}
	s.bodies = active
	s.stats.Steps = s.steps

	if len(s.observers) > 0 || len(s.metrics) > 0 {
		snap := &Snapshot{Step: s.steps, Time: s.time, Bodies: s.Bodies(), Impacts: impacts}
		for _, o := range s.observers {
			o.OnStep(snap)
		}
		for _, m := range s.metrics {
			m.OnStep(snap)
		}
	}

	return impacts, nil
}

// advance integrates one body and reports whether it hit the primary.
// The update is all-or-nothing: a non-finite result leaves the body as it was.
func (s *Simulation) advance(b *Body, h float64) (ImpactEvent, bool) {
	forces := []dynamo.Force{guard(s.gravity.Force())}

	var thermal physics.DragResult
	if s.drag != nil {
		evaluated := false
		forces = append(forces, guard(func(pos, vel dynamo.Vec3) dynamo.Vec3 {
			res := s.drag.Evaluate(s.primary.Altitude(pos), vel, b.size, b.mass)
			if !evaluated {
				thermal = res
				evaluated = true
			}
			return limitDrag(res.Accel, vel, h)
		}))
	}

	next := s.integrator.Step(dynamo.Kinematics{Position: b.Position, Velocity: b.Velocity}, forces, h)
	if !next.IsValid() {
		s.stats.Rejected++
		err := &dynamo.SimulationError{Step: s.steps, Time: s.time, BodyID: uint64(b.id), Wrapped: dynamo.ErrNonFinite}
		s.log.Warn("body update discarded", logging.Err(err))
		return ImpactEvent{}, false
	}

	b.Position = next.Position
	b.Velocity = next.Velocity
	b.Burning = thermal.Burning
	b.BurnIntensity = thermal.BurnIntensity

	if s.primary.Distance(b.Position) >= s.primary.Radius+b.size {
		return ImpactEvent{}, false
	}
	return s.impact(b), true
}

func (s *Simulation) impact(b *Body) ImpactEvent {
	energy, err := physics.ImpactEnergy(b.mass, b.Velocity)
	if err != nil {
		s.log.Warn("impact energy rejected", logging.Uint64("body", uint64(b.id)), logging.Err(err))
		energy = 0
	}

	ev := ImpactEvent{
		BodyID:      b.id,
		Position:    b.Position,
		Velocity:    b.Velocity,
		Mass:        b.mass,
		Energy:      energy,
		TNTMegatons: physics.TNTMegatons(energy),
		Time:        s.time,
		Step:        s.steps,
	}

	s.stats.Impacts++
	s.stats.TotalEnergy += energy
	s.stats.MaxEnergy = math.Max(s.stats.MaxEnergy, energy)
	s.stats.LastImpact = ev

	s.log.Debug("impact", logging.Uint64("body", uint64(b.id)),
		logging.Float("energy", energy), logging.Float("tnt_mt", ev.TNTMegatons))
	return ev
}

// guard turns a non-finite force term into no contribution.
func guard(f dynamo.Force) dynamo.Force {
	return func(pos, vel dynamo.Vec3) dynamo.Vec3 {
		a := f(pos, vel)
		if !a.IsValid() {
			return dynamo.Vec3{}
		}
		return a
	}
}

// limitDrag caps the velocity change from drag over one step at the current
// speed so drag can stop a body but never reverse it.
func limitDrag(accel, vel dynamo.Vec3, h float64) dynamo.Vec3 {
	a := accel.Norm()
	if a == 0 || h <= 0 {
		return accel
	}
	maxA := vel.Norm() / h
	if a <= maxA {
		return accel
	}
	return accel.Scale(maxA / a)
}
