// Package observability exposes simulation progress as Prometheus metrics.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/meteorsim/internal/sim"
)

// SimCollector bundles the Prometheus metrics of a running simulation. It
// implements sim.Observer so it can be attached with sim.WithObserver.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Steps         prometheus.Counter
	Impacts       prometheus.Counter
	ImpactEnergy  prometheus.Histogram
	ActiveBodies  prometheus.Gauge
	BurningBodies prometheus.Gauge
	SimTime       prometheus.Gauge
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meteorsim_steps_total",
		Help: "Number of non-paused simulation steps.",
	}), "meteorsim_steps_total")
	if err != nil {
		return nil, err
	}
	impacts, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meteorsim_impacts_total",
		Help: "Number of bodies that reached the surface.",
	}), "meteorsim_impacts_total")
	if err != nil {
		return nil, err
	}
	energy, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "meteorsim_impact_energy_joules",
		Help:    "Kinetic energy of bodies at impact.",
		Buckets: prometheus.ExponentialBuckets(1e9, 10, 12),
	}), "meteorsim_impact_energy_joules")
	if err != nil {
		return nil, err
	}
	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "meteorsim_active_bodies",
		Help: "Bodies currently falling.",
	}), "meteorsim_active_bodies")
	if err != nil {
		return nil, err
	}
	burning, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "meteorsim_burning_bodies",
		Help: "Active bodies currently burning in the atmosphere.",
	}), "meteorsim_burning_bodies")
	if err != nil {
		return nil, err
	}
	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "meteorsim_simulated_seconds",
		Help: "Simulated time since the last reset.",
	}), "meteorsim_simulated_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:      gatherer,
		Steps:         steps,
		Impacts:       impacts,
		ImpactEnergy:  energy,
		ActiveBodies:  active,
		BurningBodies: burning,
		SimTime:       simTime,
	}, nil
}

// OnStep records one simulation step.
func (c *SimCollector) OnStep(snap *sim.Snapshot) {
	if c == nil || snap == nil {
		return
	}
	c.Steps.Inc()
	for _, ev := range snap.Impacts {
		c.Impacts.Inc()
		c.ImpactEnergy.Observe(ev.Energy)
	}

	burning := 0
	for _, b := range snap.Bodies {
		if b.Burning {
			burning++
		}
	}
	c.ActiveBodies.Set(float64(len(snap.Bodies)))
	c.BurningBodies.Set(float64(burning))
	c.SimTime.Set(snap.Time)
}

// Reset clears the gauges. Counters keep counting across resets.
func (c *SimCollector) Reset() {
	if c == nil {
		return
	}
	c.ActiveBodies.Set(0)
	c.BurningBodies.Set(0)
	c.SimTime.Set(0)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
