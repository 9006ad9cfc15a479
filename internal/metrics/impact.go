package metrics

import (
	"math"

	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

// ImpactEnergy accumulates impact energies. Value is the mean in joules.
type ImpactEnergy struct {
	count int
	total float64
	max   float64
}

func NewImpactEnergy() *ImpactEnergy {
	return &ImpactEnergy{}
}

func (m *ImpactEnergy) Name() string { return "impact_energy_mean" }

func (m *ImpactEnergy) OnStep(snap *sim.Snapshot) {
	for _, ev := range snap.Impacts {
		m.count++
		m.total += ev.Energy
		m.max = math.Max(m.max, ev.Energy)
	}
}

func (m *ImpactEnergy) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.total / float64(m.count)
}

func (m *ImpactEnergy) Count() int     { return m.count }
func (m *ImpactEnergy) Total() float64 { return m.total }
func (m *ImpactEnergy) Max() float64   { return m.max }

func (m *ImpactEnergy) Reset() {
	m.count = 0
	m.total = 0
	m.max = 0
}

// Standard returns the metric set attached to every experiment run.
func Standard(gravity *physics.Gravity) []sim.Metric {
	return []sim.Metric{
		NewEnergyDrift(gravity),
		NewPeakBurn(),
		NewImpactEnergy(),
	}
}
