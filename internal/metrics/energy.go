package metrics

import (
	"math"

	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

// EnergyDrift tracks the largest relative change of specific orbital
// energy seen on any body since it was first observed. Drag makes the
// value grow; in a vacuum it measures integrator error.
type EnergyDrift struct {
	name     string
	gravity  *physics.Gravity
	initial  map[sim.BodyHandle]float64
	maxDrift float64
}

func NewEnergyDrift(gravity *physics.Gravity) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: gravity,
		initial: make(map[sim.BodyHandle]float64),
	}
}

func (e *EnergyDrift) Name() string { return e.name }

// OnStep only remembers bodies present in the snapshot, so impacted and
// removed bodies are forgotten on the next step.
func (e *EnergyDrift) OnStep(snap *sim.Snapshot) {
	active := make(map[sim.BodyHandle]struct{}, len(snap.Bodies))
	for _, b := range snap.Bodies {
		active[b.ID] = struct{}{}
		energy := e.gravity.SpecificEnergy(b.Position, b.Velocity)
		e0, seen := e.initial[b.ID]
		if !seen {
			e.initial[b.ID] = energy
			continue
		}
		if e0 == 0 {
			continue
		}
		drift := math.Abs(energy-e0) / math.Abs(e0)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
	for id := range e.initial {
		if _, ok := active[id]; !ok {
			delete(e.initial, id)
		}
	}
}

// Tracked returns the number of bodies with a remembered initial energy.
func (e *EnergyDrift) Tracked() int { return len(e.initial) }

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = make(map[sim.BodyHandle]float64)
	e.maxDrift = 0
}
