package physics

import (
	"math"

	"github.com/san-kum/meteorsim/internal/dynamo"
)

// Attractor is a massive body that pulls meteors toward its center.
type Attractor struct {
	Name     string
	Mass     float64     // kg
	Radius   float64     // scene units
	Position dynamo.Vec3 // scene units, fixed
}

// Earth returns the primary body at the origin.
func Earth() Attractor {
	return Attractor{Name: "earth", Mass: EarthMass, Radius: EarthRadius}
}

// Moon returns a secondary attractor on the +X axis.
func Moon() Attractor {
	return Attractor{Name: "moon", Mass: MoonMass, Radius: MoonRadius, Position: dynamo.Vec3{X: MoonDistance}}
}

// Distance returns the distance in scene units from the attractor's center.
func (a Attractor) Distance(pos dynamo.Vec3) float64 {
	return pos.Sub(a.Position).Norm()
}

// Altitude returns the height above the attractor's surface in metres.
func (a Attractor) Altitude(pos dynamo.Vec3) float64 {
	return ToMeters(a.Distance(pos) - a.Radius)
}

// Gravity sums Newtonian attraction toward a fixed set of attractors.
type Gravity struct {
	g          float64
	attractors []Attractor
}

func NewGravity(attractors ...Attractor) *Gravity {
	list := make([]Attractor, len(attractors))
	copy(list, attractors)
	return &Gravity{g: G, attractors: list}
}

func (gr *Gravity) Attractors() []Attractor {
	out := make([]Attractor, len(gr.attractors))
	copy(out, gr.attractors)
	return out
}

// Acceleration returns the gravitational acceleration at pos in scene
// units per second squared. Non-finite contributions are dropped.
func (gr *Gravity) Acceleration(pos dynamo.Vec3) dynamo.Vec3 {
	var total dynamo.Vec3
	for _, a := range gr.attractors {
		d := a.Position.Sub(pos)
		r := math.Max(d.Norm(), minDistance)
		rm := ToMeters(r)
		mag := ToUnits(gr.g * a.Mass / (rm * rm))
		acc := d.Scale(mag / r)
		if !acc.IsValid() {
			continue
		}
		total = total.Add(acc)
	}
	return total
}

// Force adapts the model to an integrator force term.
func (gr *Gravity) Force() dynamo.Force {
	return func(pos, _ dynamo.Vec3) dynamo.Vec3 {
		return gr.Acceleration(pos)
	}
}

// PotentialEnergy returns the specific gravitational potential in J/kg.
func (gr *Gravity) PotentialEnergy(pos dynamo.Vec3) float64 {
	pe := 0.0
	for _, a := range gr.attractors {
		r := ToMeters(math.Max(a.Distance(pos), minDistance))
		pe -= gr.g * a.Mass / r
	}
	return pe
}

// SpecificEnergy returns the specific orbital energy in J/kg of a body at
// pos moving with vel (scene units/s).
func (gr *Gravity) SpecificEnergy(pos, vel dynamo.Vec3) float64 {
	v := ToMeters(vel.Norm())
	return 0.5*v*v + gr.PotentialEnergy(pos)
}

// CircularSpeed returns the circular orbit speed in scene units/s at
// distance r (scene units) from an attractor of the given mass.
func CircularSpeed(mass, r float64) float64 {
	return ToUnits(math.Sqrt(G * mass / ToMeters(r)))
}
