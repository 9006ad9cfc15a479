package physics

import (
	"math"

	"github.com/san-kum/meteorsim/internal/dynamo"
)

// DragResult is the outcome of one drag evaluation.
type DragResult struct {
	Accel         dynamo.Vec3 // scene units/s², opposite to velocity
	Force         float64     // N
	Mach          float64
	Reynolds      float64
	Cd            float64
	Burning       bool
	BurnIntensity float64
	HeatTransfer  float64
}

// Drag computes Mach- and Reynolds-corrected aerodynamic drag on a sphere
// and the entry heating signal derived from it.
type Drag struct {
	atm *Atmosphere

	cd0            float64
	viscosity      float64
	speedOfSound   float64
	machFactor     float64
	reynoldsFactor float64
	burnSpeed      float64
}

func NewDrag(atm *Atmosphere) *Drag {
	return &Drag{
		atm:            atm,
		cd0:            DragCoefficient,
		viscosity:      DynamicViscosity,
		speedOfSound:   SpeedOfSound,
		machFactor:     MachFactor,
		reynoldsFactor: ReynoldsFactor,
		burnSpeed:      BurnSpeedThreshold,
	}
}

func (d *Drag) Atmosphere() *Atmosphere { return d.atm }

// Evaluate returns the drag on a body of the given radius (scene units) and
// mass (kg) at altitude h metres moving with vel (scene units/s). Outside
// the envelope the result is zero and the body does not burn.
func (d *Drag) Evaluate(h float64, vel dynamo.Vec3, size, mass float64) DragResult {
	if d.atm == nil || !d.atm.Contains(h) {
		return DragResult{}
	}

	rho := d.atm.Density(h)
	speed := ToMeters(vel.Norm())
	radius := ToMeters(size)

	res := DragResult{}
	res.Mach = speed / d.speedOfSound
	cdDyn := d.cd0 * (1 + d.machFactor*res.Mach)
	res.Reynolds = rho * speed * (2 * radius) / d.viscosity
	res.Cd = cdDyn * (1 + d.reynoldsFactor*math.Log(res.Reynolds+1))
	res.Force = 0.5 * rho * speed * speed * res.Cd * math.Pi * radius * radius

	if mass > 0 {
		decel := ToUnits(res.Force / mass)
		res.Accel = vel.Normalize().Scale(-decel)
	}
	if !res.Accel.IsValid() {
		res.Accel = dynamo.Vec3{}
	}

	if speed > d.burnSpeed {
		res.Burning = true
		res.HeatTransfer = rho * speed * speed * speed / 1e6
		res.BurnIntensity = clamp(res.HeatTransfer/1000, 0, 1)
	}

	return res
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
