package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/meteorsim/internal/dynamo"
)

// ImpactEnergy returns the kinetic energy in joules of a body of mass kg
// hitting the surface with vel (scene units/s).
func ImpactEnergy(mass float64, vel dynamo.Vec3) (float64, error) {
	if math.IsNaN(mass) || math.IsInf(mass, 0) || mass < 0 {
		return 0, fmt.Errorf("mass %v: %w", mass, dynamo.ErrInvalidImpact)
	}
	if !vel.IsValid() {
		return 0, fmt.Errorf("velocity %v: %w", vel, dynamo.ErrInvalidImpact)
	}
	speed := ToMeters(vel.Norm())
	energy := 0.5 * mass * speed * speed
	if math.IsInf(energy, 0) {
		return 0, fmt.Errorf("energy overflow: %w", dynamo.ErrInvalidImpact)
	}
	return energy, nil
}

// TNTMegatons converts joules to megatons of TNT.
func TNTMegatons(joules float64) float64 {
	return joules / JoulesPerMegatonTNT
}
