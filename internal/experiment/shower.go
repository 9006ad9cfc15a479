package experiment

import (
	"math"
	"math/rand"

	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

// ShowerSpecs draws sc.Count spawn requests around primary. The same rng
// state always yields the same shower.
func ShowerSpecs(rng *rand.Rand, primary physics.Attractor, sc config.ShowerConfig) []sim.BodySpec {
	specs := make([]sim.BodySpec, 0, sc.Count)
	for i := 0; i < sc.Count; i++ {
		specs = append(specs, ShowerBody(rng, primary, sc))
	}
	return specs
}

// ShowerBody draws one body of a shower.
func ShowerBody(rng *rand.Rand, primary physics.Attractor, sc config.ShowerConfig) sim.BodySpec {
	dir := randomDirection(rng)
	pos := primary.Position.Add(dir.Scale(primary.Radius + sc.Altitude))

	// tilt the inbound heading off the radial by up to Spread
	t1 := perpendicular(dir)
	t2 := dir.Cross(t1)
	psi := 2 * math.Pi * rng.Float64()
	tangent := t1.Scale(math.Cos(psi)).Add(t2.Scale(math.Sin(psi)))
	tilt := sc.Spread * rng.Float64()
	heading := dir.Scale(-math.Cos(tilt)).Add(tangent.Scale(math.Sin(tilt)))

	size := sc.SizeMin
	if sc.SizeMax > sc.SizeMin {
		size += rng.Float64() * (sc.SizeMax - sc.SizeMin)
	}

	return sim.BodySpec{
		Position: pos,
		Velocity: heading.Scale(physics.ToUnits(sc.Speed)),
		Size:     size,
	}
}

// randomDirection is uniform on the unit sphere.
func randomDirection(rng *rand.Rand) dynamo.Vec3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(1 - z*z)
	return dynamo.Vec3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

func perpendicular(v dynamo.Vec3) dynamo.Vec3 {
	axis := dynamo.Vec3{Z: 1}
	if math.Abs(v.Z) > 0.9 {
		axis = dynamo.Vec3{X: 1}
	}
	return v.Cross(axis).Normalize()
}
