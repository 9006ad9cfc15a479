package physics

import "math"

// Domain constants. Values are fixed; scenarios choose bodies and timing,
// never the physics.
const (
	// G is the gravitational constant in m³/(kg·s²).
	G = 6.674e-11

	// Scale is the number of metres in one scene unit.
	Scale = 100000.0

	// BulkDensity of meteoroid material in kg/m³.
	BulkDensity = 3000.0

	EarthMass   = 5.972e24
	EarthRadius = 63.71 // scene units

	MoonMass     = 7.342e22
	MoonRadius   = 17.37  // scene units
	MoonDistance = 3844.0 // scene units

	SeaLevelDensity  = 1.225    // kg/m³
	SeaLevelPressure = 101325.0 // Pa
	ScaleHeight      = 8400.0   // m
	MaxAltitude      = 500000.0 // m, top of the atmospheric envelope

	StandardTemperature  = 288.0  // K, below sea level
	ExosphereTemperature = 1500.0 // K, above MaxAltitude

	DragCoefficient  = 0.47
	DynamicViscosity = 1.8e-5 // Pa·s
	SpeedOfSound     = 343.0  // m/s
	MachFactor       = 0.1
	ReynoldsFactor   = 0.1

	BurnSpeedThreshold = 2000.0 // m/s

	// JoulesPerMegatonTNT converts impact energy to a TNT equivalent.
	JoulesPerMegatonTNT = 4.184e15

	// minDistance floors attractor distances, in scene units.
	minDistance = 1e-9
)

// ToMeters converts a scene-unit length to metres.
func ToMeters(units float64) float64 { return units * Scale }

// ToUnits converts metres to scene units.
func ToUnits(meters float64) float64 { return meters / Scale }

// MassFromSize returns the mass in kg of a sphere of the given radius in
// scene units made of meteoroid material.
func MassFromSize(size float64) float64 {
	r := ToMeters(size)
	return 4.0 / 3.0 * math.Pi * r * r * r * BulkDensity
}
