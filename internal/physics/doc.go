// Package physics holds the environment models that drive a falling meteor:
//
//   - [Atmosphere]: altitude → density, pressure, temperature (and advisory wind)
//   - [Gravity]: Newtonian attraction toward one or more fixed [Attractor]s
//   - [Drag]: Mach- and Reynolds-corrected drag plus entry heating
//   - [ImpactEnergy]: kinetic energy at the moment of surface contact
//
// Positions and velocities are expressed in scene units; every model
// converts to SI through [Scale] before doing physics and converts results
// back. Altitudes passed to the atmosphere are already in metres.
//
// Burning is an advisory signal. It never feeds back into mass or drag.
package physics
