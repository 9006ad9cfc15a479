// Package dynamo provides the numerical primitives shared by the meteor
// simulation packages.
//
// The package defines the small vocabulary every other package speaks:
//
//   - [Vec3]: 3D vector in scene units
//   - [Kinematics]: position/velocity pair advanced by an integrator
//   - [Force]: acceleration term evaluated at a kinematic state
//   - [Integrator]: numerical stepping scheme over a list of force terms
//
// # Example
//
//	k := dynamo.Kinematics{Position: dynamo.Vec3{X: 70}, Velocity: dynamo.Vec3{X: -5}}
//	k = integrators.NewEuler().Step(k, []dynamo.Force{gravity, drag}, h)
//
// # Thread Safety
//
// Values are plain structs and safe to copy. Integrators may keep scratch
// buffers and must not be shared between goroutines.
package dynamo
