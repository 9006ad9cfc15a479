package dynamo

import (
	"fmt"
	"math"
)

// Vec3 is a 3D vector in scene units.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(factor float64) Vec3 {
	return Vec3{v.X * factor, v.Y * factor, v.Z * factor}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector along v, or the zero vector when v has
// no length.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// IsValid reports whether every component is finite.
func (v Vec3) IsValid() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

// Kinematics is the integrable part of a body: where it is and how it moves.
type Kinematics struct {
	Position Vec3
	Velocity Vec3
}

func (k Kinematics) IsValid() bool {
	return k.Position.IsValid() && k.Velocity.IsValid()
}

// Force returns an acceleration in scene units per second squared for the
// given position and velocity.
type Force func(pos, vel Vec3) Vec3

// Integrator advances a kinematic state by h seconds of simulated time.
//
// Force terms are listed in application order; schemes that split the
// update (semi-implicit Euler) apply them sequentially, the others sum them.
type Integrator interface {
	Name() string
	Step(k Kinematics, forces []Force, h float64) Kinematics
}

// SumForces evaluates every term at (pos, vel) and returns the total.
func SumForces(forces []Force, pos, vel Vec3) Vec3 {
	var total Vec3
	for _, f := range forces {
		total = total.Add(f(pos, vel))
	}
	return total
}
