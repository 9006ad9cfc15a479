package integrators

import "github.com/san-kum/meteorsim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta scheme over (position, velocity).
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(k dynamo.Kinematics, forces []dynamo.Force, h float64) dynamo.Kinematics {
	x0, v0 := k.Position, k.Velocity

	k1x := v0
	k1v := dynamo.SumForces(forces, x0, v0)

	x2 := x0.Add(k1x.Scale(h * 0.5))
	v2 := v0.Add(k1v.Scale(h * 0.5))
	k2x := v2
	k2v := dynamo.SumForces(forces, x2, v2)

	x3 := x0.Add(k2x.Scale(h * 0.5))
	v3 := v0.Add(k2v.Scale(h * 0.5))
	k3x := v3
	k3v := dynamo.SumForces(forces, x3, v3)

	x4 := x0.Add(k3x.Scale(h))
	v4 := v0.Add(k3v.Scale(h))
	k4x := v4
	k4v := dynamo.SumForces(forces, x4, v4)

	h6 := h / 6.0
	return dynamo.Kinematics{
		Position: x0.Add(k1x.Add(k2x.Scale(2)).Add(k3x.Scale(2)).Add(k4x).Scale(h6)),
		Velocity: v0.Add(k1v.Add(k2v.Scale(2)).Add(k3v.Scale(2)).Add(k4v).Scale(h6)),
	}
}
