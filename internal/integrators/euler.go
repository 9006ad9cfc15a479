package integrators

import "github.com/san-kum/meteorsim/internal/dynamo"

// Euler is the semi-implicit (symplectic) Euler scheme. Force terms are
// applied to the velocity one after another, each seeing the velocity left
// by the previous term, and the position is advanced last with the final
// velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(k dynamo.Kinematics, forces []dynamo.Force, h float64) dynamo.Kinematics {
	vel := k.Velocity
	for _, f := range forces {
		vel = vel.Add(f(k.Position, vel).Scale(h))
	}
	return dynamo.Kinematics{
		Position: k.Position.Add(vel.Scale(h)),
		Velocity: vel,
	}
}
