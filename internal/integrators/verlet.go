package integrators

import "github.com/san-kum/meteorsim/internal/dynamo"

// Verlet is velocity Verlet. Velocity-dependent terms (drag) are evaluated
// with a first-order velocity predictor at the end of the step.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Step(k dynamo.Kinematics, forces []dynamo.Force, h float64) dynamo.Kinematics {
	a0 := dynamo.SumForces(forces, k.Position, k.Velocity)

	pos := k.Position.Add(k.Velocity.Scale(h)).Add(a0.Scale(0.5 * h * h))
	predicted := k.Velocity.Add(a0.Scale(h))

	a1 := dynamo.SumForces(forces, pos, predicted)

	return dynamo.Kinematics{
		Position: pos,
		Velocity: k.Velocity.Add(a0.Add(a1).Scale(0.5 * h)),
	}
}
