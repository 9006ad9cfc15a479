package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/meteorsim/internal/dynamo"
)

func TestImpactEnergy(t *testing.T) {
	mass := 1000.0
	vel := dynamo.Vec3{X: ToUnits(3), Y: ToUnits(4)}

	e, err := ImpactEnergy(mass, vel)
	if err != nil {
		t.Fatalf("ImpactEnergy: %v", err)
	}
	if math.Abs(e-12500) > 1e-6 {
		t.Errorf("energy = %v, want 12500", e)
	}
}

func TestImpactEnergyRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		mass float64
		vel  dynamo.Vec3
	}{
		{"negative mass", -1, dynamo.Vec3{X: 1}},
		{"NaN mass", math.NaN(), dynamo.Vec3{X: 1}},
		{"NaN velocity", 1, dynamo.Vec3{X: math.NaN()}},
		{"Inf velocity", 1, dynamo.Vec3{Z: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImpactEnergy(tt.mass, tt.vel)
			if !errors.Is(err, dynamo.ErrInvalidImpact) {
				t.Errorf("expected ErrInvalidImpact, got %v", err)
			}
		})
	}
}

func TestMassFromSize(t *testing.T) {
	size := ToUnits(1)
	want := 4.0 / 3.0 * math.Pi * 3000
	if got := MassFromSize(size); math.Abs(got-want)/want > 1e-12 {
		t.Errorf("mass = %v, want %v", got, want)
	}
}

func TestTNTMegatons(t *testing.T) {
	if got := TNTMegatons(4.184e15); got != 1 {
		t.Errorf("TNTMegatons = %v, want 1", got)
	}
}
