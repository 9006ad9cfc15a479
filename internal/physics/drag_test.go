package physics

import (
	"math"
	"testing"

	"github.com/san-kum/meteorsim/internal/dynamo"
)

func TestDragCoefficients(t *testing.T) {
	d := NewDrag(StandardAtmosphere())

	speed := 3000.0
	vel := dynamo.Vec3{X: -ToUnits(speed)}
	size := ToUnits(1.0)
	mass := MassFromSize(size)

	res := d.Evaluate(0, vel, size, mass)

	mach := speed / 343
	re := 1.225 * speed * 2 / 1.8e-5
	cd := 0.47 * (1 + 0.1*mach) * (1 + 0.1*math.Log(re+1))
	force := 0.5 * 1.225 * speed * speed * cd * math.Pi

	if math.Abs(res.Mach-mach) > 1e-9 {
		t.Errorf("mach = %v, want %v", res.Mach, mach)
	}
	if math.Abs(res.Reynolds-re)/re > 1e-9 {
		t.Errorf("reynolds = %v, want %v", res.Reynolds, re)
	}
	if math.Abs(res.Cd-cd) > 1e-9 {
		t.Errorf("cd = %v, want %v", res.Cd, cd)
	}
	if math.Abs(res.Force-force)/force > 1e-9 {
		t.Errorf("force = %v, want %v", res.Force, force)
	}

	wantDecel := ToUnits(force / mass)
	if math.Abs(res.Accel.X-wantDecel)/wantDecel > 1e-9 {
		t.Errorf("accel = %v, want +%v along X", res.Accel, wantDecel)
	}
	if res.Accel.Y != 0 || res.Accel.Z != 0 {
		t.Errorf("drag must be anti-parallel to velocity, got %v", res.Accel)
	}
}

func TestDragBurning(t *testing.T) {
	d := NewDrag(StandardAtmosphere())
	size := ToUnits(1.0)
	mass := MassFromSize(size)

	tests := []struct {
		name      string
		h         float64
		speed     float64
		burning   bool
		intensity float64
	}{
		{"slow", 0, 1500, false, 0},
		{"just below threshold", 0, 1999, false, 0},
		{"fast low", 0, 3000, true, 1},
		{"fast thin air", 300000, 20000, true, 1.9e-11 * 8e12 / 1e6 / 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Evaluate(tt.h, dynamo.Vec3{Y: ToUnits(tt.speed)}, size, mass)
			if res.Burning != tt.burning {
				t.Errorf("burning = %v, want %v", res.Burning, tt.burning)
			}
			if math.Abs(res.BurnIntensity-tt.intensity) > 1e-12 {
				t.Errorf("intensity = %v, want %v", res.BurnIntensity, tt.intensity)
			}
			if res.BurnIntensity < 0 || res.BurnIntensity > 1 {
				t.Errorf("intensity %v outside [0,1]", res.BurnIntensity)
			}
		})
	}
}

func TestDragOutsideEnvelope(t *testing.T) {
	d := NewDrag(StandardAtmosphere())
	vel := dynamo.Vec3{X: 1}
	for _, h := range []float64{-1, MaxAltitude + 1} {
		res := d.Evaluate(h, vel, 0.01, 1e9)
		if res != (DragResult{}) {
			t.Errorf("drag at %g m should be zero, got %+v", h, res)
		}
	}
}

func TestDragZeroVelocity(t *testing.T) {
	d := NewDrag(StandardAtmosphere())
	res := d.Evaluate(1000, dynamo.Vec3{}, 0.01, 1e9)
	if !res.Accel.IsValid() || res.Accel != (dynamo.Vec3{}) {
		t.Errorf("zero velocity should give zero drag, got %v", res.Accel)
	}
	if res.Burning {
		t.Error("a body at rest does not burn")
	}
}

func TestDragVacuum(t *testing.T) {
	d := NewDrag(nil)
	res := d.Evaluate(0, dynamo.Vec3{X: 1}, 0.01, 1e9)
	if res != (DragResult{}) {
		t.Errorf("vacuum drag should be zero, got %+v", res)
	}
}
