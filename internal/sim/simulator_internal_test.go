package sim

import (
	"math"
	"testing"

	"github.com/san-kum/meteorsim/internal/dynamo"
)

func TestGuardZeroesNonFiniteTerms(t *testing.T) {
	tests := []struct {
		name string
		in   dynamo.Vec3
		want dynamo.Vec3
	}{
		{"finite", dynamo.Vec3{X: 1, Y: -2}, dynamo.Vec3{X: 1, Y: -2}},
		{"nan", dynamo.Vec3{X: math.NaN()}, dynamo.Vec3{}},
		{"inf", dynamo.Vec3{Z: math.Inf(-1)}, dynamo.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := guard(func(_, _ dynamo.Vec3) dynamo.Vec3 { return tt.in })
			if got := f(dynamo.Vec3{}, dynamo.Vec3{}); got != tt.want {
				t.Errorf("guard() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLimitDrag(t *testing.T) {
	vel := dynamo.Vec3{X: 2}

	small := dynamo.Vec3{X: -1}
	if got := limitDrag(small, vel, 1); got != small {
		t.Errorf("limitDrag() = %v, want unchanged %v", got, small)
	}

	got := limitDrag(dynamo.Vec3{X: -10}, vel, 1)
	if math.Abs(got.X+2) > 1e-12 {
		t.Errorf("limitDrag() = %v, want X=-2", got)
	}

	if got := limitDrag(dynamo.Vec3{}, vel, 1); got != (dynamo.Vec3{}) {
		t.Errorf("limitDrag(zero) = %v", got)
	}
}

func TestClampTimeScale(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{0, MinTimeScale},
		{-5, MinTimeScale},
		{250, MaxTimeScale},
		{math.Inf(1), MaxTimeScale},
	}
	for _, tt := range tests {
		if got := ClampTimeScale(tt.in); got != tt.want {
			t.Errorf("ClampTimeScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	if Active.String() != "active" || Impacted.String() != "impacted" || Removed.String() != "removed" {
		t.Error("unexpected status names")
	}
	if Status(9).String() != "status(9)" {
		t.Errorf("got %q", Status(9).String())
	}
}
