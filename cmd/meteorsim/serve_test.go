package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

func TestTickInterval(t *testing.T) {
	tests := []struct {
		dt   float64
		want time.Duration
	}{
		{1.0 / 60.0, time.Second / 60},
		{0.5, 500 * time.Millisecond},
		{1e-3, time.Millisecond},
		{1e-10, minTick},
		{1e-12, minTick},
	}
	for _, tt := range tests {
		if got := tickInterval(tt.dt); got != tt.want {
			t.Errorf("tickInterval(%v) = %v, want %v", tt.dt, got, tt.want)
		}
		if got := tickInterval(tt.dt); got <= 0 {
			t.Errorf("tickInterval(%v) = %v, must be positive", tt.dt, got)
		}
	}
}

func highBody() sim.BodySpec {
	return sim.BodySpec{Position: dynamo.Vec3{Y: physics.EarthRadius + 1000}, Size: 0.1}
}

func TestKeepFallingTopsUpAndStops(t *testing.T) {
	s := sim.New()
	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- keepFalling(ctx, s, ticks, nil, 3, highBody, sim.FrameDt, 1)
	}()

	ticks <- time.Now()
	ticks <- time.Now()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("population = %d, want 3", s.Len())
	}
	if s.Stats().Steps < 1 {
		t.Errorf("expected at least one step, got %d", s.Stats().Steps)
	}
}

func TestKeepFallingReturnsFailures(t *testing.T) {
	ticks := make(chan time.Time, 1)
	ticks <- time.Now()

	err := keepFalling(context.Background(), sim.New(), ticks, nil, 1, highBody, 0, 1)
	if !errors.Is(err, dynamo.ErrInvalidStep) {
		t.Errorf("expected ErrInvalidStep, got %v", err)
	}

	ticks <- time.Now()
	bad := func() sim.BodySpec { return sim.BodySpec{Size: -1} }
	err = keepFalling(context.Background(), sim.New(), ticks, nil, 1, bad, sim.FrameDt, 1)
	if !errors.Is(err, dynamo.ErrInvalidBody) {
		t.Errorf("expected ErrInvalidBody, got %v", err)
	}

	errCh := make(chan error, 1)
	errCh <- errors.New("listen failed")
	if err := keepFalling(context.Background(), sim.New(), nil, errCh, 1, highBody, sim.FrameDt, 1); err == nil {
		t.Error("expected the server error to be returned")
	}
}
