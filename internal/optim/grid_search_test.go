package optim

import (
	"context"
	"testing"

	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/experiment"
	"github.com/san-kum/meteorsim/internal/logging"
)

func TestParseParam(t *testing.T) {
	p, err := ParseParam("speed=11000, 20000,30000")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "speed" || len(p.Values) != 3 || p.Values[1] != 20000 {
		t.Errorf("unexpected param %+v", p)
	}

	for _, bad := range []string{"speed", "=1,2", "speed=", "speed=fast"} {
		if _, err := ParseParam(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestApply(t *testing.T) {
	cfg := config.GetPreset("shower")
	if err := Apply(cfg, "speed", 15000); err != nil {
		t.Fatal(err)
	}
	if err := Apply(cfg, "count", 3); err != nil {
		t.Fatal(err)
	}
	if cfg.Shower.Speed != 15000 || cfg.Shower.Count != 3 {
		t.Errorf("parameters not applied: %+v", cfg.Shower)
	}
	if err := Apply(cfg, "gravity", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestGridSearch(t *testing.T) {
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := config.GetPreset("shower")
		cfg.Duration = 60
		for name, v := range params {
			if err := Apply(cfg, name, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(cfg, experiment.NewRegistry(), logging.Noop())
	}

	gs := NewGridSearch([]Param{
		{Name: "count", Values: []float64{1, 3}},
		{Name: "speed", Values: []float64{15000, 25000}},
	}, true)

	points, best, err := gs.Search(context.Background(), build, "remaining")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 grid points, got %d", len(points))
	}
	if points[0].Params["count"] != 1 || points[0].Params["speed"] != 15000 {
		t.Errorf("unexpected grid order: %+v", points[0].Params)
	}
	for _, p := range points {
		if p.Value > best.Value {
			t.Errorf("best %v is not the maximum, saw %v", best.Value, p.Value)
		}
	}

	if _, _, err := gs.Search(context.Background(), build, "nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestGridSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gs := NewGridSearch([]Param{{Name: "count", Values: []float64{1}}}, false)
	_, _, err := gs.Search(ctx, func(map[string]float64) (*experiment.Experiment, error) {
		t.Fatal("no experiment should be built")
		return nil, nil
	}, "impacts")
	if err == nil {
		t.Error("expected context error")
	}
}
