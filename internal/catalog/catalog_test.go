package catalog

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/sim"
)

func events() []sim.ImpactEvent {
	return []sim.ImpactEvent{
		{BodyID: 1, Step: 10, Time: 0.16, Position: dynamo.Vec3{X: 63.7}, Velocity: dynamo.Vec3{X: -0.2}, Mass: 1e6, Energy: 2e14, TNTMegatons: 0.048},
		{BodyID: 2, Step: 12, Time: 0.19, Position: dynamo.Vec3{Z: 63.7}, Velocity: dynamo.Vec3{Z: -0.1}, Mass: 1e5, Energy: 5e12, TNTMegatons: 0.0012},
	}
}

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	if err := c.Record(ctx, "run_a", events()); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	entries, err := c.List(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Energy != 2e14 || entries[0].BodyID != 1 || entries[0].RunID != "run_a" {
		t.Errorf("expected the most energetic impact first, got %+v", entries[0])
	}
	if math.Abs(entries[0].Speed-20000) > 1e-6 {
		t.Errorf("expected speed 20000 m/s, got %v", entries[0].Speed)
	}
	if math.Abs(entries[1].Latitude-90) > 1e-9 {
		t.Errorf("expected polar impact, got latitude %v", entries[1].Latitude)
	}
}

func TestListFilter(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	if err := c.Record(ctx, "run_a", events()); err != nil {
		t.Fatal(err)
	}
	if err := c.Record(ctx, "run_b", events()[:1]); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"by run", Filter{RunID: "run_b"}, 1},
		{"min energy", Filter{MinEnergy: 1e14}, 2},
		{"limit", Filter{Limit: 1}, 1},
		{"no match", Filter{RunID: "missing"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := c.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(entries))
			}
		})
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	c := openTest(t)

	s, err := c.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != (Summary{}) {
		t.Errorf("expected empty summary, got %+v", s)
	}

	if err := c.Record(ctx, "run_a", events()); err != nil {
		t.Fatal(err)
	}
	if err := c.Record(ctx, "run_b", events()[:1]); err != nil {
		t.Fatal(err)
	}

	s, err = c.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Runs != 2 || s.Impacts != 3 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.MaxEnergy != 2e14 {
		t.Errorf("max energy %v", s.MaxEnergy)
	}
	if math.Abs(s.MeanEnergy-(4e14+5e12)/3) > 1 {
		t.Errorf("mean energy %v", s.MeanEnergy)
	}
}

func TestCatalogPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "impacts.db")

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Record(ctx, "run_a", events()); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	s, err := c.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Impacts != 2 {
		t.Errorf("expected 2 stored impacts, got %d", s.Impacts)
	}
}

func TestRecordEmpty(t *testing.T) {
	c := openTest(t)
	if err := c.Record(context.Background(), "run", nil); err != nil {
		t.Errorf("expected no error for empty record, got %v", err)
	}
}

func TestLatLon(t *testing.T) {
	tests := []struct {
		pos      dynamo.Vec3
		lat, lon float64
	}{
		{dynamo.Vec3{X: 1}, 0, 0},
		{dynamo.Vec3{Y: 2}, 0, 90},
		{dynamo.Vec3{Z: -3}, -90, 0},
		{dynamo.Vec3{}, 0, 0},
	}
	for _, tt := range tests {
		lat, lon := LatLon(tt.pos)
		if math.Abs(lat-tt.lat) > 1e-9 || math.Abs(lon-tt.lon) > 1e-9 {
			t.Errorf("LatLon(%v) = (%v, %v), want (%v, %v)", tt.pos, lat, lon, tt.lat, tt.lon)
		}
	}
}
