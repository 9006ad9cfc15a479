package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/experiment"
)

// Param is one swept scenario parameter and the values it takes.
type Param struct {
	Name   string
	Values []float64
}

// Point is one evaluated grid cell.
type Point struct {
	Params  map[string]float64 `json:"params"`
	Value   float64            `json:"value"`
	Metrics map[string]float64 `json:"metrics"`
}

type GridSearch struct {
	params   []Param
	maximize bool
}

func NewGridSearch(params []Param, maximize bool) *GridSearch {
	return &GridSearch{params: params, maximize: maximize}
}

// Search runs an experiment for every combination of parameter values and
// returns all points in grid order plus the best one by metricName.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) ([]Point, Point, error) {
	var points []Point
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &points); err != nil {
		return points, Point{}, err
	}
	if len(points) == 0 {
		return nil, Point{}, fmt.Errorf("empty grid")
	}

	best := points[0]
	for _, p := range points[1:] {
		if g.better(p.Value, best.Value) {
			best = p
		}
	}
	return points, best, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if math.IsNaN(b) {
		return !math.IsNaN(a)
	}
	if g.maximize {
		return a > b
	}
	return a < b
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.params) {
		exp, err := buildExperiment(current)
		if err != nil {
			return err
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return err
		}

		metrics := ResultMetrics(result)
		val, ok := metrics[metricName]
		if !ok {
			return fmt.Errorf("unknown metric %q", metricName)
		}

		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*points = append(*points, Point{Params: params, Value: val, Metrics: metrics})
		return nil
	}

	p := g.params[depth]
	for _, val := range p.Values {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[p.Name] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, points); err != nil {
			return err
		}
	}
	return nil
}

// ResultMetrics returns the metrics of a run together with its impact and
// survivor counts.
func ResultMetrics(r *experiment.Result) map[string]float64 {
	out := make(map[string]float64, len(r.Metrics)+3)
	for k, v := range r.Metrics {
		out[k] = v
	}
	out["impacts"] = float64(len(r.Impacts))
	out["remaining"] = float64(r.Remaining)
	out["max_energy"] = r.Stats.MaxEnergy
	return out
}

// ParseParam parses "name=v1,v2,...".
func ParseParam(s string) (Param, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return Param{}, fmt.Errorf("param %q: want name=v1,v2", s)
	}
	p := Param{Name: strings.TrimSpace(name)}
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Param{}, fmt.Errorf("param %s: %w", p.Name, err)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

var setters = map[string]func(*config.Config, float64){
	"dt":         func(c *config.Config, v float64) { c.Dt = v },
	"time_scale": func(c *config.Config, v float64) { c.TimeScale = v },
	"count":      func(c *config.Config, v float64) { c.Shower.Count = int(v) },
	"altitude":   func(c *config.Config, v float64) { c.Shower.Altitude = v },
	"speed":      func(c *config.Config, v float64) { c.Shower.Speed = v },
	"size_min":   func(c *config.Config, v float64) { c.Shower.SizeMin = v },
	"size_max":   func(c *config.Config, v float64) { c.Shower.SizeMax = v },
	"spread":     func(c *config.Config, v float64) { c.Shower.Spread = v },
}

// Apply sets a named scenario parameter on cfg.
func Apply(cfg *config.Config, name string, v float64) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q (available: %s)", name, strings.Join(Parameters(), ", "))
	}
	set(cfg, v)
	return nil
}

func Parameters() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
