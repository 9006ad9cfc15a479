package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/experiment"
	"github.com/san-kum/meteorsim/internal/logging"
)

// Batch is a scripted sequence of scenario runs.
type Batch struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []BatchStep `yaml:"steps"`
}

// BatchStep selects a preset, optionally a scenario file laid over it, and
// a few per-step overrides.
type BatchStep struct {
	Name       string   `yaml:"name"`
	Preset     string   `yaml:"preset"`
	Config     string   `yaml:"config"`
	Integrator string   `yaml:"integrator"`
	Seed       *int64   `yaml:"seed"`
	Count      *int     `yaml:"count"`
	Duration   *float64 `yaml:"duration"`
	Vacuum     *bool    `yaml:"vacuum"`
}

// StepResult is the outcome of one batch step. RunID is set when the
// result was saved.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *experiment.Result
	RunID  string
}

// SaveFunc persists a finished step and returns its run ID.
type SaveFunc func(name string, cfg *config.Config, result *experiment.Result) (string, error)

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	if len(batch.Steps) == 0 {
		return nil, fmt.Errorf("batch %s: no steps", path)
	}
	return &batch, nil
}

// Resolve builds the scenario for a step.
func (s BatchStep) Resolve() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "single"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset %q", preset)
	}
	if s.Config != "" {
		var err error
		if cfg, err = config.LoadOver(s.Config, cfg); err != nil {
			return nil, err
		}
	}

	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	if s.Count != nil {
		cfg.Shower.Count = *s.Count
	}
	if s.Duration != nil {
		cfg.Duration = *s.Duration
	}
	if s.Vacuum != nil {
		cfg.Vacuum = *s.Vacuum
	}
	return cfg, cfg.Validate()
}

func (s BatchStep) label(i int) string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Preset != "":
		return s.Preset
	default:
		return fmt.Sprintf("step%d", i+1)
	}
}

// RunBatch executes all steps in order. Results gathered before a failing
// step are returned with the error. save may be nil.
func RunBatch(ctx context.Context, batch *Batch, registry *experiment.Registry, log logging.Logger, save SaveFunc) ([]StepResult, error) {
	if log == nil {
		log = logging.Noop()
	}
	results := make([]StepResult, 0, len(batch.Steps))

	for i, step := range batch.Steps {
		name := step.label(i)
		log.Info("batch step", logging.Int("step", i+1), logging.Int("of", len(batch.Steps)), logging.String("name", name))

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp, err := experiment.New(cfg, registry, log.With(logging.String("step", name)))
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Config: cfg, Result: result}
		if save != nil {
			if sr.RunID, err = save(name, cfg, result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}
