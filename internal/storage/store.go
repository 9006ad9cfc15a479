package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/meteorsim/internal/config"
	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/experiment"
	"github.com/san-kum/meteorsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	impactsFile  = "impacts.csv"
)

var (
	sampleHeader = []string{"step", "time", "body", "x", "y", "z", "vx", "vy", "vz", "altitude", "speed", "mass", "size", "burning", "burn_intensity"}
	impactHeader = []string{"step", "time", "body", "x", "y", "z", "vx", "vy", "vz", "mass", "energy", "tnt_megatons"}
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	TimeScale   float64            `json:"time_scale"`
	Integrator  string             `json:"integrator"`
	Vacuum      bool               `json:"vacuum"`
	Moon        bool               `json:"moon"`
	Spawned     int                `json:"spawned"`
	Steps       int                `json:"steps"`
	Impacts     int                `json:"impacts"`
	Remaining   int                `json:"remaining"`
	Rejected    int                `json:"rejected"`
	TotalEnergy float64            `json:"total_energy"`
	MaxEnergy   float64            `json:"max_energy"`
	Metrics     map[string]float64 `json:"metrics"`
	Config      *config.Config     `json:"config,omitempty"`
}

// Save writes a finished run into its own directory and returns the run ID.
func (s *Store) Save(scenario string, cfg *config.Config, result *experiment.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", scenario, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scenario:    scenario,
		Timestamp:   now,
		Seed:        cfg.Seed,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		TimeScale:   cfg.TimeScale,
		Integrator:  cfg.Integrator,
		Vacuum:      cfg.Vacuum,
		Moon:        cfg.Moon,
		Spawned:     result.Stats.Spawned,
		Steps:       result.StepsTaken,
		Impacts:     len(result.Impacts),
		Remaining:   result.Remaining,
		Rejected:    result.Stats.Rejected,
		TotalEnergy: result.Stats.TotalEnergy,
		MaxEnergy:   result.Stats.MaxEnergy,
		Metrics:     result.Metrics,
		Config:      cfg,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, samplesFile), sampleHeader, len(result.Samples), func(i int) []string {
		return sampleRow(result.Samples[i])
	}); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, impactsFile), impactHeader, len(result.Impacts), func(i int) []string {
		return impactRow(result.Impacts[i])
	}); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]experiment.Sample, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}

	samples := make([]experiment.Sample, 0, len(records))
	for _, rec := range records {
		if len(rec) != len(sampleHeader) {
			continue
		}
		f := parseFloats(rec)
		samples = append(samples, experiment.Sample{
			Step: int(f[0]),
			Time: f[1],
			BodyState: sim.BodyState{
				ID:            sim.BodyHandle(f[2]),
				Position:      dynamo.Vec3{X: f[3], Y: f[4], Z: f[5]},
				Velocity:      dynamo.Vec3{X: f[6], Y: f[7], Z: f[8]},
				Altitude:      f[9],
				Speed:         f[10],
				Mass:          f[11],
				Size:          f[12],
				Burning:       rec[13] == "1",
				BurnIntensity: f[14],
			},
		})
	}
	return samples, nil
}

func (s *Store) LoadImpacts(runID string) ([]sim.ImpactEvent, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, impactsFile))
	if err != nil {
		return nil, err
	}

	impacts := make([]sim.ImpactEvent, 0, len(records))
	for _, rec := range records {
		if len(rec) != len(impactHeader) {
			continue
		}
		f := parseFloats(rec)
		impacts = append(impacts, sim.ImpactEvent{
			Step:        int(f[0]),
			Time:        f[1],
			BodyID:      sim.BodyHandle(f[2]),
			Position:    dynamo.Vec3{X: f[3], Y: f[4], Z: f[5]},
			Velocity:    dynamo.Vec3{X: f[6], Y: f[7], Z: f[8]},
			Mass:        f[9],
			Energy:      f[10],
			TNTMegatons: f[11],
		})
	}
	return impacts, nil
}

type ExportData struct {
	Run     RunMetadata         `json:"run"`
	Samples []experiment.Sample `json:"samples"`
	Impacts []sim.ImpactEvent   `json:"impacts"`
}

// ExportJSON writes the metadata, samples and impacts of a run as one
// JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	impacts, err := s.LoadImpacts(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: *meta, Samples: samples, Impacts: impacts})
}

// ExportCSV copies the sampled trajectory of a run to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// readCSV returns the data rows of a file, without the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func sampleRow(s experiment.Sample) []string {
	burning := "0"
	if s.Burning {
		burning = "1"
	}
	return []string{
		strconv.Itoa(s.Step),
		formatFloat(s.Time),
		strconv.FormatUint(uint64(s.ID), 10),
		formatFloat(s.Position.X), formatFloat(s.Position.Y), formatFloat(s.Position.Z),
		formatFloat(s.Velocity.X), formatFloat(s.Velocity.Y), formatFloat(s.Velocity.Z),
		formatFloat(s.Altitude),
		formatFloat(s.Speed),
		formatFloat(s.Mass),
		formatFloat(s.Size),
		burning,
		formatFloat(s.BurnIntensity),
	}
}

func impactRow(ev sim.ImpactEvent) []string {
	return []string{
		strconv.Itoa(ev.Step),
		formatFloat(ev.Time),
		strconv.FormatUint(uint64(ev.BodyID), 10),
		formatFloat(ev.Position.X), formatFloat(ev.Position.Y), formatFloat(ev.Position.Z),
		formatFloat(ev.Velocity.X), formatFloat(ev.Velocity.Y), formatFloat(ev.Velocity.Z),
		formatFloat(ev.Mass),
		formatFloat(ev.Energy),
		formatFloat(ev.TNTMegatons),
	}
}

// formatFloat keeps full precision; energies and sizes span many decades.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloats(rec []string) []float64 {
	out := make([]float64, len(rec))
	for i, field := range rec {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		out[i] = v
	}
	return out
}
