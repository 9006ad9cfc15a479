// Package catalog keeps every recorded impact in a SQLite database shared
// across runs.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS impacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	body_id INTEGER NOT NULL,
	step INTEGER NOT NULL,
	time REAL NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	speed REAL NOT NULL,
	mass REAL NOT NULL,
	energy REAL NOT NULL,
	tnt_megatons REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS impacts_run ON impacts (run_id);
CREATE INDEX IF NOT EXISTS impacts_energy ON impacts (energy);`

// Entry is one stored impact. Latitude and longitude are in degrees on the
// primary, speed in m/s.
type Entry struct {
	ID          int64   `json:"id"`
	RunID       string  `json:"run_id"`
	BodyID      uint64  `json:"body_id"`
	Step        int     `json:"step"`
	Time        float64 `json:"time"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Speed       float64 `json:"speed"`
	Mass        float64 `json:"mass"`
	Energy      float64 `json:"energy"`
	TNTMegatons float64 `json:"tnt_megatons"`
}

type Filter struct {
	RunID     string
	MinEnergy float64
	Limit     int
}

type Summary struct {
	Runs        int     `json:"runs"`
	Impacts     int     `json:"impacts"`
	TotalEnergy float64 `json:"total_energy"`
	MeanEnergy  float64 `json:"mean_energy"`
	MaxEnergy   float64 `json:"max_energy"`
}

type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog at path. ":memory:" gives a private
// in-memory catalog.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a second connection to :memory: would see an empty database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record stores the impacts of one run in a single transaction.
func (c *Catalog) Record(ctx context.Context, runID string, events []sim.ImpactEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx, span := otel.Tracer("github.com/san-kum/meteorsim/internal/catalog").Start(ctx, "catalog.Record")
	span.SetAttributes(attribute.String("run_id", runID), attribute.Int("impacts", len(events)))
	defer span.End()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO impacts
		(run_id, body_id, step, time, latitude, longitude, speed, mass, energy, tnt_megatons)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		lat, lon := LatLon(ev.Position)
		_, err := stmt.ExecContext(ctx, runID, int64(ev.BodyID), ev.Step, ev.Time,
			lat, lon, physics.ToMeters(ev.Velocity.Norm()), ev.Mass, ev.Energy, ev.TNTMegatons)
		if err != nil {
			return fmt.Errorf("record body %d: %w", ev.BodyID, err)
		}
	}

	return tx.Commit()
}

// List returns impacts matching f, most energetic first.
func (c *Catalog) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.MinEnergy > 0 {
		where = append(where, "energy >= ?")
		args = append(args, f.MinEnergy)
	}

	query := `SELECT id, run_id, body_id, step, time, latitude, longitude, speed, mass, energy, tnt_megatons FROM impacts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY energy DESC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var body int64
		if err := rows.Scan(&e.ID, &e.RunID, &body, &e.Step, &e.Time, &e.Latitude, &e.Longitude,
			&e.Speed, &e.Mass, &e.Energy, &e.TNTMegatons); err != nil {
			return nil, err
		}
		e.BodyID = uint64(body)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (c *Catalog) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	row := c.db.QueryRowContext(ctx, `SELECT
		COUNT(DISTINCT run_id), COUNT(*), COALESCE(SUM(energy), 0), COALESCE(MAX(energy), 0)
		FROM impacts`)
	if err := row.Scan(&s.Runs, &s.Impacts, &s.TotalEnergy, &s.MaxEnergy); err != nil {
		return Summary{}, err
	}
	if s.Impacts > 0 {
		s.MeanEnergy = s.TotalEnergy / float64(s.Impacts)
	}
	return s, nil
}

// LatLon returns the latitude and longitude in degrees of a point
// relative to the origin, with +Z as the north pole.
func LatLon(pos dynamo.Vec3) (float64, float64) {
	r := pos.Norm()
	if r == 0 {
		return 0, 0
	}
	lat := math.Asin(math.Max(-1, math.Min(1, pos.Z/r)))
	lon := math.Atan2(pos.Y, pos.X)
	return lat * 180 / math.Pi, lon * 180 / math.Pi
}
