package sim

import (
	"fmt"

	"github.com/san-kum/meteorsim/internal/dynamo"
)

// BodyHandle identifies a spawned body for the lifetime of a Simulation
// (until RemoveAll).
type BodyHandle uint64

// Status is the lifecycle state of a body.
type Status int

const (
	Active Status = iota
	Impacted
	Removed
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Impacted:
		return "impacted"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// BodySpec is a spawn request. Mass is derived from Size.
type BodySpec struct {
	Position dynamo.Vec3 `yaml:"position" json:"position"`
	Velocity dynamo.Vec3 `yaml:"velocity" json:"velocity"`
	Size     float64     `yaml:"size" json:"size"` // radius, scene units
}

// Body is a meteor owned by a Simulation. Mass and size are fixed at spawn;
// only the kinematic and thermal fields change.
type Body struct {
	id   BodyHandle
	mass float64
	size float64

	Position      dynamo.Vec3
	Velocity      dynamo.Vec3
	Burning       bool
	BurnIntensity float64
}

func (b *Body) ID() BodyHandle { return b.id }
func (b *Body) Mass() float64  { return b.mass }
func (b *Body) Size() float64  { return b.size }

// BodyState is a read-only copy of a body handed to consumers.
type BodyState struct {
	ID            BodyHandle  `json:"id"`
	Position      dynamo.Vec3 `json:"position"`
	Velocity      dynamo.Vec3 `json:"velocity"`
	Mass          float64     `json:"mass"`
	Size          float64     `json:"size"`
	Altitude      float64     `json:"altitude"` // m above the primary's surface
	Speed         float64     `json:"speed"`    // m/s
	Burning       bool        `json:"burning"`
	BurnIntensity float64     `json:"burn_intensity"`
}

// ImpactEvent records a body reaching the primary's surface.
type ImpactEvent struct {
	BodyID      BodyHandle  `json:"body_id"`
	Position    dynamo.Vec3 `json:"position"`
	Velocity    dynamo.Vec3 `json:"velocity"`
	Mass        float64     `json:"mass"`
	Energy      float64     `json:"energy"` // J
	TNTMegatons float64     `json:"tnt_megatons"`
	Time        float64     `json:"time"`
	Step        int         `json:"step"`
}

// Stats accumulates over the lifetime of a Simulation and is cleared by
// RemoveAll.
type Stats struct {
	Spawned     int
	Impacts     int
	Removed     int
	Rejected    int // body updates discarded as non-finite
	Steps       int
	TotalEnergy float64
	MaxEnergy   float64
	LastImpact  ImpactEvent
}

// Snapshot is the state handed to observers after every non-paused step.
type Snapshot struct {
	Step    int
	Time    float64
	Bodies  []BodyState
	Impacts []ImpactEvent
}

// Observer receives a snapshot after each step.
type Observer interface {
	OnStep(snap *Snapshot)
}

// Resetter is implemented by observers holding accumulators that RemoveAll
// must clear.
type Resetter interface {
	Reset()
}

// Metric is a named scalar accumulated from snapshots.
type Metric interface {
	Observer
	Name() string
	Value() float64
	Reset()
}
