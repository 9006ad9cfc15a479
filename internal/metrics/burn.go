package metrics

import (
	"math"

	"github.com/san-kum/meteorsim/internal/sim"
)

// PeakBurn is the highest burn intensity reached by any body.
type PeakBurn struct {
	peak    float64
	burning int
}

func NewPeakBurn() *PeakBurn {
	return &PeakBurn{}
}

func (p *PeakBurn) Name() string { return "peak_burn" }

func (p *PeakBurn) OnStep(snap *sim.Snapshot) {
	for _, b := range snap.Bodies {
		if !b.Burning {
			continue
		}
		p.burning++
		p.peak = math.Max(p.peak, b.BurnIntensity)
	}
}

func (p *PeakBurn) Value() float64 { return p.peak }

// BurningSamples counts body-steps spent burning.
func (p *PeakBurn) BurningSamples() int { return p.burning }

func (p *PeakBurn) Reset() {
	p.peak = 0
	p.burning = 0
}
