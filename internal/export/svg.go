package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/meteorsim/internal/experiment"
	"github.com/san-kum/meteorsim/internal/sim"
)

// SVGOptions controls the trajectory image.
type SVGOptions struct {
	Size          int     // width and height in px
	PrimaryRadius float64 // scene units
	Stroke        string
}

func DefaultSVGOptions(primaryRadius float64) SVGOptions {
	return SVGOptions{Size: 800, PrimaryRadius: primaryRadius, Stroke: "#00ff00"}
}

// TrajectorySVG draws the X/Y projection of every sampled body as a path,
// the primary as a disc at the origin and each impact as a red marker.
func TrajectorySVG(w io.Writer, samples []experiment.Sample, impacts []sim.ImpactEvent, opts SVGOptions) error {
	if opts.Size <= 0 {
		return fmt.Errorf("svg size must be positive, got %d", opts.Size)
	}
	if opts.Stroke == "" {
		opts.Stroke = "#00ff00"
	}

	paths := make(map[sim.BodyHandle][]sim.BodyState)
	extent := opts.PrimaryRadius
	for _, s := range samples {
		paths[s.ID] = append(paths[s.ID], s.BodyState)
		extent = math.Max(extent, math.Max(math.Abs(s.Position.X), math.Abs(s.Position.Y)))
	}
	if extent <= 0 {
		extent = 1
	}
	extent *= 1.1

	size := float64(opts.Size)
	project := func(x, y float64) (float64, float64) {
		return (x/extent + 1) * size / 2, (1 - y/extent) * size / 2
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Size, opts.Size, opts.Size, opts.Size)

	cx, cy := project(0, 0)
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#1e3a5f"/>
`, cx, cy, opts.PrimaryRadius/extent*size/2)

	ids := make([]sim.BodyHandle, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		states := paths[id]
		if len(states) < 2 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, opts.Stroke)
		for i, st := range states {
			x, y := project(st.Position.X, st.Position.Y)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	for _, ev := range impacts {
		x, y := project(ev.Position.X, ev.Position.Y)
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="4" fill="#ff3030"/>
`, x, y)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
