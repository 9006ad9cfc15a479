package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 120
	trailLength     = 40
	timeScaleFactor = 1.5
)

type TickMsg time.Time

// Options configures the live view. Initial is spawned at start and after
// every reset; Spawn supplies one extra body on demand.
type Options struct {
	Title     string
	Dt        float64
	TimeScale float64
	Initial   func() []sim.BodySpec
	Spawn     func() sim.BodySpec
	Log       logging.Logger
}

type point struct{ x, y int }

// Model renders a Simulation on a braille canvas with a HUD beside it. It
// only consumes simulation state; all physics happens in sim.
type Model struct {
	sim        *sim.Simulation
	opts       Options
	canvas     *Canvas
	timeScale  float64
	paused     bool
	viewRadius float64
	trails     map[sim.BodyHandle][]point
	craters    []point
	energies   []float64
	lastImpact *sim.ImpactEvent
	err        error
	showHelp   bool
}

func NewModel(s *sim.Simulation, opts Options) Model {
	if opts.Dt <= 0 {
		opts.Dt = sim.FrameDt
	}
	if opts.TimeScale <= 0 {
		opts.TimeScale = 1
	}
	if opts.Log == nil {
		opts.Log = logging.Noop()
	}
	m := Model{
		sim:       s,
		opts:      opts,
		canvas:    NewCanvas(width, height),
		timeScale: sim.ClampTimeScale(opts.TimeScale),
		trails:    make(map[sim.BodyHandle][]point),
	}
	m.reset()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "+", "=":
			m.timeScale = sim.ClampTimeScale(m.timeScale * timeScaleFactor)
		case "-", "_":
			m.timeScale = sim.ClampTimeScale(m.timeScale / timeScaleFactor)
		case "s":
			m.spawnOne()
		case "r":
			m.reset()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.step()
		m.draw()
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	events, err := m.sim.Step(m.opts.Dt, m.timeScale, m.paused)
	if err != nil {
		m.err = err
		m.paused = true
		return
	}
	for i := range events {
		ev := events[i]
		m.lastImpact = &ev
		m.craters = append(m.craters, m.project(ev.Position))
		m.energies = append(m.energies, math.Log10(math.Max(ev.Energy, 1)))
		if len(m.energies) > historyCapacity {
			m.energies = m.energies[1:]
		}
		delete(m.trails, ev.BodyID)
	}
}

func (m *Model) spawnOne() {
	if m.opts.Spawn == nil {
		return
	}
	if _, err := m.sim.Spawn(m.opts.Spawn()); err != nil {
		m.opts.Log.Warn("spawn failed", logging.Err(err))
	}
}

// reset clears the simulation and spawns the initial bodies again.
func (m *Model) reset() {
	m.sim.RemoveAll()
	m.trails = make(map[sim.BodyHandle][]point)
	m.craters = m.craters[:0]
	m.energies = m.energies[:0]
	m.lastImpact = nil
	m.err = nil

	if m.opts.Initial != nil {
		for _, spec := range m.opts.Initial() {
			if _, err := m.sim.Spawn(spec); err != nil {
				m.opts.Log.Warn("spawn failed", logging.Err(err))
			}
		}
	}
	m.viewRadius = m.fitView()
	m.draw()
}

// fitView returns the scene radius that keeps the primary and every body
// on screen.
func (m *Model) fitView() float64 {
	primary := m.sim.Primary()
	r := primary.Radius * 1.3
	for _, b := range m.sim.Bodies() {
		r = math.Max(r, primary.Distance(b.Position)*1.1)
	}
	return r
}

// project maps scene X/Y onto canvas pixels with the primary at the center.
func (m *Model) project(pos dynamo.Vec3) point {
	cw, ch := m.canvas.Pixels()
	scale := float64(min(cw, ch)) / 2 / m.viewRadius
	rel := pos.Sub(m.sim.Primary().Position)
	return point{cw/2 + int(rel.X*scale), ch/2 - int(rel.Y*scale)}
}

func (m *Model) pixels(units float64) int {
	cw, ch := m.canvas.Pixels()
	return int(units * float64(min(cw, ch)) / 2 / m.viewRadius)
}

func (m *Model) draw() {
	m.canvas.Clear()
	primary := m.sim.Primary()
	center := m.project(primary.Position)

	m.canvas.DrawCircle(center.x, center.y, m.pixels(primary.Radius), 1)
	if atm := m.sim.Atmosphere(); atm != nil {
		top := primary.Radius + physics.ToUnits(atm.MaxAltitude())
		m.canvas.DrawCircle(center.x, center.y, m.pixels(top), 4)
	}
	for _, a := range m.sim.Gravity().Attractors()[1:] {
		p := m.project(a.Position)
		m.canvas.FillCircle(p.x, p.y, max(1, m.pixels(a.Radius)))
	}

	for _, c := range m.craters {
		m.canvas.DrawLine(c.x-1, c.y-1, c.x+1, c.y+1)
		m.canvas.DrawLine(c.x-1, c.y+1, c.x+1, c.y-1)
	}

	for _, b := range m.sim.Bodies() {
		p := m.project(b.Position)
		trail := append(m.trails[b.ID], p)
		if len(trail) > trailLength {
			trail = trail[1:]
		}
		m.trails[b.ID] = trail
		for _, t := range trail {
			m.canvas.Set(t.x, t.y)
		}
		if b.Burning {
			m.canvas.FillCircle(p.x, p.y, 1+int(2*b.BurnIntensity))
		} else {
			m.canvas.Set(p.x, p.y)
		}
	}
}

// View renders the canvas and HUD.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	title := m.opts.Title
	if title == "" {
		title = "meteorsim"
	}
	s.WriteString(headerStyle.Render(strings.ToUpper(title)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(impactStyle.Render("ERROR: "+m.err.Error()) + "\n\n")
	case m.paused:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	default:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	}

	stats := m.sim.Stats()
	bodies := m.sim.Bodies()
	burning, hottest := 0, 0.0
	var nearest *sim.BodyState
	for i := range bodies {
		b := &bodies[i]
		if b.Burning {
			burning++
			hottest = math.Max(hottest, b.BurnIntensity)
		}
		if nearest == nil || b.Altitude < nearest.Altitude {
			nearest = b
		}
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.1fs", m.sim.Time()))
	row("Scale", fmt.Sprintf("%.2fx", m.timeScale))
	row("Bodies", fmt.Sprintf("%d (%d burning)", len(bodies), burning))
	row("Impacts", fmt.Sprintf("%d", stats.Impacts))
	row("Energy", fmt.Sprintf("%.3g J", stats.TotalEnergy))
	if m.lastImpact != nil {
		s.WriteString(labelStyle.Render("Last") +
			impactStyle.Render(fmt.Sprintf("%.3g J (%.3g Mt)", m.lastImpact.Energy, m.lastImpact.TNTMegatons)) + "\n")
	}
	s.WriteString(labelStyle.Render("Heat") + HeatBar(hottest, 20) + "\n")

	if nearest != nil {
		c := m.sim.AtmosphereAt(m.sim.Primary().Radius + physics.ToUnits(nearest.Altitude))
		s.WriteString("\nNEAREST BODY\n")
		row("Altitude", fmt.Sprintf("%.1f km", nearest.Altitude/1000))
		row("Speed", fmt.Sprintf("%.2f km/s", nearest.Speed/1000))
		row("Density", fmt.Sprintf("%.3g kg/m³", c.Density))
		row("Temp", fmt.Sprintf("%.0f K", c.Temperature))
		row("Wind", fmt.Sprintf("%.0f m/s", c.Wind))
	}

	if len(m.energies) > 1 {
		chart := asciigraph.Plot(m.energies, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("log10 impact energy (J)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause +/-:Speed S:Spawn\nR:Reset ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, hudStyle.Render(s.String()))
	if m.showHelp {
		return `
  Space  pause / resume
  + -    change time scale
  s      spawn a body
  r      clear and respawn
  q      quit
` + "\n" + mainView
	}
	return mainView
}

// Run starts the live view and blocks until the user quits.
func Run(s *sim.Simulation, opts Options) error {
	p := tea.NewProgram(NewModel(s, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
