package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/meteorsim/internal/dynamo"
	"github.com/san-kum/meteorsim/internal/physics"
	"github.com/san-kum/meteorsim/internal/sim"
)

func testModel() (Model, *sim.Simulation) {
	s := sim.New()
	m := NewModel(s, Options{
		Title: "test",
		Initial: func() []sim.BodySpec {
			return []sim.BodySpec{
				{Position: dynamo.Vec3{Y: physics.EarthRadius + 20}, Size: 0.01},
				{Position: dynamo.Vec3{X: 10}, Size: 0.01},
			}
		},
		Spawn: func() sim.BodySpec {
			return sim.BodySpec{Position: dynamo.Vec3{X: physics.EarthRadius + 30}, Size: 0.01}
		},
	})
	return m, s
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	if key == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func tickModel(m Model) Model {
	next, _ := m.Update(TickMsg(time.Now()))
	return next.(Model)
}

func TestModelSpawnsInitialBodies(t *testing.T) {
	_, s := testModel()
	if s.Len() != 2 {
		t.Fatalf("expected 2 bodies, got %d", s.Len())
	}
}

func TestModelTickStepsAndRecordsImpacts(t *testing.T) {
	m, s := testModel()
	m = tickModel(m)

	if s.Time() <= 0 {
		t.Error("expected simulated time to advance")
	}
	if s.Len() != 1 || m.lastImpact == nil {
		t.Fatalf("expected the body inside the primary to impact, len=%d", s.Len())
	}
	if len(m.craters) != 1 {
		t.Errorf("expected 1 crater, got %d", len(m.craters))
	}
	if !strings.Contains(m.View(), "Last") {
		t.Error("expected the last impact in the HUD")
	}
}

func TestModelPause(t *testing.T) {
	m, s := testModel()
	m = press(m, " ")
	if !m.paused {
		t.Fatal("expected paused")
	}
	m = tickModel(m)
	if s.Time() != 0 || s.Len() != 2 {
		t.Error("paused tick must not advance the simulation")
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("expected PAUSED in the HUD")
	}
}

func TestModelTimeScale(t *testing.T) {
	m, _ := testModel()
	for i := 0; i < 50; i++ {
		m = press(m, "+")
	}
	if m.timeScale != sim.MaxTimeScale {
		t.Errorf("expected time scale clamped to %v, got %v", sim.MaxTimeScale, m.timeScale)
	}
	for i := 0; i < 50; i++ {
		m = press(m, "-")
	}
	if m.timeScale != sim.MinTimeScale {
		t.Errorf("expected time scale clamped to %v, got %v", sim.MinTimeScale, m.timeScale)
	}
}

func TestModelSpawnAndReset(t *testing.T) {
	m, s := testModel()
	m = press(m, "s")
	if s.Len() != 3 {
		t.Fatalf("expected 3 bodies after spawn, got %d", s.Len())
	}

	m = tickModel(m)
	m = press(m, "r")
	if s.Len() != 2 {
		t.Errorf("expected the initial 2 bodies after reset, got %d", s.Len())
	}
	if s.Stats().Impacts != 0 || m.lastImpact != nil || len(m.craters) != 0 {
		t.Error("expected reset to clear impacts")
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := testModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
