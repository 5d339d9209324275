package viz

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/metrics"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	maxStepsPerTick = 64
)

type TickMsg time.Time

// Model steps a simulation on every tick and draws it.
type Model struct {
	acc           dynamo.Accelerator
	integrator    dynamo.Integrator
	mass          float64
	title         string
	initial       *dynamo.State
	state         *dynamo.State
	t, dt         float64
	stepsPerTick  int
	steps         int
	err           error
	width, height int
	canvas        *Canvas
	theme         Theme
	styles        Styles
	running       bool
	energyHistory []float64
	recording     bool
	frames        []*image.Paletted
	gifPath       string
	showHelp      bool
}

// NewModel prepares a live view of x0. mass is used for the energy graph.
func NewModel(acc dynamo.Accelerator, integ dynamo.Integrator, x0 *dynamo.State, dt, mass float64, title string) Model {
	theme := Themes[0]
	return Model{
		acc:           acc,
		integrator:    integ,
		mass:          mass,
		title:         title,
		initial:       x0.Clone(),
		state:         x0.Clone(),
		dt:            dt,
		stepsPerTick:  1,
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		theme:         theme,
		styles:        NewStyles(theme),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		gifPath:       "scarf.gif",
	}
}

// WithStepsPerTick returns a copy of m that advances n steps per frame.
func (m Model) WithStepsPerTick(n int) Model {
	m.stepsPerTick = max(1, min(n, maxStepsPerTick))
	return m
}

// State returns the current state and simulated time.
func (m Model) State() (*dynamo.State, float64) { return m.state, m.t }

// Err returns the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "up", "k":
			m.scaleDensity(1.05)
		case "down", "j":
			m.scaleDensity(0.95)
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "t":
			m.theme = m.theme.Next()
			m.styles = NewStyles(m.theme)
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPerTick && m.running; i++ {
				m.step()
			}
		}
		m.draw()
		if m.recording {
			m.frames = append(m.frames, canvasImage(m.canvas))
		}
		return m, tick()
	}
	return m, nil
}

// step advances one time step. A failed or non-finite step pauses the view
// and keeps the last good state on screen.
func (m *Model) step() {
	next, err := m.integrator.Step(m.acc, m.state, m.dt)
	if err == nil && !next.IsValid() {
		err = dynamo.ErrInvalidState
	}
	if err != nil {
		m.err = &dynamo.SimulationError{Step: m.steps, Time: m.t, Wrapped: err}
		m.running = false
		return
	}

	m.state = next
	m.t += m.dt
	m.steps++

	m.energyHistory = append(m.energyHistory, metrics.Kinetic(next, m.mass))
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

// scaleDensity changes the reference density used from the next step on.
func (m *Model) scaleDensity(factor float64) {
	next := m.state.Clone()
	next.ReferenceDensity *= factor
	m.state = next
}

func (m *Model) reset() {
	m.state = m.initial.Clone()
	m.t = 0
	m.steps = 0
	m.err = nil
	m.running = true
	m.energyHistory = m.energyHistory[:0]
}

func (m *Model) draw() {
	m.canvas.Clear()
	w, h := m.canvas.Pixels()
	NewProjection(m.state.Boundary, m.state.Positions, w, h).Plot(m.canvas, m.state)
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.Failed.Render("DIVERGED")
	case !m.running:
		return m.styles.Paused.Render("PAUSED")
	default:
		return m.styles.Running.Render("RUNNING")
	}
}

func (m Model) View() string {
	st := m.styles
	row := func(label, value string) string {
		return st.Label.Render(label) + st.Value.Render(value) + "\n"
	}

	var s strings.Builder
	s.WriteString(st.Header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status())
	if m.recording {
		s.WriteString("  " + st.Recorded.Render("● REC"))
	}
	s.WriteString("\n\n")

	if history := finiteTail(m.energyHistory); len(history) > 1 {
		chart := asciigraph.Plot(history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.Graph.Render(chart) + "\n\n")
	}

	s.WriteString(row("Time", fmt.Sprintf("%.4fs", m.t)))
	s.WriteString(row("Steps", fmt.Sprintf("%d (x%d)", m.steps, m.stepsPerTick)))
	s.WriteString(row("Particles", fmt.Sprintf("%d", m.state.Len())))
	s.WriteString(row("Energy", fmt.Sprintf("%.4g", metrics.Kinetic(m.state, m.mass))))
	s.WriteString(row("Density", fmt.Sprintf("%.4g", m.state.ReferenceDensity)))
	s.WriteString(row("Profile", Sparkline(HeightProfile(m.state, 24), 24)))
	if m.err != nil {
		s.WriteString("\n" + st.Failed.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.Help.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nT:Theme  G:Record ?:Help\n↑↓:Density +-:Speed"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, st.Canvas.Render(m.canvas.String()), st.Stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  Up/K     - Reference density +5%    ║
║  Down/J   - Reference density -5%    ║
║  + / -    - Steps per frame x2 / /2  ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// HeightProfile counts particles in bins of equal height across the
// boundary, bottom first.
func HeightProfile(x *dynamo.State, bins int) []float64 {
	counts := make([]float64, bins)
	b := x.Boundary
	if b.Empty() || bins == 0 {
		return counts
	}
	size := b.Size().Y
	for _, p := range x.Positions {
		if !p.IsFinite() || p.Y < b.Min.Y || p.Y > b.Max.Y {
			continue
		}
		i := min(int((p.Y-b.Min.Y)/size*float64(bins)), bins-1)
		counts[i]++
	}
	return counts
}

// finiteTail returns the values after the last non-finite one.
func finiteTail(values []float64) []float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !finite(values[i]) {
			return values[i+1:]
		}
	}
	return values
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
