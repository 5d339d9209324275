package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	Canvas   lipgloss.Style
	Stats    lipgloss.Style
	Header   lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Graph    lipgloss.Style
	Help     lipgloss.Style
	Running  lipgloss.Style
	Paused   lipgloss.Style
	Failed   lipgloss.Style
	Recorded lipgloss.Style
}

func NewStyles(t Theme) Styles {
	stats := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(t.Muted).
		Padding(1, 2).
		Width(45)

	return Styles{
		Canvas:   lipgloss.NewStyle().Padding(1, 2).Foreground(t.Particle),
		Stats:    stats,
		Header:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		Label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:    lipgloss.NewStyle().Foreground(t.Text),
		Graph:    lipgloss.NewStyle().Foreground(t.Success).Padding(1, 0),
		Help:     lipgloss.NewStyle().Foreground(t.Muted).MarginTop(2),
		Running:  lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Failed:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Recorded: lipgloss.NewStyle().Bold(true).Foreground(t.Error).Blink(true),
	}
}

// ProgressBar renders fraction done as a bar of the given width.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Sparkline maps values onto block characters, sampling to fit width.
// Non-finite values render as a space.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := 0.0, 0.0
	first := true
	for _, v := range values {
		if !finite(v) {
			continue
		}
		if first || v < lo {
			lo = v
		}
		if first || v > hi {
			hi = v
		}
		first = false
	}

	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		v := values[i*step]
		if !finite(v) {
			result.WriteRune(' ')
			continue
		}
		idx := int((v - lo) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		result.WriteRune(chars[idx])
	}
	return result.String()
}
