package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles derived from the active theme.
func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(currentTheme.Primary)
}

func headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(currentTheme.Text).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(currentTheme.Muted)
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(currentTheme.Muted)
}

func valueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(currentTheme.Accent)
}

func passStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(currentTheme.Success)
}

func warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(currentTheme.Warning)
}

func failStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(currentTheme.Error)
}

func panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(currentTheme.Muted).
		Padding(0, 1)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as a row of block characters, sampled down to
// at most width cells. Non-finite values render as a space.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 || math.IsInf(rng, 0) {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		v := values[i*step]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteRune(' ')
			continue
		}
		idx := int(math.Round((v - lo) / rng * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// Separator is a muted horizontal rule.
func Separator(width int) string {
	if width < 8 {
		return labelStyle().Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return labelStyle().Render(strings.Repeat("─", mid-2) + " ◆ " + strings.Repeat("─", width-mid-1))
}
