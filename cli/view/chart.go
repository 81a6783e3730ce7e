package view

import (
	"strings"

	"vigil/cli/style"
)

// Chart is the uptime-trend widget boundary: it accepts an ordered
// label/value series and renders opaquely. The renderer does not care
// how the series is drawn.
type Chart interface {
	SetSeries(labels []string, values []float64)
	View() string
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the series as a block-rune bar row scaled 0–100, one
// bar per entry. Labels are not drawn; the service cards carry the names.
type Sparkline struct {
	values []float64
}

func NewSparkline() *Sparkline {
	return &Sparkline{}
}

func (s *Sparkline) SetSeries(_ []string, values []float64) {
	s.values = append(s.values[:0], values...)
}

func (s *Sparkline) View() string {
	if len(s.values) == 0 {
		return ""
	}
	var bars strings.Builder
	for _, v := range s.values {
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		idx := int(v / 100 * float64(len(sparks)-1))
		bars.WriteRune(sparks[idx])
	}
	return style.DimText.Render("Uptime ") + style.Healthy.Render(bars.String())
}
