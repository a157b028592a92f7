package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/milad/co2info/internal/domain"
	"github.com/milad/co2info/internal/service"
)

// styles colour output by classification. The renderer is bound to the
// session writer, so non-terminal writers get plain text.
type styles struct {
	title     lipgloss.Style
	muted     lipgloss.Style
	healthy   lipgloss.Style
	unhealthy lipgloss.Style
	broken    lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:     r.NewStyle().Bold(true),
		muted:     r.NewStyle().Foreground(lipgloss.Color("245")),
		healthy:   r.NewStyle().Foreground(lipgloss.Color("78")),  // soft green
		unhealthy: r.NewStyle().Foreground(lipgloss.Color("208")), // orange
		broken:    r.NewStyle().Foreground(lipgloss.Color("196")), // red
	}
}

func (st styles) forClass(c domain.Class) lipgloss.Style {
	switch c {
	case domain.ClassUnhealthy:
		return st.unhealthy
	case domain.ClassBroken:
		return st.broken
	default:
		return st.healthy
	}
}

func (st styles) renderAverages(sums []service.MeterSummary) string {
	var b strings.Builder
	b.WriteString(st.title.Render("Average ppm readings:"))
	b.WriteByte('\n')
	for _, s := range sums {
		if !s.HasAverage {
			fmt.Fprintf(&b, "%s: %s\n", s.Name, st.muted.Render("no valid readings"))
			continue
		}
		fmt.Fprintf(&b, "%s: %.1f ppm\n", s.Name, s.Average)
	}
	return b.String()
}

// renderReadings groups readings under their meter name, keeping the order
// they were given in.
func (st styles) renderReadings(title string, readings []service.MeterReading) string {
	var b strings.Builder
	b.WriteString(st.title.Render(title))
	b.WriteByte('\n')
	if len(readings) == 0 {
		b.WriteString(st.muted.Render("(none)"))
		b.WriteByte('\n')
		return b.String()
	}

	current := ""
	for i, r := range readings {
		if i == 0 || r.Meter != current {
			current = r.Meter
			b.WriteString(current)
			b.WriteByte('\n')
		}
		b.WriteString("  ")
		b.WriteString(st.renderReading(r))
		b.WriteByte('\n')
	}
	return b.String()
}

func (st styles) renderMeter(s service.MeterSummary, readings []service.MeterReading) string {
	var b strings.Builder
	b.WriteString(st.title.Render(s.Name))
	b.WriteByte('\n')
	avg := "no valid readings"
	if s.HasAverage {
		avg = fmt.Sprintf("%.1f ppm", s.Average)
	}
	fmt.Fprintf(&b, "%s\n", st.muted.Render(fmt.Sprintf(
		"%d readings, average %s, %d unhealthy, %d broken", s.Readings, avg, s.Unhealthy, s.Broken,
	)))
	for _, r := range readings {
		b.WriteString("  ")
		b.WriteString(st.renderReading(r))
		b.WriteByte('\n')
	}
	return b.String()
}

func (st styles) renderReading(r service.MeterReading) string {
	var value string
	switch {
	case r.HasValue:
		value = strconv.FormatFloat(r.Value, 'f', -1, 64) + " ppm"
	case r.Raw == "":
		value = "(empty)"
	default:
		value = strconv.Quote(r.Raw)
	}
	if r.Class == domain.ClassBroken {
		value += domain.BrokenMarker
	}
	return r.Time.Format(domain.TimeLayout) + "  " + st.forClass(r.Class).Render(value)
}
