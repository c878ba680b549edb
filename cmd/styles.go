package cmd

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	runningColor = lipgloss.Color("#10B981") // Green
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

// styles renders against the command's output writer, so anything that is
// not a terminal gets plain text.
type styles struct {
	activity lipgloss.Style
	running  lipgloss.Style
	muted    lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		activity: r.NewStyle().Bold(true),
		running:  r.NewStyle().Foreground(runningColor).Bold(true),
		muted:    r.NewStyle().Foreground(mutedColor),
	}
}

// name renders a quoted activity name.
func (s styles) name(activity string) string {
	return "'" + s.activity.Render(activity) + "'"
}
