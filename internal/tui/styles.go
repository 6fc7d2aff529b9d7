package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	// HintStyle styles follow-up commands printed after a run.
	HintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	good    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	active  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	bad     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	statusStyles = map[string]lipgloss.Style{
		"ok":         good,
		"created":    good,
		"updated":    good,
		"installed":  good,
		"downloaded": good,
		"complete":   good,

		"checking":    active,
		"downloading": active,
		"installing":  active,
		"creating":    active,
		"updating":    active,

		"skipped": warning,
		"warning": warning,
		"missing": warning,

		"error":    bad,
		"failed":   bad,
		"declined": bad,

		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
