// Package style holds the terminal styles shared by the list output and the
// interactive editor.
package style

import "github.com/charmbracelet/lipgloss"

var (
	Accent  = lipgloss.Color("#7D56F4")
	Muted   = lipgloss.Color("#8A8A8A")
	Warning = lipgloss.Color("#E5C07B")
	Danger  = lipgloss.Color("#E06C75")
	Success = lipgloss.Color("#98C379")
)

// Styles groups the rendering styles.
type Styles struct {
	Title      lipgloss.Style
	Section    lipgloss.Style
	Name       lipgloss.Style
	Type       lipgloss.Style
	Origin     lipgloss.Style
	Deprecated lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
	Status     lipgloss.Style
}

// Default returns the launcher's styles.
func Default() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true),
		Section: lipgloss.NewStyle().
			Bold(true).
			Underline(true),
		Name: lipgloss.NewStyle().
			Foreground(Accent),
		Type: lipgloss.NewStyle().
			Foreground(Muted),
		Origin: lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true),
		Deprecated: lipgloss.NewStyle().
			Foreground(Warning),
		Selected: lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(Muted),
		Status: lipgloss.NewStyle().
			Foreground(Success),
	}
}
