package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles text-mode rendering uses.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style

	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style

	// FilePath highlights project-relative paths in reports.
	FilePath lipgloss.Style

	// StatusSuccess and StatusFailed carry their icon as the style string;
	// render them with String().
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds the style set. With colored false every style renders
// plain, which keeps piped and captured output free of escape codes.
func NewStyles(colored bool) *Styles {
	s := &Styles{
		StatusSuccess: lipgloss.NewStyle().SetString("✓"),
		StatusFailed:  lipgloss.NewStyle().SetString("✗"),
	}
	if !colored {
		return s
	}

	s.Header1 = lipgloss.NewStyle().Bold(true).Underline(true)
	s.Header2 = lipgloss.NewStyle().Bold(true)
	s.Bold = lipgloss.NewStyle().Bold(true)
	s.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	s.Error = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	s.Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	s.Info = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	s.Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	s.FilePath = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	s.StatusSuccess = s.StatusSuccess.Foreground(lipgloss.Color("2"))
	s.StatusFailed = s.StatusFailed.Foreground(lipgloss.Color("1"))
	return s
}
