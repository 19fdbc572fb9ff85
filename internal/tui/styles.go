package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/audiopin/internal/tui/theme"
)

// styles is the set of lipgloss styles derived from a theme
type styles struct {
	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Item      lipgloss.Style
	Selected  lipgloss.Style
	Current   lipgloss.Style
	Missing   lipgloss.Style
	Pinned    lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Box       lipgloss.Style
}

func newStyles(t theme.Theme) styles {
	return styles{
		Title:     lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		Tab:       lipgloss.NewStyle().Foreground(t.Overlay).Padding(0, 1),
		ActiveTab: lipgloss.NewStyle().Foreground(t.Base).Background(t.Primary).Bold(true).Padding(0, 1),
		Item:      lipgloss.NewStyle().Foreground(t.Text),
		Selected:  lipgloss.NewStyle().Foreground(t.Text).Background(t.Surface0).Bold(true),
		Current:   lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Missing:   lipgloss.NewStyle().Foreground(t.Overlay).Strikethrough(true),
		Pinned:    lipgloss.NewStyle().Foreground(t.Pinned).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(t.Subtext),
		Error:     lipgloss.NewStyle().Foreground(t.Error),
		Success:   lipgloss.NewStyle().Foreground(t.Success),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Surface1).
			Padding(0, 1),
	}
}
