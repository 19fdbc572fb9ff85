package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/Dicklesworthstone/audiopin/internal/pin"
)

const (
	defaultWidth = 48
	maxNameWidth = 36
)

func (m Model) contentWidth() int {
	w := m.width
	if w <= 0 {
		w = defaultWidth
	}
	// border and padding
	if w > 4 {
		w -= 4
	}
	return w
}

func (m Model) tabs() string {
	render := func(s Surface) string {
		label := s.String()
		if s == m.surface {
			return m.styles.ActiveTab.Render(label)
		}
		return m.styles.Tab.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, render(SurfaceMain), render(SurfacePrefs))
}

func (m Model) pinLine() string {
	switch m.pin.Mode {
	case pin.PinnedManual:
		return m.styles.Pinned.Render("● pinned")
	case pin.PinnedCountdown:
		return m.styles.Pinned.Render(fmt.Sprintf("● pinned · unpins in %ds", m.pin.Remaining))
	default:
		return m.styles.Muted.Render("○ not pinned")
	}
}

func (m Model) footer() string {
	var b strings.Builder
	if m.status != "" {
		style := m.styles.Success
		if m.statusErr {
			style = m.styles.Error
		}
		b.WriteString(style.Render(wordwrap.String(m.status, m.contentWidth())))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) mainView() string {
	if m.hidden {
		line := m.styles.Muted.Render("audiopin hidden")
		if m.current != "" {
			line += m.styles.Muted.Render(" · ") + m.styles.Current.Render(truncate(m.current, maxNameWidth))
		}
		return line + "\n" + m.styles.Muted.Render("press ? for keys") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.tabs())
	b.WriteString("\n\n")

	header := m.pinLine()
	if m.passthrough {
		header += "  " + m.styles.Error.Render("passthrough")
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(m.styles.Muted.Render(wordwrap.String("No devices configured. Press tab to add some.", m.contentWidth())))
		b.WriteString("\n")
	}
	for i, e := range m.entries {
		marker := "  "
		if e.IsCurrent {
			marker = "▶ "
		}
		line := fmt.Sprintf("%s%d %s", marker, i+1, truncate(e.Name, maxNameWidth))

		style := m.styles.Item
		switch {
		case !e.IsAvailable:
			style = m.styles.Missing
		case e.IsCurrent:
			style = m.styles.Current
		}
		if i == m.cursor {
			style = style.Background(m.theme.Surface0)
		}
		b.WriteString(style.Render(line))
		if !e.IsAvailable {
			b.WriteString(m.styles.Muted.Render(" (unavailable)"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	b.WriteString(m.help.View(mainHelp{m.keys}))

	return m.styles.Box.Render(b.String()) + "\n"
}

// truncate shortens s to width display cells
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
