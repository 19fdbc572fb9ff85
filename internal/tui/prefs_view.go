package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/audiopin/internal/prefs"
)

type section int

const (
	sectionDevices section = iota
	sectionWindows
	sectionDelay
	sectionCount
)

func (s section) String() string {
	switch s {
	case sectionDevices:
		return "Devices"
	case sectionWindows:
		return "Watched windows"
	default:
		return "Auto-hide delay"
	}
}

// prefsPanel holds the preferences surface state. doc mirrors the last
// persisted document; edits go through Backend.UpdatePrefs.
type prefsPanel struct {
	doc     prefs.Preferences
	section section
	cursor  int
	editing bool
	input   textinput.Model
}

func newPrefsPanel(doc prefs.Preferences) prefsPanel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 128
	return prefsPanel{doc: doc.Clone(), input: ti}
}

func (p *prefsPanel) apply(doc prefs.Preferences) {
	p.doc = doc.Clone()
	p.clamp()
}

func (p *prefsPanel) list() []string {
	switch p.section {
	case sectionDevices:
		return p.doc.ConfiguredDevices
	case sectionWindows:
		return p.doc.MonitoredWindows
	}
	return nil
}

func (p *prefsPanel) clamp() {
	n := len(p.list())
	if p.cursor >= n {
		p.cursor = n - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *prefsPanel) selected() (string, bool) {
	l := p.list()
	if p.cursor < len(l) {
		return l[p.cursor], true
	}
	return "", false
}

// edit runs fn against the backend off the update loop
func (m Model) edit(fn func(*prefs.Preferences) error) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		doc, err := b.UpdatePrefs(fn)
		return prefsDoneMsg{doc: doc, err: err}
	}
}

func (m Model) updatePrefs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.prefs

	if p.editing {
		switch {
		case key.Matches(msg, m.keys.CancelEdit):
			p.editing = false
			p.input.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Confirm):
			name := strings.TrimSpace(p.input.Value())
			p.editing = false
			p.input.Blur()
			p.input.SetValue("")
			if name == "" {
				return m, nil
			}
			if p.section == sectionWindows {
				return m, m.edit(func(d *prefs.Preferences) error { return d.AddWindow(name) })
			}
			return m, m.edit(func(d *prefs.Preferences) error { return d.AddDevice(name) })
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Surface):
		m.surface = SurfaceMain

	case key.Matches(msg, m.keys.NextList):
		p.section = (p.section + 1) % sectionCount
		p.cursor = 0

	case key.Matches(msg, m.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if p.cursor < len(p.list())-1 {
			p.cursor++
		}

	case key.Matches(msg, m.keys.Add):
		if p.section == sectionDelay {
			return m, nil
		}
		p.editing = true
		if p.section == sectionWindows {
			p.input.Placeholder = "window title"
		} else {
			p.input.Placeholder = "device name"
		}
		return m, p.input.Focus()

	case key.Matches(msg, m.keys.Remove):
		name, ok := p.selected()
		if !ok {
			return m, nil
		}
		if p.section == sectionWindows {
			return m, m.edit(func(d *prefs.Preferences) error { return d.RemoveWindow(name) })
		}
		return m, m.edit(func(d *prefs.Preferences) error { return d.RemoveDevice(name) })

	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		name, ok := p.selected()
		if !ok || p.section != sectionDevices {
			return m, nil
		}
		to := p.cursor - 1
		if key.Matches(msg, m.keys.MoveDown) {
			to = p.cursor + 1
		}
		if to < 0 || to >= len(p.doc.ConfiguredDevices) {
			return m, nil
		}
		p.cursor = to
		return m, m.edit(func(d *prefs.Preferences) error { return d.MoveDevice(name, to) })

	case key.Matches(msg, m.keys.DelayUp), key.Matches(msg, m.keys.DelayDown):
		delay := p.doc.AutoHideDelaySeconds + 1
		if key.Matches(msg, m.keys.DelayDown) {
			delay = p.doc.AutoHideDelaySeconds - 1
		}
		if delay < 0 || delay > prefs.MaxDelaySeconds {
			return m, nil
		}
		return m, m.edit(func(d *prefs.Preferences) error { return d.SetDelay(delay) })

	case key.Matches(msg, m.keys.Test):
		m.backend.TestCountdown()
	}
	return m, nil
}

func (m Model) prefsView() string {
	p := m.prefs
	var b strings.Builder
	b.WriteString(m.tabs())
	b.WriteString("\n\n")

	renderList := func(s section, items []string, limit int) {
		title := fmt.Sprintf("%s (%d/%d)", s, len(items), limit)
		if p.section == s {
			b.WriteString(m.styles.Title.Render(title))
		} else {
			b.WriteString(m.styles.Muted.Render(title))
		}
		b.WriteString("\n")
		if len(items) == 0 {
			b.WriteString(m.styles.Muted.Render("  none"))
			b.WriteString("\n")
		}
		for i, it := range items {
			line := "  " + truncate(it, maxNameWidth)
			if p.section == s && i == p.cursor {
				b.WriteString(m.styles.Selected.Render(line))
			} else {
				b.WriteString(m.styles.Item.Render(line))
			}
			b.WriteString("\n")
		}
		if p.section == s && p.editing {
			b.WriteString(p.input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	renderList(sectionDevices, p.doc.ConfiguredDevices, prefs.MaxDevices)
	renderList(sectionWindows, p.doc.MonitoredWindows, prefs.MaxWindows)

	delay := fmt.Sprintf("%s: %ds", sectionDelay, p.doc.AutoHideDelaySeconds)
	if p.section == sectionDelay {
		b.WriteString(m.styles.Title.Render(delay))
	} else {
		b.WriteString(m.styles.Muted.Render(delay))
	}
	b.WriteString("\n\n")

	b.WriteString(m.footer())
	b.WriteString(m.help.View(prefsHelp{m.keys}))

	return m.styles.Box.Render(b.String()) + "\n"
}
