package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of both surfaces
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	Quick       key.Binding
	Unpin       key.Binding
	Pin         key.Binding
	Passthrough key.Binding
	Test        key.Binding
	Theme       key.Binding
	Hide        key.Binding
	Surface     key.Binding
	Help        key.Binding
	Quit        key.Binding

	Add        key.Binding
	Remove     key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	DelayUp    key.Binding
	DelayDown  key.Binding
	NextList   key.Binding
	Confirm    key.Binding
	CancelEdit key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "switch")),
		Quick:       key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "switch")),
		Unpin:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unpin")),
		Pin:         key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "pin")),
		Passthrough: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "passthrough")),
		Test:        key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test countdown")),
		Theme:       key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
		Hide:        key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide")),
		Surface:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "preferences")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Remove:     key.NewBinding(key.WithKeys("d", "delete", "backspace"), key.WithHelp("d", "remove")),
		MoveUp:     key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		MoveDown:   key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		DelayUp:    key.NewBinding(key.WithKeys("+", "=", "right", "l"), key.WithHelp("+", "delay")),
		DelayDown:  key.NewBinding(key.WithKeys("-", "left"), key.WithHelp("-", "delay")),
		NextList:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "section")),
		Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		CancelEdit: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

type mainHelp struct{ k KeyMap }

func (h mainHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Select, h.k.Unpin, h.k.Passthrough, h.k.Surface, h.k.Help, h.k.Quit}
}

func (h mainHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.k.Up, h.k.Down, h.k.Select, h.k.Quick},
		{h.k.Unpin, h.k.Pin, h.k.Test, h.k.Hide},
		{h.k.Passthrough, h.k.Theme, h.k.Surface, h.k.Quit},
	}
}

type prefsHelp struct{ k KeyMap }

func (h prefsHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.NextList, h.k.Add, h.k.Remove, h.k.MoveUp, h.k.DelayUp, h.k.Test, h.k.Surface}
}

func (h prefsHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.k.Up, h.k.Down, h.k.NextList},
		{h.k.Add, h.k.Remove, h.k.MoveUp, h.k.MoveDown},
		{h.k.DelayUp, h.k.DelayDown, h.k.Test, h.k.Surface},
	}
}
