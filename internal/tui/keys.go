package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Toggle   key.Binding
	Reset    key.Binding
	Lap      key.Binding
	TapLeft  key.Binding
	TapRight key.Binding
	Plus     key.Binding
	Minus    key.Binding
	Focus    key.Binding
	Up       key.Binding
	Down     key.Binding
	Enable   key.Binding
	Delete   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Next:     key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("→/tab", "next tool")),
	Prev:     key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("←", "prev tool")),
	Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause")),
	Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Lap:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lap")),
	TapLeft:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "left tap")),
	TapRight: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "right tap")),
	Plus:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more")),
	Minus:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less")),
	Focus:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "go to active timer")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
	Enable:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "enable/disable")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp and FullHelp let keyMap drive help.Model directly.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Toggle, k.Reset, k.Focus, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Focus},
		{k.Toggle, k.Reset, k.Plus, k.Minus},
		{k.Lap, k.TapLeft, k.TapRight},
		{k.Up, k.Down, k.Enable, k.Delete},
		{k.Help, k.Quit},
	}
}
