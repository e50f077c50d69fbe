package console

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Press  key.Binding
	Hold   key.Binding
	Next   key.Binding
	Motion key.Binding
	Help   key.Binding
	Quit   key.Binding
}

var defaultKeys = keyMap{
	Press: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "press button"),
	),
	Hold: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "hold button"),
	),
	Next: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next day"),
	),
	Motion: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "toggle motion"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Press, k.Hold, k.Next, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Press, k.Hold, k.Next},
		{k.Motion, k.Help, k.Quit},
	}
}
