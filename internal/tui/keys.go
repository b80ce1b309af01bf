package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause key.Binding
	Back      key.Binding
	Forward   key.Binding
	Next      key.Binding
	Prev      key.Binding
	Delete    key.Binding
	Edit      key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Selection key.Binding
	Commit    key.Binding
	Escape    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Next, k.Delete, k.Selection, k.ZoomIn, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Back, k.Forward},
		{k.Next, k.Prev, k.Edit, k.Delete},
		{k.Selection, k.ZoomIn, k.ZoomOut},
		{k.Commit, k.Escape, k.Help, k.Quit},
	}
}

var defaultKeyMap = keyMap{
	PlayPause: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "play/pause"),
	),
	Back: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "back 5s"),
	),
	Forward: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "forward 5s"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next segment"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("⇧tab", "previous segment"),
	),
	Delete: key.NewBinding(
		key.WithKeys("delete", "backspace"),
		key.WithHelp("del", "delete segment"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e", "enter"),
		key.WithHelp("e", "relabel"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+/-", "zoom"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("+/-", "zoom"),
	),
	Selection: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "select range"),
	),
	Commit: key.NewBinding(
		key.WithKeys("w", "ctrl+s"),
		key.WithHelp("w", "save now"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close/cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// menuKeys are the context menu shortcuts, indexed like
// timeline.MenuActions.
var menuKeys = map[string]int{"e": 0, "d": 1, "p": 2}
