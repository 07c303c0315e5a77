package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the review screen's bindings.
type KeyMap struct {
	Up, Down, Home, End            key.Binding
	Keep, Cancel, Dismiss, Refresh key.Binding
	ToggleHelp, Quit, ForceQuit    key.Binding
}

func bind(helpKey, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKey, desc))
}

// DefaultKeyMap returns vim-style navigation plus one key per review decision.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:   bind("↑/k", "up", "k", "up"),
		Down: bind("↓/j", "down", "j", "down"),
		Home: bind("g", "first alert", "home", "g"),
		End:  bind("G", "last alert", "end", "G"),

		Keep:    bind("a/y", "keep subscription", "a", "y"),
		Cancel:  bind("c/x", "cancel subscription", "c", "x"),
		Dismiss: bind("d", "dismiss alert", "d"),
		Refresh: bind("r", "reload alerts", "r", "ctrl+r"),

		ToggleHelp: bind("?", "more keys", "?"),
		Quit:       bind("q", "quit", "q", "esc"),
		ForceQuit:  bind("ctrl+c", "quit now", "ctrl+c"),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Keep, k.Cancel, k.Dismiss, k.ToggleHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End},
		{k.Keep, k.Cancel, k.Dismiss, k.Refresh},
		{k.ToggleHelp, k.Quit, k.ForceQuit},
	}
}
