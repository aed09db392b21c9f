package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings for both views.
type keyMap struct {
	Toggle    key.Binding
	Next      key.Binding
	Prev      key.Binding
	Submit    key.Binding
	Delegate  key.Binding
	CopyURL   key.Binding
	Refresh   key.Binding
	Logout    key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "login/register")),
		Next:      key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
		Prev:      key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Delegate:  key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "google")),
		CopyURL:   key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy link")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Logout:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "logout")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// entry renders a binding for the help bar.
func entry(b key.Binding) string {
	h := b.Help()
	return helpEntry(h.Key, h.Desc)
}
