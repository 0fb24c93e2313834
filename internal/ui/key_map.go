package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the prompts.
type keyMap struct {
	accept     key.Binding
	regenerate key.Binding
	skip       key.Binding
	yes        key.Binding
	no         key.Binding
	submit     key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		accept:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept")),
		regenerate: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "regenerate")),
		skip:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		yes:        key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		no:         key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
		submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.accept, k.regenerate, k.skip},
		{k.yes, k.no, k.submit},
		{k.quit},
	}
}
