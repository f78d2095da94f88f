package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextFacet   key.Binding
	PrevFacet   key.Binding
	NextValue   key.Binding
	PrevValue   key.Binding
	ClearFacets key.Binding
	ClearSearch key.Binding
	Open        key.Binding
	Back        key.Binding
	DarkMode    key.Binding
	Reload      key.Binding
	Quit        key.Binding
	Close       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:        key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		NextFacet:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next filter")),
		PrevFacet:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous filter")),
		NextValue:   key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next value")),
		PrevValue:   key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "previous value")),
		ClearFacets: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear filters")),
		ClearSearch: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:        key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		DarkMode:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "dark mode")),
		Reload:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Close:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Open, k.NextFacet, k.NextValue, k.ClearFacets, k.DarkMode, k.Reload, k.Quit}
}

func (k keyMap) detailsHelp() []key.Binding {
	return []key.Binding{k.Back, k.DarkMode, k.Close}
}
