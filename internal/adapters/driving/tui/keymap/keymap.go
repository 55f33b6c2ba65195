// Package keymap binds the search view's keys.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the search view bindings. The help text of each binding is
// what the status bar shows for it.
type KeyMap struct {
	// Typing a query.
	Submit  key.Binding
	History key.Binding
	Mode    key.Binding
	Back    key.Binding

	// Browsing results.
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Actions   key.Binding
	NewSearch key.Binding
	Rerun     key.Binding
}

// bind is a binding for keys whose hint reads "hint desc".
func bind(hint, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(hint, desc))
}

func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Submit:  bind("enter", "search", "enter"),
		History: bind("↑/↓", "history", "up", "down"),
		Mode:    bind("tab", "mode", "tab"),
		Back:    bind("esc", "menu", "esc"),

		Up:        bind("↑/k", "up", "up", "k"),
		Down:      bind("↓/j", "down", "down", "j"),
		Top:       bind("g", "top", "g", "home"),
		Bottom:    bind("G", "bottom", "G", "end"),
		Actions:   bind("enter", "details/similar", "enter"),
		NewSearch: bind("n", "new search", "n", "/"),
		Rerun:     bind("tab", "re-rank", "tab"),
	}
}

// InputHelp is shown while a query is typed.
func (k *KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.Submit, k.History, k.Mode, k.Back}
}

// ResultsHelp is shown while results are browsed.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Actions, k.Rerun, k.NewSearch, k.Back}
}

// FullHelp has one group for typing and one for browsing.
func (k *KeyMap) FullHelp() [][]key.Binding {
	browse := []key.Binding{k.Up, k.Down, k.Top, k.Bottom, k.Actions, k.Rerun, k.NewSearch}
	return [][]key.Binding{k.InputHelp(), browse}
}

// Matches reports whether pressed is one of the binding's keys.
func Matches(pressed string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), pressed)
}
