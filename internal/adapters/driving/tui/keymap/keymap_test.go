package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"submit", km.Submit, []string{"enter"}},
		{"history", km.History, []string{"up", "down"}},
		{"mode", km.Mode, []string{"tab"}},
		{"back", km.Back, []string{"esc"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"top", km.Top, []string{"g", "home"}},
		{"bottom", km.Bottom, []string{"G", "end"}},
		{"actions", km.Actions, []string{"enter"}},
		{"new search", km.NewSearch, []string{"n", "/"}},
		{"rerun", km.Rerun, []string{"tab"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding.Keys())
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestKeyMap_InputHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.InputHelp()
	require.Len(t, help, 4)
	assert.Equal(t, "search", help[0].Help().Desc)
	assert.Equal(t, "history", help[1].Help().Desc)
}

func TestKeyMap_ResultsHelp(t *testing.T) {
	km := DefaultKeyMap()

	var descs []string
	for _, b := range km.ResultsHelp() {
		descs = append(descs, b.Help().Desc)
	}
	assert.Equal(t, []string{"up", "details/similar", "re-rank", "new search", "menu"}, descs)
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()

	groups := km.FullHelp()
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 4)
	assert.Len(t, groups[1], 7)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		key     string
		binding key.Binding
		want    bool
	}{
		{"g", km.Top, true},
		{"home", km.Top, true},
		{"G", km.Bottom, true},
		{"g", km.Bottom, false},
		{"/", km.NewSearch, true},
		{"N", km.NewSearch, false},
		{"", km.Up, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.key, tt.binding))
		})
	}
}

func TestMatches_EmptyBinding(t *testing.T) {
	assert.False(t, Matches("a", key.NewBinding()))
}
