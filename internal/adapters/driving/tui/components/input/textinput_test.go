package input

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

func typeText(in *SearchInput, text string) {
	for _, r := range text {
		in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewSearchInput(t *testing.T) {
	in := NewSearchInput(styles.DefaultStyles())

	require.NotNil(t, in)
	assert.Empty(t, in.Value())
	assert.True(t, in.Focused())
	assert.Equal(t, 50, in.Width())
	assert.Empty(t, in.History())
}

func TestNewSearchInput_NilStyles(t *testing.T) {
	in := NewSearchInput(nil)

	require.NotNil(t, in)
	assert.NotNil(t, in.styles)
}

func TestSearchInput_Init(t *testing.T) {
	assert.NotNil(t, NewSearchInput(nil).Init())
}

func TestSearchInput_Typing(t *testing.T) {
	in := NewSearchInput(nil)

	typeText(in, "hello")
	assert.Equal(t, "hello", in.Value())

	in.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "hell", in.Value())
}

func TestSearchInput_View_ShowsMode(t *testing.T) {
	in := NewSearchInput(nil)
	assert.Contains(t, in.View(), "hybrid")

	in.SetMode(domain.SearchModeSparse)
	assert.Contains(t, in.View(), "sparse")
	assert.NotContains(t, in.View(), "hybrid")
}

func TestSearchInput_FocusAndBlur(t *testing.T) {
	in := NewSearchInput(nil)

	in.Blur()
	assert.False(t, in.Focused())

	assert.NotNil(t, in.Focus())
	assert.True(t, in.Focused())
}

func TestSearchInput_SetWidth(t *testing.T) {
	in := NewSearchInput(nil)

	in.SetWidth(100)
	assert.Equal(t, 100, in.Width())

	in.SetWidth(10)
	assert.Equal(t, 10, in.Width())
	assert.Equal(t, minInputWidth, in.textinput.Width)
}

func TestSearchInput_Remember(t *testing.T) {
	in := NewSearchInput(nil)

	in.Remember("transformers")
	in.Remember("")
	in.Remember("transformers")
	in.Remember("graph neural networks")
	in.Remember("transformers")

	assert.Equal(t, []string{"transformers", "graph neural networks", "transformers"}, in.History())
}

func TestSearchInput_Remember_Bounded(t *testing.T) {
	in := NewSearchInput(nil)

	for i := 0; i < MaxHistory+5; i++ {
		in.Remember(fmt.Sprintf("query %d", i))
	}

	require.Len(t, in.History(), MaxHistory)
	assert.Equal(t, "query 5", in.History()[0])
	assert.Equal(t, fmt.Sprintf("query %d", MaxHistory+4), in.History()[MaxHistory-1])
}

func TestSearchInput_BrowseHistory(t *testing.T) {
	in := NewSearchInput(nil)
	in.Remember("first")
	in.Remember("second")
	typeText(in, "dra")

	require.True(t, in.Previous())
	assert.Equal(t, "second", in.Value())
	require.True(t, in.Previous())
	assert.Equal(t, "first", in.Value())
	assert.False(t, in.Previous(), "already at the oldest entry")
	assert.Equal(t, "first", in.Value())

	require.True(t, in.Next())
	assert.Equal(t, "second", in.Value())
	require.True(t, in.Next())
	assert.Equal(t, "dra", in.Value(), "the draft comes back after the newest entry")
	assert.False(t, in.Next())
}

func TestSearchInput_BrowseHistory_Empty(t *testing.T) {
	in := NewSearchInput(nil)

	assert.False(t, in.Previous())
	assert.False(t, in.Next())
}

func TestSearchInput_TypingEndsBrowsing(t *testing.T) {
	in := NewSearchInput(nil)
	in.Remember("first")
	in.Remember("second")

	require.True(t, in.Previous())
	typeText(in, "!")
	assert.Equal(t, "second!", in.Value())

	assert.False(t, in.Next(), "edited text is the new draft")
	require.True(t, in.Previous())
	assert.Equal(t, "second", in.Value())
}

func TestSearchInput_Reset_KeepsHistory(t *testing.T) {
	in := NewSearchInput(nil)
	in.Remember("attention")
	in.SetValue("some text")

	in.Reset()

	assert.Empty(t, in.Value())
	assert.Equal(t, []string{"attention"}, in.History())
	require.True(t, in.Previous())
	assert.Equal(t, "attention", in.Value())
}
