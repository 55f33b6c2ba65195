package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	for name, c := range map[string]lipgloss.Color{
		"primary":    theme.Primary,
		"secondary":  theme.Secondary,
		"foreground": theme.Foreground,
		"muted":      theme.Muted,
		"success":    theme.Success,
		"warning":    theme.Warning,
		"error":      theme.Error,
		"border":     theme.Border,
		"semantic":   theme.Semantic,
		"keyword":    theme.Keyword,
		"hybrid":     theme.Hybrid,
		"exact":      theme.Exact,
	} {
		assert.NotEmpty(t, string(c), name)
	}
}

func TestDefaultTheme_SignalColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Semantic, theme.Keyword, theme.Hybrid, theme.Exact} {
		assert.False(t, seen[c], "duplicate signal colour: %s", c)
		seen[c] = true
	}
}

func TestNewStyles_WithTheme(t *testing.T) {
	theme := DefaultTheme()
	styles := NewStyles(theme)

	require.NotNil(t, styles)
	assert.Equal(t, theme, styles.Theme())
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.NotNil(t, styles.Theme())
}

func TestStyles_AllStylesInitialised(t *testing.T) {
	styles := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"title":      styles.Title,
		"subtitle":   styles.Subtitle,
		"normal":     styles.Normal,
		"muted":      styles.Muted,
		"selected":   styles.Selected,
		"error":      styles.Error,
		"success":    styles.Success,
		"warning":    styles.Warning,
		"inputField": styles.InputField,
		"statusBar":  styles.StatusBar,
		"help":       styles.Help,
		"border":     styles.Border,
		"meta":       styles.Meta,
	} {
		assert.NotEqual(t, lipgloss.Style{}, style, name)
		assert.Contains(t, style.Render("text"), "text", name)
	}
}

func TestStyles_SignalColour(t *testing.T) {
	s := DefaultStyles()
	theme := s.Theme()

	tests := []struct {
		signal string
		want   lipgloss.Color
	}{
		{"semantic", theme.Semantic},
		{"dense", theme.Semantic},
		{"similar", theme.Semantic},
		{"keyword", theme.Keyword},
		{"sparse", theme.Keyword},
		{"hybrid", theme.Hybrid},
		{"category", theme.Exact},
		{"author", theme.Exact},
		{"", theme.Muted},
		{"fuzzy", theme.Muted},
	}
	for _, tt := range tests {
		t.Run(tt.signal, func(t *testing.T) {
			assert.Equal(t, tt.want, s.SignalColour(tt.signal))
		})
	}
}

func TestStyles_Badge(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Badge("hybrid"), "[hybrid]")
	assert.Empty(t, s.Badge(""))
}

func TestStyles_ScoreBar(t *testing.T) {
	s := DefaultStyles()

	tests := []struct {
		name         string
		score        float64
		width        int
		filled, rest int
	}{
		{name: "full", score: 1, width: 10, filled: 10},
		{name: "empty", score: 0, width: 4, rest: 4},
		{name: "rounds", score: 0.66, width: 10, filled: 7, rest: 3},
		{name: "clamps high", score: 1.4, width: 5, filled: 5},
		{name: "clamps low", score: -0.5, width: 5, rest: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := s.ScoreBar(tt.score, tt.width)
			assert.Equal(t, tt.filled, strings.Count(bar, "█"))
			assert.Equal(t, tt.rest, strings.Count(bar, "░"))
		})
	}

	assert.Empty(t, s.ScoreBar(0.5, 0))
}
