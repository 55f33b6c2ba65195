// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// Theme is the colour palette of the TUI. Besides the usual accents it
// carries one colour per ranking signal so results and the status bar can
// show where a score came from.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color

	// Signal colours.
	Semantic lipgloss.Color
	Keyword  lipgloss.Color
	Hybrid   lipgloss.Color
	Exact    lipgloss.Color
}

// DefaultTheme returns the default colour theme: ink blue and parchment
// on a dark terminal.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#3B5BDB"),
		Secondary:  lipgloss.Color("#E8B04B"),
		Foreground: lipgloss.Color("#E9E4D4"),
		Muted:      lipgloss.Color("#7D7A70"),
		Success:    lipgloss.Color("#74B816"),
		Warning:    lipgloss.Color("#F59F00"),
		Error:      lipgloss.Color("#E03131"),
		Border:     lipgloss.Color("#495057"),
		Semantic:   lipgloss.Color("#9775FA"),
		Keyword:    lipgloss.Color("#3BC9DB"),
		Hybrid:     lipgloss.Color("#E8B04B"),
		Exact:      lipgloss.Color("#74B816"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// Meta renders the source, author and date line under a result.
	Meta lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Normal:   lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted:    lipgloss.NewStyle().Foreground(theme.Muted),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Primary),
		Error:   lipgloss.NewStyle().Foreground(theme.Error),
		Success: lipgloss.NewStyle().Foreground(theme.Success),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#1B1F24")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().Foreground(theme.Muted),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
		Meta: lipgloss.NewStyle().Italic(true).Foreground(theme.Secondary),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// SignalColour maps a search type or mode to its colour. Unknown values
// get the muted colour.
func (s *Styles) SignalColour(signal string) lipgloss.Color {
	switch signal {
	case string(domain.SearchTypeSemantic), string(domain.SearchTypeSimilar), string(domain.SearchModeDense):
		return s.theme.Semantic
	case string(domain.SearchTypeKeyword), string(domain.SearchModeSparse):
		return s.theme.Keyword
	case string(domain.SearchTypeHybrid):
		return s.theme.Hybrid
	case string(domain.SearchTypeCategory), string(domain.SearchTypeAuthor):
		return s.theme.Exact
	default:
		return s.theme.Muted
	}
}

// Badge renders signal as a bracketed label in its colour, e.g. "[hybrid]".
func (s *Styles) Badge(signal string) string {
	if signal == "" {
		return ""
	}
	return lipgloss.NewStyle().Bold(true).Foreground(s.SignalColour(signal)).Render("[" + signal + "]")
}

// ScoreBar draws score, clamped to [0,1], as a bar of width cells.
func (s *Styles) ScoreBar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	score = max(0, min(1, score))
	filled := int(score*float64(width) + 0.5)
	return lipgloss.NewStyle().Foreground(s.theme.Secondary).Render(strings.Repeat("█", filled)) +
		s.Muted.Render(strings.Repeat("░", width-filled))
}
