// Package list renders ranked search results.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

const (
	entryLines    = 3 // title, meta and preview
	headerLines   = 4 // header, blank and the margin below the list
	scoreBarWidth = 8
	maxCategories = 2
	indent        = "    "
)

// ResultList shows one entry per result: the title with its score, where
// the document came from, and a one-line preview. The selection is always
// on screen.
type ResultList struct {
	styles   *styles.Styles
	results  []domain.SearchResult
	selected int

	width  int
	height int
}

func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

func (r *ResultList) Init() tea.Cmd { return nil }

// Update moves the selection on arrow and vim keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		case "home", "g":
			r.First()
		case "end", "G":
			r.Last()
		}
	}
	return r, nil
}

// move selects i, clamped to the list.
func (r *ResultList) move(i int) {
	r.selected = max(0, min(i, len(r.results)-1))
}

func (r *ResultList) MoveUp()   { r.move(r.selected - 1) }
func (r *ResultList) MoveDown() { r.move(r.selected + 1) }
func (r *ResultList) First()    { r.move(0) }
func (r *ResultList) Last()     { r.move(len(r.results) - 1) }

// SetSelected ignores an index outside the list.
func (r *ResultList) SetSelected(i int) {
	if i >= 0 && i < len(r.results) {
		r.selected = i
	}
}

// SetResults replaces the list and selects the top result.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

// SelectedResult is nil for an empty list.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// window is the half-open range of results on screen.
func (r *ResultList) window() (start, end int) {
	fits := max(1, (r.height-headerLines)/entryLines)
	start = max(0, r.selected-fits+1)
	return start, min(start+fits, len(r.results))
}

func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	start, end := r.window()
	header := fmt.Sprintf("Results (%d)", len(r.results))
	if end-start < len(r.results) {
		header += fmt.Sprintf("  %d-%d", start+1, end)
	}

	lines := []string{r.styles.Subtitle.Render(header), ""}
	for i := start; i < end; i++ {
		lines = append(lines, r.entry(&r.results[i], i == r.selected)...)
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) entry(res *domain.SearchResult, selected bool) []string {
	title := res.Document.Title
	if title == "" {
		title = "(Untitled)"
	}
	// Leave room for the cursor, score, bar and badge.
	width := max(10, r.width-len(res.SearchType)-scoreBarWidth-16)

	cursor, style := "  ", r.styles.Normal
	if selected {
		cursor, style = "> ", r.styles.Selected
	}
	head := style.Render(fmt.Sprintf("%s%-*s", cursor, width, truncate(title, width))) +
		fmt.Sprintf(" %.2f ", res.Score) + r.styles.ScoreBar(res.Score, scoreBarWidth)
	if badge := r.styles.Badge(string(res.SearchType)); badge != "" {
		head += " " + badge
	}

	rest := max(20, r.width-6)
	preview := strings.Join(strings.Fields(res.Document.Content), " ")
	return []string{
		head,
		r.styles.Meta.Render(indent + truncate(MetaLine(res), rest)),
		r.styles.Muted.Render(indent + truncate(preview, rest)),
	}
}

// MetaLine says where a result came from: source, first author, year and
// leading categories joined by " · ". Hybrid results add each arm's score.
func MetaLine(res *domain.SearchResult) string {
	m := res.Document.Metadata
	parts := []string{m.SourceOrUnknown()}
	if n := len(m.Authors); n > 0 {
		author := m.Authors[0]
		if n > 1 {
			author += " et al."
		}
		parts = append(parts, author)
	}
	if date := m.Date(); len(date) >= 4 {
		parts = append(parts, date[:4])
	}
	if n := min(maxCategories, len(m.Categories)); n > 0 {
		parts = append(parts, strings.Join(m.Categories[:n], ", "))
	}

	line := strings.Join(parts, " · ")
	if res.SearchType == domain.SearchTypeHybrid {
		line += fmt.Sprintf("  semantic %.2f  keyword %.2f", res.SemanticScore, res.KeywordScore)
	}
	return line
}

func truncate(s string, limit int) string {
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return s
}

// SetDimensions sets the space the list may fill.
func (r *ResultList) SetDimensions(width, height int) {
	r.width, r.height = width, height
}

func (r *ResultList) Results() []domain.SearchResult { return r.results }
func (r *ResultList) Selected() int                  { return r.selected }
func (r *ResultList) Count() int                     { return len(r.results) }
func (r *ResultList) IsEmpty() bool                  { return len(r.results) == 0 }
func (r *ResultList) Width() int                     { return r.width }
func (r *ResultList) Height() int                    { return r.height }
