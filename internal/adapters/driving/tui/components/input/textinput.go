// Package input is the query box of the search view.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

// MaxHistory bounds the remembered queries.
const MaxHistory = 50

const (
	minInputWidth = 20
	labelPadding  = 8
	queryLimit    = 256
	placeholder   = "papers, repositories, articles..."
)

// history is a shell-style query history. pos == len(entries) is the line
// being typed, which is saved in draft while older entries are shown.
type history struct {
	entries []string
	pos     int
	draft   string
}

func (h *history) add(q string) {
	if q != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != q) {
		h.entries = append(h.entries, q)
		if over := len(h.entries) - MaxHistory; over > 0 {
			h.entries = h.entries[over:]
		}
	}
	h.pos = len(h.entries)
}

// step moves delta entries and returns the line to show, or false at
// either end.
func (h *history) step(delta int, current string) (string, bool) {
	next := h.pos + delta
	if next < 0 || next > len(h.entries) || len(h.entries) == 0 {
		return "", false
	}
	if h.pos == len(h.entries) {
		h.draft = current
	}
	h.pos = next
	if next == len(h.entries) {
		return h.draft, true
	}
	return h.entries[next], true
}

func (h *history) rewind() {
	h.pos = len(h.entries)
	h.draft = ""
}

// SearchInput is a query box labelled with the search mode. It remembers
// submitted queries; typing ends a walk through them.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	mode      domain.SearchMode
	width     int
	history   history
}

// NewSearchInput returns a focused, empty box.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = queryLimit
	ti.Width = 50
	ti.Focus()

	return &SearchInput{textinput: ti, styles: s, mode: domain.SearchModeHybrid, width: 50}
}

func (s *SearchInput) Init() tea.Cmd { return textinput.Blink }

func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	before := s.textinput.Value()
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	if s.textinput.Value() != before {
		s.history.pos = len(s.history.entries)
	}
	return s, cmd
}

func (s *SearchInput) View() string {
	mode := string(s.mode)
	label := lipgloss.NewStyle().
		Bold(true).
		Foreground(s.styles.SignalColour(mode)).
		Render(mode + " › ")
	box := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the library's spelling
	return lipgloss.JoinHorizontal(lipgloss.Center, label, box)
}

// Remember records a submitted query. Blank queries and repeats of the
// newest are skipped.
func (s *SearchInput) Remember(query string) { s.history.add(query) }

// Previous shows the next older query and reports whether it moved.
func (s *SearchInput) Previous() bool { return s.walk(-1) }

// Next shows the next newer query, ending at the unsubmitted draft, and
// reports whether it moved.
func (s *SearchInput) Next() bool { return s.walk(1) }

func (s *SearchInput) walk(delta int) bool {
	line, ok := s.history.step(delta, s.textinput.Value())
	if ok {
		s.textinput.SetValue(line)
		s.textinput.CursorEnd()
	}
	return ok
}

// SetWidth sizes the whole row. The box gets what the label leaves.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.textinput.Width = max(minInputWidth, width-len(s.mode)-labelPadding)
}

// Reset empties the box and ends any history walk.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
	s.history.rewind()
}

func (s *SearchInput) History() []string              { return s.history.entries }
func (s *SearchInput) SetMode(mode domain.SearchMode) { s.mode = mode }
func (s *SearchInput) Value() string                  { return s.textinput.Value() }
func (s *SearchInput) SetValue(value string)          { s.textinput.SetValue(value) }
func (s *SearchInput) Focus() tea.Cmd                 { return s.textinput.Focus() }
func (s *SearchInput) Blur()                          { s.textinput.Blur() }
func (s *SearchInput) Focused() bool                  { return s.textinput.Focused() }
func (s *SearchInput) Width() int                     { return s.width }
