// Package status renders the bottom line of the search view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

// State is what the search view is doing.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateError     State = "error"
)

// Bar shows the mode badge, the search state and any notice on the left,
// and the keys of the current input mode on the right. It is driven by
// the search lifecycle: Searching, then ShowResults or Fail.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	state  State
	count  int
	errMsg string
	notice string

	mode   domain.SearchMode
	weight *float64
	width  int
}

// NewBar creates a ready bar. Nil arguments use the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Searching marks a search in flight. Earlier errors and notices are dropped.
func (s *Bar) Searching() {
	s.state = StateSearching
	s.errMsg = ""
	s.notice = ""
}

// ShowResults records a finished search with n hits.
func (s *Bar) ShowResults(n int) {
	s.state = StateResults
	s.count = n
	s.errMsg = ""
}

// Fail shows err until the next search or Reset.
func (s *Bar) Fail(err error) {
	s.state = StateError
	s.errMsg = "unknown error"
	if err != nil {
		s.errMsg = err.Error()
	}
}

// Notify adds a notice beside the state without changing it, e.g. when a
// search succeeded but could not be recorded.
func (s *Bar) Notify(notice string) {
	s.notice = notice
}

// Reset returns to ready. Mode and weight are kept.
func (s *Bar) Reset() {
	s.state = StateReady
	s.count = 0
	s.errMsg = ""
	s.notice = ""
}

// SetMode sets the mode badge.
func (s *Bar) SetMode(mode domain.SearchMode) {
	s.mode = mode
}

// SetWeight sets the semantic weight shown next to the hybrid badge.
func (s *Bar) SetWeight(weight float64) {
	s.weight = &weight
}

// SetWidth sets the rendered width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

func (s *Bar) State() State            { return s.state }
func (s *Bar) ResultCount() int        { return s.count }
func (s *Bar) Err() string             { return s.errMsg }
func (s *Bar) Notice() string          { return s.notice }
func (s *Bar) Mode() domain.SearchMode { return s.mode }
func (s *Bar) Width() int              { return s.width }

// View renders the bar at its width. Hints are kept at least one space
// from the left side; trailing hints that do not fit are dropped whole.
func (s *Bar) View() string {
	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	left := s.renderLeft()
	right := s.renderHints(inner - lipgloss.Width(left) - 1)
	gap := max(1, inner-lipgloss.Width(left)-lipgloss.Width(right))
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) renderLeft() string {
	var state string
	switch s.state {
	case StateSearching:
		state = s.styles.Muted.Render("Searching...")
	case StateError:
		return s.styles.Error.Render("Error: " + s.errMsg)
	case StateResults:
		switch s.count {
		case 0:
			state = s.styles.Muted.Render("No results")
		case 1:
			state = s.styles.Normal.Render("1 result")
		default:
			state = s.styles.Normal.Render(fmt.Sprintf("%d results", s.count))
		}
	default:
		state = s.styles.Muted.Render("Ready")
	}

	left := s.badge() + state
	if s.notice != "" {
		left += s.styles.Muted.Render(" · " + s.notice)
	}
	return left
}

// badge renders the mode, with the semantic weight when hybrid and set.
func (s *Bar) badge() string {
	if s.mode == "" {
		return ""
	}
	b := s.styles.Badge(string(s.mode))
	if s.weight != nil && s.mode == domain.SearchModeHybrid {
		b += s.styles.Muted.Render(fmt.Sprintf(" w=%.2f", *s.weight))
	}
	return b + " "
}

// renderHints lists the results keys while browsing hits and the input
// keys otherwise, keeping as many leading hints as fit in budget cells.
func (s *Bar) renderHints(budget int) string {
	var bindings []key.Binding
	if s.state == StateResults && s.count > 0 {
		bindings = s.keymap.ResultsHelp()
	} else {
		bindings = s.keymap.InputHelp()
	}

	const sep = " · "
	var line string
	for _, b := range bindings {
		h := b.Help()
		next := h.Key + " " + h.Desc
		if line != "" {
			next = line + sep + next
		}
		if lipgloss.Width(next) > budget {
			break
		}
		line = next
	}
	if line == "" {
		return ""
	}
	return s.styles.Help.Render(line)
}
