package search

import (
	"strings"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

// Actions offered on a selected result.
const (
	ActionDetails = "View details"
	ActionSimilar = "Find similar"
	ActionCancel  = "Cancel"
)

var resultActions = []string{ActionDetails, ActionSimilar, ActionCancel}

// actionMenu is the overlay opened on one result. A nil menu is closed.
type actionMenu struct {
	cursor int
	target domain.SearchResult
}

func openActions(target domain.SearchResult) *actionMenu {
	return &actionMenu{target: target}
}

// move shifts the cursor, stopping at the first and last action.
func (m *actionMenu) move(delta int) {
	m.cursor = max(0, min(len(resultActions)-1, m.cursor+delta))
}

func (m *actionMenu) chosen() string {
	return resultActions[m.cursor]
}

func (m *actionMenu) render(s *styles.Styles) string {
	lines := make([]string, len(resultActions))
	for i, a := range resultActions {
		if i == m.cursor {
			lines[i] = s.Selected.Render("> " + a)
		} else {
			lines[i] = s.Normal.Render("  " + a)
		}
	}
	return s.Border.Padding(0, 1).Render(strings.Join(lines, "\n"))
}
