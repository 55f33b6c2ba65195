// Package menu is the landing view: the entries of the TUI and a one-line
// summary of the index.
package menu

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

// StatsSource reports the index summary. driving.SearchService satisfies it.
type StatsSource interface {
	Stats(ctx context.Context) domain.IndexStats
}

// Item is a menu entry. Key jumps straight to it.
type Item struct {
	Label string
	Hint  string
	Key   string
	View  messages.ViewType
	Quit  bool
}

// DefaultItems are the entries of the menu, in display order.
func DefaultItems() []Item {
	return []Item{
		{Label: "Search", Key: "s", Hint: "hybrid, dense or keyword search", View: messages.ViewSearch},
		{Label: "Sessions", Key: "c", Hint: "recorded search conversations", View: messages.ViewSessions},
		{Label: "Settings", Key: "o", Hint: "search mode, weight and embeddings", View: messages.ViewSettings},
		{Label: "Help", Key: "?", Hint: "key bindings", View: messages.ViewHelp},
		{Label: "Quit", Key: "q", Quit: true},
	}
}

// View is the menu view.
type View struct {
	styles   *styles.Styles
	source   StatsSource
	ctx      context.Context
	items    []Item
	selected int
	stats    *domain.IndexStats
	width    int
	height   int
	ready    bool
}

// NewView creates the menu. source may be nil, in which case no summary is
// shown.
func NewView(s *styles.Styles, source StatsSource) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		source: source,
		ctx:    context.Background(),
		items:  DefaultItems(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context used to load the summary.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the index summary.
func (v *View) Init() tea.Cmd {
	if v.source == nil {
		return nil
	}
	source, ctx := v.source, v.ctx
	return func() tea.Msg {
		return messages.StatsLoaded{Stats: source.Stats(ctx)}
	}
}

// Update handles navigation, shortcuts and the loaded summary.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.StatsLoaded:
		stats := msg.Stats
		v.stats = &stats
	case tea.KeyMsg:
		return v, v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		v.selected = max(0, v.selected-1)
		return nil
	case "down", "j":
		v.selected = min(len(v.items)-1, v.selected+1)
		return nil
	case "enter":
		return v.activate(v.selected)
	}
	for i, item := range v.items {
		if item.Key == key {
			v.selected = i
			return v.activate(i)
		}
	}
	return nil
}

func (v *View) activate(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Scholar"))
	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Research Corpus Search"))
	b.WriteString("\n")
	if v.stats != nil {
		b.WriteString(v.styles.Meta.Render(Summary(*v.stats)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%-9s", item.Label)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		b.WriteString(" " + v.styles.Muted.Render("["+item.Key+"]"))
		if item.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("j/k move · enter open · letter jumps · q quit"))
	return b.String()
}

// Summary renders stats as one line, e.g.
// "42 documents (arxiv 30, github 12) · hybrid ready".
func Summary(stats domain.IndexStats) string {
	if stats.TotalDocuments == 0 {
		return "Index is empty. Add documents with: scholar index add <path>"
	}

	line := fmt.Sprintf("%d documents", stats.TotalDocuments)
	if stats.TotalDocuments == 1 {
		line = "1 document"
	}
	if sources := sourceList(stats.SourceBreakdown); sources != "" {
		line += " (" + sources + ")"
	}

	switch {
	case stats.DenseFitted && stats.SparseFitted:
		line += " · hybrid ready"
	case stats.SparseFitted:
		line += " · keyword only"
	case stats.DenseFitted:
		line += " · semantic only"
	default:
		line += " · not fitted"
	}
	return line
}

// sourceList orders sources by count, then name.
func sourceList(breakdown map[string]int) string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if breakdown[names[i]] != breakdown[names[j]] {
			return breakdown[names[i]] > breakdown[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s %d", name, breakdown[name])
	}
	return strings.Join(parts, ", ")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Stats returns the last loaded summary, or nil before the first load.
func (v *View) Stats() *domain.IndexStats {
	return v.stats
}
