// Package search is the TUI page where queries are typed and their hits
// browsed. Every query is recorded as a turn of the view's conversation
// session when a conversation service is available.
package search

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driving"
)

// ErrNoSearchService is reported when a search is started without a service.
var ErrNoSearchService = errors.New("search service is required")

// similarLimit caps "Find similar" listings.
const similarLimit = 10

// chrome is the height of everything around the result list.
const chrome = 10

// focus says where keys go.
type focus int

const (
	focusQuery focus = iota
	focusResults
)

// View combines the query input, the result list and the status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar
	actions   *actionMenu

	search       driving.SearchService
	conversation driving.ConversationService
	ctx          context.Context

	mode      domain.SearchMode
	weight    *float64 // nil leaves the service default
	lastQuery string
	sessionID string
	focus     focus
	err       error

	width  int
	height int
	ready  bool
}

// NewView creates the view in query mode. A nil conversation service
// turns recording off.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	search driving.SearchService,
	conversation driving.ConversationService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:       s,
		keymap:       km,
		input:        input.NewSearchInput(s),
		list:         list.NewResultList(s),
		statusbar:    status.NewBar(s, km),
		search:       search,
		conversation: conversation,
		ctx:          context.Background(),
		width:        80,
		height:       24,
	}
	v.SetMode(domain.SearchModeHybrid)
	return v
}

// WithContext sets the context searches and recordings run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v, v.handleKey(msg)

	case messages.SearchCompleted:
		return v, v.complete(msg)

	case messages.TurnRecorded:
		switch {
		case msg.Err != nil:
			v.statusbar.Notify("Not recorded: " + msg.Err.Error())
		case msg.Turn != nil:
			v.sessionID = msg.Turn.SessionID
		}
		return v, nil

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var inputCmd, listCmd tea.Cmd
	v.input, inputCmd = v.input.Update(msg)
	v.list, listCmd = v.list.Update(msg)
	return v, tea.Batch(inputCmd, listCmd)
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.actions != nil {
		return v.handleActionKey(msg)
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }

	case keymap.Matches(key, v.keymap.Mode):
		// While browsing, the last query is re-ranked in the new mode.
		v.SetMode(v.mode.Next())
		if v.focus == focusResults && v.lastQuery != "" {
			return v.query(v.lastQuery)
		}
		return nil
	}

	if v.focus == focusQuery {
		return v.handleQueryKey(msg)
	}
	return v.handleResultsKey(key)
}

// handleQueryKey edits the query. Up and down walk the query history.
func (v *View) handleQueryKey(msg tea.KeyMsg) tea.Cmd {
	//nolint:exhaustive // other keys are typed into the input
	switch msg.Type {
	case tea.KeyEnter:
		q := strings.TrimSpace(v.input.Value())
		if q == "" {
			return nil
		}
		v.input.Remember(q)
		v.browse()
		return v.query(q)
	case tea.KeyUp:
		v.input.Previous()
	case tea.KeyDown:
		v.input.Next()
	default:
		v.input, _ = v.input.Update(msg)
	}
	return nil
}

func (v *View) handleResultsKey(key string) tea.Cmd {
	km := v.keymap
	switch {
	case keymap.Matches(key, km.Actions):
		if r := v.list.SelectedResult(); r != nil {
			v.actions = openActions(*r)
		}
	case keymap.Matches(key, km.Up):
		v.list.MoveUp()
	case keymap.Matches(key, km.Down):
		v.list.MoveDown()
	case keymap.Matches(key, km.Top):
		v.list.First()
	case keymap.Matches(key, km.Bottom):
		v.list.Last()
	case keymap.Matches(key, km.NewSearch):
		v.focus = focusQuery
		v.input.Reset()
		return v.input.Focus()
	}
	return nil
}

// handleActionKey drives the open action menu. Enter runs the action
// under the cursor and esc closes the menu.
func (v *View) handleActionKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		v.actions.move(-1)
	case "down", "j":
		v.actions.move(1)
	case "esc":
		v.actions = nil
	case "enter":
		menu := v.actions
		v.actions = nil
		switch menu.chosen() {
		case ActionDetails:
			doc := menu.target.Document
			return func() tea.Msg { return messages.DocumentSelected{Document: doc} }
		case ActionSimilar:
			return v.similar(menu.target.Document)
		}
	}
	return nil
}

// browse moves focus from the query to the results.
func (v *View) browse() {
	v.focus = focusResults
	v.input.Blur()
}

// query searches for q in the current mode and weight.
func (v *View) query(q string) tea.Cmd {
	opts := domain.SearchOptions{Mode: v.mode}
	if v.weight != nil {
		w := *v.weight
		opts.SemanticWeight = &w
	}
	mode := v.mode
	return v.run(func(ctx context.Context, svc driving.SearchService) messages.SearchCompleted {
		results, err := svc.Search(ctx, q, opts)
		return messages.SearchCompleted{Query: q, Mode: mode, Results: results, Err: err}
	})
}

// similar lists the documents closest to doc. The listing carries no
// query, so it is not recorded.
func (v *View) similar(doc domain.Document) tea.Cmd {
	return v.run(func(ctx context.Context, svc driving.SearchService) messages.SearchCompleted {
		results, err := svc.FindSimilar(ctx, doc, similarLimit)
		return messages.SearchCompleted{Results: results, Err: err}
	})
}

// run marks a search in flight and returns the command performing it.
func (v *View) run(fn func(context.Context, driving.SearchService) messages.SearchCompleted) tea.Cmd {
	v.statusbar.Searching()
	ctx, svc := v.ctx, v.search
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		return fn(ctx, svc)
	}
}

// ShowSimilar switches to the results and lists documents close to doc.
func (v *View) ShowSimilar(doc domain.Document) tea.Cmd {
	v.actions = nil
	v.browse()
	return v.similar(doc)
}

// complete shows a finished search. A query's results are recorded as a
// turn of the view's session.
func (v *View) complete(msg messages.SearchCompleted) tea.Cmd {
	if msg.Err != nil {
		v.fail(msg.Err)
		return nil
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.ShowResults(len(msg.Results))
	v.browse()

	if msg.Query == "" {
		return nil
	}
	v.lastQuery = msg.Query
	if v.conversation == nil {
		return nil
	}
	in := TurnFor(v.sessionID, msg.Query, msg.Results)
	ctx, svc := v.ctx, v.conversation
	return func() tea.Msg {
		turn, err := svc.AddTurn(ctx, in)
		return messages.TurnRecorded{Turn: turn, Err: err}
	}
}

func (v *View) fail(err error) {
	v.err = err
	v.statusbar.Fail(err)
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	parts := []string{v.styles.Title.Render("Scholar"), "", v.input.View(), ""}
	if v.err != nil {
		parts = append(parts, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	parts = append(parts, v.list.View())
	if v.actions != nil {
		parts = append(parts, "", v.actions.render(v.styles))
	}
	parts = append(parts, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions sizes the components. The list gets what the header,
// input and status bar leave.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-chrome)
	v.statusbar.SetWidth(width)
}

// SetMode sets the mode of later searches. Unknown modes mean hybrid.
func (v *View) SetMode(mode domain.SearchMode) {
	if !mode.IsValid() {
		mode = domain.SearchModeHybrid
	}
	v.mode = mode
	v.input.SetMode(mode)
	v.statusbar.SetMode(mode)
}

// SetWeight sets the semantic share of hybrid scores for later searches.
func (v *View) SetWeight(weight float64) {
	v.weight = &weight
	v.statusbar.SetWeight(weight)
}

// Weight returns the semantic weight and whether one was set.
func (v *View) Weight() (float64, bool) {
	if v.weight == nil {
		return 0, false
	}
	return *v.weight, true
}

// ClearError clears the error and returns the status bar to ready.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.Reset()
}

// Reset returns to an empty query. The mode, weight and conversation
// session are kept.
func (v *View) Reset() {
	v.focus = focusQuery
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.actions = nil
	v.err = nil
	v.lastQuery = ""
	v.statusbar.Reset()
}

func (v *View) Mode() domain.SearchMode              { return v.mode }
func (v *View) SessionID() string                    { return v.sessionID }
func (v *View) Width() int                           { return v.width }
func (v *View) Height() int                          { return v.height }
func (v *View) Ready() bool                          { return v.ready }
func (v *View) Query() string                        { return v.input.Value() }
func (v *View) SetQuery(query string)                { v.input.SetValue(query) }
func (v *View) Results() []domain.SearchResult       { return v.list.Results() }
func (v *View) SelectedIndex() int                   { return v.list.Selected() }
func (v *View) SelectedResult() *domain.SearchResult { return v.list.SelectedResult() }
func (v *View) Err() error                           { return v.err }
func (v *View) InputFocused() bool                   { return v.focus == focusQuery }
func (v *View) ActionMenuVisible() bool              { return v.actions != nil }
