package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/views/sessions"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

// route is how the app drives one view.
type route struct {
	update func(tea.Msg) tea.Cmd
	render func() string
	resize func(width, height int)
}

// App is the bubbletea model. It owns every view, shows one at a time
// and routes messages between them.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView       *menu.View
	searchView     *search.View
	sessionsView   *sessions.View
	docDetailsView *docdetails.View
	settingsView   *settings.View
	routes         map[messages.ViewType]route

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates the app on the menu. The search mode and weight start
// from the saved settings when a settings service is present.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	a := &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s, ports.Search),
		searchView:     search.NewView(s, nil, ports.Search, ports.Conversation),
		sessionsView:   sessions.NewView(s, ports.Conversation),
		docDetailsView: docdetails.NewView(s),
		settingsView:   settings.NewView(s, ports.Settings),
		currentView:    messages.ViewMenu,
	}
	a.routes = a.buildRoutes()

	if ports.Settings != nil {
		if current, err := ports.Settings.Get(); err == nil && current != nil {
			a.applySettings(current)
		}
	}
	return a, nil
}

func (a *App) buildRoutes() map[messages.ViewType]route {
	return map[messages.ViewType]route{
		messages.ViewMenu: {
			update: forward(&a.menuView),
			render: func() string { return a.menuView.View() },
			resize: func(w, h int) { a.menuView.SetDimensions(w, h) },
		},
		messages.ViewSearch: {
			update: a.updateSearch,
			render: func() string { return a.searchView.View() },
			resize: func(w, h int) { a.searchView.SetDimensions(w, h) },
		},
		messages.ViewSessions: {
			update: forward(&a.sessionsView),
			render: func() string { return a.sessionsView.View() },
			resize: func(w, h int) { a.sessionsView.SetDimensions(w, h) },
		},
		messages.ViewDocDetails: {
			update: forward(&a.docDetailsView),
			render: func() string { return a.docDetailsView.View() },
			resize: func(w, h int) { a.docDetailsView.SetDimensions(w, h) },
		},
		messages.ViewSettings: {
			update: forward(&a.settingsView),
			render: func() string { return a.settingsView.View() },
			resize: func(w, h int) { a.settingsView.SetDimensions(w, h) },
		},
		messages.ViewHelp: {
			update: func(msg tea.Msg) tea.Cmd {
				if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
					a.currentView = messages.ViewMenu
				}
				return nil
			},
			render: func() string { return helpText },
			resize: func(int, int) {},
		},
	}
}

// forward returns an update that runs the view behind v and stores the
// model it returns.
func forward[V interface {
	Update(tea.Msg) (V, tea.Cmd)
}](v *V) func(tea.Msg) tea.Cmd {
	return func(msg tea.Msg) tea.Cmd {
		var cmd tea.Cmd
		*v, cmd = (*v).Update(msg)
		return cmd
	}
}

// updateSearch forwards to the search view, mirrors its error, and turns
// a mode change made with tab into a ModeChanged message.
func (a *App) updateSearch(msg tea.Msg) tea.Cmd {
	before := a.searchView.Mode()
	var cmd tea.Cmd
	a.searchView, cmd = a.searchView.Update(msg)
	a.err = a.searchView.Err()
	if mode := a.searchView.Mode(); mode != before {
		cmd = tea.Batch(cmd, func() tea.Msg { return messages.ModeChanged{Mode: mode} })
	}
	return cmd
}

// applySettings points later searches at the saved mode and weight.
func (a *App) applySettings(s *domain.AppSettings) {
	a.searchView.SetMode(s.Search.Mode)
	a.searchView.SetWeight(s.Search.SemanticWeight)
}

// WithContext sets the context searches run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.menuView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("scholar - Research Search"),
		a.menuView.Init(),
	)
}

// owner returns the view a result message belongs to, whichever view is
// on screen when it arrives.
func owner(msg tea.Msg) (messages.ViewType, bool) {
	switch msg.(type) {
	case messages.SearchCompleted, messages.TurnRecorded:
		return messages.ViewSearch, true
	case messages.SessionsLoaded, messages.SessionRemoved, messages.SessionDeactivated:
		return messages.ViewSessions, true
	case messages.SettingsLoaded, messages.SettingsSaved:
		return messages.ViewSettings, true
	case messages.StatsLoaded:
		return messages.ViewMenu, true
	}
	return messages.ViewMenu, false
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case messages.Quit:
		return a, tea.Quit

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.ModeChanged:
		if a.ports.Settings != nil {
			if err := a.ports.Settings.SetSearchMode(msg.Mode); err != nil {
				a.err = fmt.Errorf("saving search mode: %w", err)
			}
		}
		return a, nil

	case messages.DocumentSelected:
		doc := msg.Document
		a.docDetailsView.SetDocument(&doc)
		a.currentView = messages.ViewDocDetails
		return a, a.loadDocument(doc.ID)

	case messages.DocumentLoaded:
		// A late answer for a document no longer shown is dropped.
		shown := a.docDetailsView.Document()
		if msg.Err == nil && msg.Document != nil && shown != nil && shown.ID == msg.Document.ID {
			a.docDetailsView.SetDocument(msg.Document)
		}
		return a, nil

	case messages.SimilarRequested:
		a.currentView = messages.ViewSearch
		return a, a.searchView.ShowSimilar(msg.Document)

	case messages.SettingsLoaded:
		// Settings saved from the settings view apply to the next search.
		if msg.Err == nil && msg.Settings != nil {
			a.applySettings(msg.Settings)
		}

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView != messages.ViewSearch && a.currentView != messages.ViewDocDetails {
			return a, nil
		}
	}

	view := a.currentView
	if v, ok := owner(msg); ok {
		view = v
	}
	return a, a.routes[view].update(msg)
}

// loadDocument fetches the stored version of a selected document, whose
// result copy may lack fields. It does nothing without an index service.
func (a *App) loadDocument(id string) tea.Cmd {
	if a.ports.Index == nil || id == "" {
		return nil
	}
	ctx, index := a.ctx, a.ports.Index
	return func() tea.Msg {
		doc, err := index.Get(ctx, id)
		return messages.DocumentLoaded{Document: doc, Err: err}
	}
}

// switchView makes view active and initialises it. Returning to search
// from document details keeps the results on screen.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	previous := a.currentView
	a.currentView = view

	switch view {
	case messages.ViewSearch:
		if previous == messages.ViewDocDetails {
			return nil
		}
		a.searchView.Reset()
		return a.searchView.Init()
	case messages.ViewSessions:
		return a.sessionsView.Init()
	case messages.ViewSettings:
		a.settingsView.Reset()
		return a.settingsView.Init()
	case messages.ViewMenu:
		// Indexing may have run since the summary was loaded.
		return a.menuView.Init()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if r, ok := a.routes[a.currentView]; ok {
		return r.render()
	}
	return a.menuView.View()
}

const helpText = `Help

Anywhere:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Move
  enter       Open
  s/c/o/?     Search, sessions, settings, help
  q           Quit

Search:
  (type)      Query
  ↑/↓         Earlier queries
  enter       Search
  tab         Cycle mode: hybrid, dense, sparse

Results:
  j/k, ↑/↓    Move
  g/G         First, last
  enter       Details or similar documents
  tab         Re-rank the query in the next mode
  n           New query

Document:
  ↑/↓, pgup/pgdn   Scroll
  s                Similar documents

Sessions:
  enter       Latest turns
  x           Deactivate
  d           Delete
  r           Reload

Settings:
  j/k, ↑/↓    Move
  enter       Edit or save
  tab         API key input

[esc] back to menu`

// Run starts the program and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// SetDimensions sizes every view, not just the visible one, so switching
// never shows a stale layout.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	for _, r := range a.routes {
		r.resize(width, height)
	}
}

func (a *App) Query() string                  { return a.searchView.Query() }
func (a *App) Results() []domain.SearchResult { return a.searchView.Results() }
func (a *App) SelectedIndex() int             { return a.searchView.SelectedIndex() }
func (a *App) Mode() domain.SearchMode        { return a.searchView.Mode() }
func (a *App) CurrentView() messages.ViewType { return a.currentView }
func (a *App) Err() error                     { return a.err }
func (a *App) Ready() bool                    { return a.ready }
