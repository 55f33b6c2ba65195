// Package sessions provides the conversation sessions view for the TUI.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driving"
)

// ErrNoConversationService indicates sessions cannot be listed.
var ErrNoConversationService = errors.New("conversation service not available")

const (
	timeLayout   = "2006-01-02 15:04"
	shownTurns   = 3
	messageRunes = 60
)

// View lists conversation sessions.
type View struct {
	styles              *styles.Styles
	conversationService driving.ConversationService

	sessions []*domain.Session
	selected int
	expanded bool
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new sessions view.
func NewView(s *styles.Styles, conversationService driving.ConversationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:              s,
		conversationService: conversationService,
		sessions:            []*domain.Session{},
		width:               80,
		height:              24,
	}
}

// Init initialises the view and loads sessions.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadSessions()
}

// loadSessions returns a command that lists every session, newest first.
func (v *View) loadSessions() tea.Cmd {
	return func() tea.Msg {
		if v.conversationService == nil {
			return messages.SessionsLoaded{Err: ErrNoConversationService}
		}
		sessions, err := v.conversationService.UserSessions(context.Background(), "", false)
		return messages.SessionsLoaded{Sessions: sessions, Err: err}
	}
}

// Update handles messages for the sessions view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SessionsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.sessions = msg.Sessions
		v.err = nil
		if v.selected >= len(v.sessions) {
			v.selected = max(0, len(v.sessions)-1)
		}
		return v, nil

	case messages.SessionRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.loadSessions()

	case messages.SessionDeactivated:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.loadSessions()
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.sessions)-1 {
			v.selected++
		}
	case "enter":
		v.expanded = !v.expanded
	case "d", "delete", "backspace":
		if sess := v.SelectedSession(); sess != nil {
			return v, v.deleteSession(sess.ID)
		}
	case "x":
		if sess := v.SelectedSession(); sess != nil && sess.IsActive {
			return v, v.deactivateSession(sess.ID)
		}
	case "r":
		v.loading = true
		return v, v.loadSessions()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// deleteSession returns a command that deletes a session.
func (v *View) deleteSession(id string) tea.Cmd {
	return func() tea.Msg {
		if v.conversationService == nil {
			return messages.SessionRemoved{ID: id, Err: ErrNoConversationService}
		}
		err := v.conversationService.Delete(context.Background(), id)
		return messages.SessionRemoved{ID: id, Err: err}
	}
}

// deactivateSession returns a command that closes a session to new turns.
func (v *View) deactivateSession(id string) tea.Cmd {
	return func() tea.Msg {
		if v.conversationService == nil {
			return messages.SessionDeactivated{ID: id, Err: ErrNoConversationService}
		}
		err := v.conversationService.Deactivate(context.Background(), id)
		return messages.SessionDeactivated{ID: id, Err: err}
	}
}

// View renders the sessions view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sessions"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading sessions..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.sessions) == 0:
		b.WriteString(v.styles.Muted.Render("No sessions recorded. Searches are saved here."))
	default:
		for i, sess := range v.sessions {
			b.WriteString(v.renderSession(i, sess))
			b.WriteString("\n")
			if i == v.selected && v.expanded {
				b.WriteString(v.renderTurns(sess))
			}
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d sessions", len(v.sessions))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderSession renders a single session line.
func (v *View) renderSession(index int, sess *domain.Session) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	state := "[active]"
	if !sess.IsActive {
		state = "[closed]"
	}

	title := sess.Title
	if title == "" {
		title = sess.ID
	}
	maxTitle := max(10, v.width-40)
	title = truncate(title, maxTitle)

	info := fmt.Sprintf("%d turns, updated %s", sess.TotalTurns, sess.UpdatedAt.Local().Format(timeLayout))

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-9s %s", indicator, state, title)) +
			"  " + v.styles.Muted.Render(info)
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-9s ", state)) +
		v.styles.Normal.Render(title) +
		"  " + v.styles.Muted.Render(info)
}

// renderTurns renders the latest turns of an expanded session.
func (v *View) renderTurns(sess *domain.Session) string {
	if len(sess.Turns) == 0 {
		return v.styles.Muted.Render("      no turns") + "\n"
	}

	var b strings.Builder
	start := max(0, len(sess.Turns)-shownTurns)
	for _, turn := range sess.Turns[start:] {
		b.WriteString(v.styles.Normal.Render("      Q: " + truncate(turn.UserMessage, messageRunes)))
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("      A: " + truncate(turn.AssistantResponse, messageRunes)))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter] turns  [x] deactivate  [d] delete  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Sessions returns the listed sessions.
func (v *View) Sessions() []*domain.Session {
	return v.sessions
}

// SelectedIndex returns the currently selected session index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedSession returns the highlighted session, or nil when the list is empty.
func (v *View) SelectedSession() *domain.Session {
	if v.selected < 0 || v.selected >= len(v.sessions) {
		return nil
	}
	return v.sessions[v.selected]
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
