package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/core/ports/driving"
	"github.com/custodia-labs/scholar/internal/logger"
)

// Ensure ConversationService implements the interface.
var _ driving.ConversationService = (*ConversationService)(nil)

const (
	// recentTurns is how many turns ContextFor renders.
	recentTurns = 3

	// summaryMinTurns is the turn count from which a summary is kept.
	summaryMinTurns = 3

	// summaryTopics caps the words listed in a summary.
	summaryTopics = 5

	// topicMinRunes is the length a word must exceed to count as a topic.
	topicMinRunes = 5

	// assistantPreviewRunes bounds each assistant line in ContextFor.
	assistantPreviewRunes = 200

	// recentWindow is the analytics window for recent sessions.
	recentWindow = 7 * 24 * time.Hour

	truncationMarker = "..."
)

// ConversationOption configures a ConversationService.
type ConversationOption func(*ConversationService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ConversationOption {
	return func(s *ConversationService) {
		s.now = now
	}
}

// WithIDGenerator replaces the uuid generator for sessions and turns.
func WithIDGenerator(newID func() string) ConversationOption {
	return func(s *ConversationService) {
		s.newID = newID
	}
}

// ConversationService keeps bounded dialogue sessions in memory and
// flushes the full state to a ConversationStore after every mutation.
type ConversationService struct {
	store    driven.ConversationStore
	settings domain.ConversationSettings

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	sessions map[string]*domain.Session
	order    []string
}

// NewConversationService creates a service over store. A nil store keeps
// sessions in memory only. Call Load to read persisted sessions.
func NewConversationService(
	store driven.ConversationStore, settings domain.ConversationSettings, opts ...ConversationOption,
) *ConversationService {
	if settings.MaxContextLength <= 0 {
		settings.MaxContextLength = domain.DefaultMaxContextLength
	}
	s := &ConversationService{
		store:    store,
		settings: settings,
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*domain.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with the persisted sessions and purges
// the expired ones.
func (s *ConversationService) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	sessions, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*domain.Session, len(sessions))
	s.order = s.order[:0]
	for _, sess := range sessions {
		if sess == nil || sess.ID == "" {
			continue
		}
		if _, dup := s.sessions[sess.ID]; dup {
			logger.Warn("Duplicate session %s in store, keeping the first", sess.ID)
			continue
		}
		sess.TotalTurns = len(sess.Turns)
		s.sessions[sess.ID] = sess
		s.order = append(s.order, sess.ID)
	}
	logger.Info("Loaded %d conversation sessions", len(s.sessions))

	if n := s.purgeExpired(); n > 0 {
		s.flush(ctx)
	}
	return nil
}

// CreateSession starts a new active session.
func (s *ConversationService) CreateSession(ctx context.Context, userID, title string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.create(userID, title)
	s.flush(ctx)
	return sess.Clone(), nil
}

// create inserts a session and enforces the cap. Callers hold mu.
func (s *ConversationService) create(userID, title string) *domain.Session {
	now := s.now()
	if strings.TrimSpace(title) == "" {
		title = "Conversation " + now.Format("2006-01-02 15:04")
	}
	sess := &domain.Session{
		ID:        s.newID(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Turns:     []domain.Turn{},
		IsActive:  true,
	}
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	logger.Info("Created conversation session %s", sess.ID)

	s.enforceCap(sess.ID)
	return sess
}

// AddTurn appends a turn. An unknown session id is not an error: a new
// session is created to receive the turn, and its id is on the returned
// turn.
func (s *ConversationService) AddTurn(ctx context.Context, in domain.TurnInput) (*domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[in.SessionID]
	if !ok {
		if in.SessionID != "" {
			logger.Warn("Session %s not found, creating a new one", in.SessionID)
		}
		sess = s.create("", "")
	}
	if !sess.IsActive {
		return nil, fmt.Errorf("session %s: %w", sess.ID, domain.ErrSessionInactive)
	}

	turn := domain.Turn{
		ID:                 s.newID(),
		SessionID:          sess.ID,
		UserMessage:        in.UserMessage,
		AssistantResponse:  in.AssistantResponse,
		ContextUsed:        in.ContextUsed,
		Citations:          in.Citations,
		Timestamp:          s.now(),
		ResponseQuality:    in.ResponseQuality,
		SearchQuery:        in.SearchQuery,
		SearchResultsCount: in.SearchResultsCount,
	}
	if turn.ContextUsed == nil {
		turn.ContextUsed = []map[string]any{}
	}
	if turn.Citations == nil {
		turn.Citations = []string{}
	}
	turn = turn.Clone()

	sess.Turns = append(sess.Turns, turn)
	sess.TotalTurns = len(sess.Turns)
	s.touch(sess)
	if len(sess.Turns) >= summaryMinTurns {
		sess.ContextSummary = summarize(sess)
	}
	logger.Debug("Added turn %s to session %s (%d turns)", turn.ID, sess.ID, sess.TotalTurns)

	s.flush(ctx)
	out := turn.Clone()
	return &out, nil
}

// ContextFor renders the summary line and the last turns of a session.
func (s *ConversationService) ContextFor(_ context.Context, sessionID string, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = s.settings.MaxContextLength
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	var lines []string
	if sess.ContextSummary != "" {
		lines = append(lines, "Previous conversation summary: "+sess.ContextSummary)
	}
	for _, t := range sess.LastTurns(recentTurns) {
		lines = append(lines,
			"User: "+t.UserMessage,
			"Assistant: "+truncate(t.AssistantResponse, assistantPreviewRunes))
	}
	return truncate(strings.Join(lines, "\n"), maxLength), nil
}

// GetSession returns a copy of a session.
func (s *ConversationService) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return sess.Clone(), nil
}

// History returns copies of the last n turns, or all turns when n <= 0.
func (s *ConversationService) History(_ context.Context, sessionID string, n int) ([]domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	turns := sess.LastTurns(n)
	out := make([]domain.Turn, len(turns))
	for i, t := range turns {
		out[i] = t.Clone()
	}
	return out, nil
}

// SearchTurns finds turns whose user message or assistant response
// contains query, ignoring case.
func (s *ConversationService) SearchTurns(_ context.Context, query, userID string) ([]domain.TurnMatch, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, fmt.Errorf("empty conversation query: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []domain.TurnMatch{}
	for _, id := range s.order {
		sess := s.sessions[id]
		if userID != "" && sess.UserID != userID {
			continue
		}
		for _, t := range sess.Turns {
			if strings.Contains(strings.ToLower(t.UserMessage), query) ||
				strings.Contains(strings.ToLower(t.AssistantResponse), query) {
				matches = append(matches, domain.TurnMatch{
					SessionID:    sess.ID,
					SessionTitle: sess.Title,
					Turn:         t.Clone(),
					Timestamp:    t.Timestamp,
				})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp.After(matches[j].Timestamp)
	})
	return matches, nil
}

// UserSessions lists sessions most recently updated first.
func (s *ConversationService) UserSessions(_ context.Context, userID string, activeOnly bool) ([]*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*domain.Session{}
	for _, id := range s.order {
		sess := s.sessions[id]
		if userID != "" && sess.UserID != userID {
			continue
		}
		if activeOnly && !sess.IsActive {
			continue
		}
		out = append(out, sess.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// UpdateTitle renames a session.
func (s *ConversationService) UpdateTitle(ctx context.Context, sessionID, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("empty title: %w", domain.ErrInvalidInput)
	}
	return s.mutate(ctx, sessionID, func(sess *domain.Session) {
		sess.Title = title
	})
}

// Deactivate marks a session inactive. Its turns stay readable.
func (s *ConversationService) Deactivate(ctx context.Context, sessionID string) error {
	return s.mutate(ctx, sessionID, func(sess *domain.Session) {
		sess.IsActive = false
	})
}

func (s *ConversationService) mutate(ctx context.Context, sessionID string, fn func(*domain.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	fn(sess)
	s.touch(sess)
	s.flush(ctx)
	return nil
}

// Delete removes a session.
func (s *ConversationService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	s.remove(sessionID)
	logger.Info("Deleted session %s", sessionID)
	s.flush(ctx)
	return nil
}

// ClearAll removes every session.
func (s *ConversationService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*domain.Session)
	s.order = nil
	logger.Info("Cleared all conversations")
	s.flush(ctx)
	return nil
}

// PurgeExpired removes sessions idle longer than the TTL.
func (s *ConversationService) PurgeExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.purgeExpired()
	if n > 0 {
		s.flush(ctx)
	}
	return n, nil
}

// Analytics summarises sessions, optionally restricted to one user.
func (s *ConversationService) Analytics(_ context.Context, userID string) (*domain.ConversationAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := &domain.ConversationAnalytics{}
	cutoff := s.now().Add(-recentWindow)
	var quality float64
	var turns int
	for _, id := range s.order {
		sess := s.sessions[id]
		if userID != "" && sess.UserID != userID {
			continue
		}
		a.TotalSessions++
		a.TotalTurns += sess.TotalTurns
		if sess.IsActive {
			a.ActiveSessions++
		}
		if sess.UpdatedAt.After(cutoff) {
			a.RecentSessions++
		}
		for _, t := range sess.Turns {
			quality += t.ResponseQuality
			turns++
		}
		if a.MostActiveSession == nil || sess.TotalTurns > a.MostActiveSession.Turns {
			a.MostActiveSession = &domain.SessionRef{ID: sess.ID, Title: sess.Title, Turns: sess.TotalTurns}
		}
	}
	if a.TotalSessions > 0 {
		a.AverageTurnsPerSession = float64(a.TotalTurns) / float64(a.TotalSessions)
	}
	if turns > 0 {
		a.AverageResponseQuality = quality / float64(turns)
	}
	return a, nil
}

// Export renders a session as indented JSON or as markdown.
func (s *ConversationService) Export(_ context.Context, sessionID string, format domain.ExportFormat) (string, error) {
	if !format.IsValid() {
		return "", fmt.Errorf("export format %q: %w", format, domain.ErrUnsupportedType)
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		sess = sess.Clone()
	}
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	if format == domain.ExportJSON {
		data, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal session: %w", err)
		}
		return string(data), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sess.Title)
	fmt.Fprintf(&b, "**Created:** %s\n", sess.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Total Turns:** %d\n\n", sess.TotalTurns)
	for i, t := range sess.Turns {
		fmt.Fprintf(&b, "## Turn %d\n\n", i+1)
		fmt.Fprintf(&b, "**User:** %s\n\n", t.UserMessage)
		fmt.Fprintf(&b, "**Assistant:** %s\n\n", t.AssistantResponse)
		if len(t.Citations) > 0 {
			fmt.Fprintf(&b, "**Citations:** %s\n\n", strings.Join(t.Citations, ", "))
		}
		b.WriteString("---\n\n")
	}
	return b.String(), nil
}

// touch advances UpdatedAt without ever moving it backwards.
func (s *ConversationService) touch(sess *domain.Session) {
	now := s.now()
	if now.After(sess.UpdatedAt) {
		sess.UpdatedAt = now
	}
}

// enforceCap evicts the least recently updated sessions until the cap
// holds. The session named by keep is never evicted. Callers hold mu.
func (s *ConversationService) enforceCap(keep string) {
	limit := s.settings.MaxSessions
	if limit <= 0 || len(s.sessions) <= limit {
		return
	}
	candidates := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if id != keep {
			candidates = append(candidates, id)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return s.sessions[candidates[i]].UpdatedAt.Before(s.sessions[candidates[j]].UpdatedAt)
	})
	excess := len(s.sessions) - limit
	for _, id := range candidates[:excess] {
		s.remove(id)
	}
	logger.Info("Removed %d old sessions to enforce the limit of %d", excess, limit)
}

// purgeExpired drops sessions idle longer than the TTL. Callers hold mu.
func (s *ConversationService) purgeExpired() int {
	if s.settings.TTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.settings.TTL)
	var expired []string
	for _, id := range s.order {
		if s.sessions[id].UpdatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.remove(id)
	}
	if len(expired) > 0 {
		logger.Info("Cleaned up %d expired sessions", len(expired))
	}
	return len(expired)
}

func (s *ConversationService) remove(id string) {
	delete(s.sessions, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// flush saves a snapshot of every session. A failure is logged; the
// in-memory state stays authoritative. Callers hold mu.
func (s *ConversationService) flush(ctx context.Context) {
	if s.store == nil {
		return
	}
	snapshot := make([]*domain.Session, len(s.order))
	for i, id := range s.order {
		snapshot[i] = s.sessions[id].Clone()
	}
	if err := s.store.Save(ctx, snapshot); err != nil {
		logger.Error("save conversations: %v", fmt.Errorf("%w: %w", domain.ErrPersistence, err))
		return
	}
	logger.Debug("Saved %d conversation sessions", len(snapshot))
}

// summarize lists the longest distinct topic words of the user messages,
// ties kept in order of first appearance, followed by the turn count.
func summarize(sess *domain.Session) string {
	seen := make(map[string]struct{})
	var words []string
	for _, t := range sess.Turns {
		for _, w := range strings.Fields(strings.ToLower(t.UserMessage)) {
			if !isTopic(w) {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}
	sort.SliceStable(words, func(i, j int) bool {
		return len([]rune(words[i])) > len([]rune(words[j]))
	})
	if len(words) > summaryTopics {
		words = words[:summaryTopics]
	}
	return fmt.Sprintf("Topics discussed: %s. Total turns: %d", strings.Join(words, ", "), sess.TotalTurns)
}

func isTopic(w string) bool {
	n := 0
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
		n++
	}
	return n > topicMinRunes
}

// truncate cuts s to n runes and appends the marker when anything was cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + truncationMarker
}
