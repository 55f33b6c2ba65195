package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// stepClock returns a time that advances by step on every call.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newConversationFixture(
	t *testing.T, settings domain.ConversationSettings,
) (*ConversationService, *mockConversationStore, *stepClock) {
	t.Helper()
	store := &mockConversationStore{}
	clock := &stepClock{t: epoch, step: time.Minute}
	svc := NewConversationService(store, settings, WithClock(clock.now), WithIDGenerator(sequentialIDs()))
	return svc, store, clock
}

func defaultConversationSettings() domain.ConversationSettings {
	return domain.DefaultAppSettings().Conversation
}

func TestConversationService_CreateSession(t *testing.T) {
	svc, store, _ := newConversationFixture(t, defaultConversationSettings())

	sess, err := svc.CreateSession(context.Background(), "alice", "")
	require.NoError(t, err)

	assert.Equal(t, "id-1", sess.ID)
	assert.Equal(t, "alice", sess.UserID)
	assert.Equal(t, "Conversation 2024-03-01 09:01", sess.Title)
	assert.True(t, sess.IsActive)
	assert.Empty(t, sess.Turns)
	assert.Zero(t, sess.TotalTurns)
	assert.Equal(t, sess.CreatedAt, sess.UpdatedAt)
	assert.Equal(t, 1, store.saveCount())
	require.Len(t, store.sessions, 1)
}

func TestConversationService_CreateSession_EvictsLeastRecentlyUpdated(t *testing.T) {
	settings := defaultConversationSettings()
	settings.MaxSessions = 3
	svc, _, _ := newConversationFixture(t, settings)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := svc.CreateSession(ctx, "", fmt.Sprintf("s%d", i))
		require.NoError(t, err)
		ids = append(ids, sess.ID)
	}
	// Touch the oldest so the second becomes least recently updated.
	require.NoError(t, svc.UpdateTitle(ctx, ids[0], "renamed"))

	extra, err := svc.CreateSession(ctx, "", "s3")
	require.NoError(t, err)

	all, err := svc.UserSessions(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, all, 3)

	kept := make(map[string]bool)
	for _, s := range all {
		kept[s.ID] = true
	}
	assert.True(t, kept[ids[0]])
	assert.False(t, kept[ids[1]], "least recently updated session is evicted")
	assert.True(t, kept[ids[2]])
	assert.True(t, kept[extra.ID])
}

func TestConversationService_CreateSession_UnlimitedCap(t *testing.T) {
	settings := defaultConversationSettings()
	settings.MaxSessions = 0
	svc, _, _ := newConversationFixture(t, settings)

	for i := 0; i < 5; i++ {
		_, err := svc.CreateSession(context.Background(), "", "")
		require.NoError(t, err)
	}
	all, err := svc.UserSessions(context.Background(), "", false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestConversationService_AddTurn_UnknownSessionCreatesOne(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()

	turn, err := svc.AddTurn(ctx, domain.TurnInput{
		SessionID:         "does-not-exist",
		UserMessage:       "what is attention?",
		AssistantResponse: "a weighting mechanism",
	})
	require.NoError(t, err)
	require.NotEmpty(t, turn.ID)
	assert.NotEqual(t, "does-not-exist", turn.SessionID)

	sess, err := svc.GetSession(ctx, turn.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.TotalTurns)
	require.Len(t, sess.Turns, 1)
	assert.Equal(t, turn.ID, sess.Turns[0].ID)

	_, err = svc.GetSession(ctx, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationService_AddTurn_UpdatesSession(t *testing.T) {
	svc, store, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "", "papers")
	require.NoError(t, err)

	q := "diffusion"
	n := 4
	turn, err := svc.AddTurn(ctx, domain.TurnInput{
		SessionID:          sess.ID,
		UserMessage:        "find diffusion papers",
		AssistantResponse:  "here are four",
		Citations:          []string{"[1] Ho et al."},
		ResponseQuality:    0.8,
		SearchQuery:        &q,
		SearchResultsCount: &n,
	})
	require.NoError(t, err)
	assert.Equal(t, sess.ID, turn.SessionID)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalTurns)
	assert.Equal(t, len(got.Turns), got.TotalTurns)
	assert.True(t, got.UpdatedAt.After(sess.UpdatedAt))
	assert.Empty(t, got.ContextSummary, "no summary before three turns")
	require.NotNil(t, got.Turns[0].SearchQuery)
	assert.Equal(t, "diffusion", *got.Turns[0].SearchQuery)
	assert.Equal(t, 2, store.saveCount())
}

func TestConversationService_AddTurn_InactiveSession(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "", "")
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, sess.ID))

	_, err = svc.AddTurn(ctx, domain.TurnInput{SessionID: sess.ID, UserMessage: "hello"})
	assert.ErrorIs(t, err, domain.ErrSessionInactive)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Zero(t, got.TotalTurns)
}

func TestConversationService_UpdatedAtNeverDecreases(t *testing.T) {
	store := &mockConversationStore{}
	clock := &stepClock{t: epoch, step: -time.Minute}
	svc := NewConversationService(store, defaultConversationSettings(), WithClock(clock.now))
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "", "backwards")
	require.NoError(t, err)
	_, err = svc.AddTurn(ctx, domain.TurnInput{SessionID: sess.ID, UserMessage: "x"})
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.Before(sess.UpdatedAt))
}

func TestConversationService_Summary(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "", "")
	require.NoError(t, err)

	messages := []string{
		"Explain transformer attention mechanisms",
		"How does diffusion sampling differ?",
		"Compare transformer and recurrent networks, please",
	}
	for _, m := range messages {
		_, err := svc.AddTurn(ctx, domain.TurnInput{SessionID: sess.ID, UserMessage: m, AssistantResponse: "ok"})
		require.NoError(t, err)
	}

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	// "differ?" and "networks," are not purely alphabetic and are skipped;
	// equal lengths keep first appearance order.
	assert.Equal(t,
		"Topics discussed: transformer, mechanisms, attention, diffusion, recurrent. Total turns: 3",
		got.ContextSummary)
}

func TestConversationService_ContextFor(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "", "")
	require.NoError(t, err)

	long := strings.Repeat("a", 250)
	for i := 1; i <= 4; i++ {
		_, err := svc.AddTurn(ctx, domain.TurnInput{
			SessionID:         sess.ID,
			UserMessage:       fmt.Sprintf("question %d", i),
			AssistantResponse: fmt.Sprintf("answer %d", i),
		})
		require.NoError(t, err)
	}
	_, err = svc.AddTurn(ctx, domain.TurnInput{SessionID: sess.ID, UserMessage: "question 5", AssistantResponse: long})
	require.NoError(t, err)

	out, err := svc.ContextFor(ctx, sess.ID, 0)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "Previous conversation summary: Topics discussed: question."))
	assert.Equal(t, "User: question 3", lines[1])
	assert.Equal(t, "Assistant: answer 3", lines[2])
	assert.Equal(t, "User: question 5", lines[5])
	assert.Equal(t, "Assistant: "+strings.Repeat("a", 200)+"...", lines[6])

	short, err := svc.ContextFor(ctx, sess.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, out[:20]+"...", short)

	_, err = svc.ContextFor(ctx, "missing", 100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationService_ContextFor_NoSummary(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	turn, err := svc.AddTurn(ctx, domain.TurnInput{UserMessage: "hi", AssistantResponse: "hello"})
	require.NoError(t, err)

	out, err := svc.ContextFor(ctx, turn.SessionID, 100)
	require.NoError(t, err)
	assert.Equal(t, "User: hi\nAssistant: hello", out)
}

func TestConversationService_Load_PurgesExpired(t *testing.T) {
	store := &mockConversationStore{sessions: []*domain.Session{
		{ID: "old", Title: "old", UpdatedAt: epoch.Add(-31 * 24 * time.Hour), IsActive: true},
		{ID: "fresh", Title: "fresh", UpdatedAt: epoch.Add(-24 * time.Hour), IsActive: true,
			Turns: []domain.Turn{{ID: "t1", SessionID: "fresh"}}},
	}}
	settings := defaultConversationSettings()
	svc := NewConversationService(store, settings, WithClock(func() time.Time { return epoch }))

	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.GetSession(context.Background(), "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	fresh, err := svc.GetSession(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.TotalTurns)

	assert.Equal(t, 1, store.saveCount(), "purge is flushed")
	require.Len(t, store.sessions, 1)
	assert.Equal(t, "fresh", store.sessions[0].ID)
}

func TestConversationService_Load_Error(t *testing.T) {
	store := &mockConversationStore{loadErr: errors.New("disk gone")}
	svc := NewConversationService(store, defaultConversationSettings())

	err := svc.Load(context.Background())
	assert.Error(t, err)
}

func TestConversationService_SaveFailureKeepsMemoryState(t *testing.T) {
	store := &mockConversationStore{saveErr: errors.New("read-only filesystem")}
	svc := NewConversationService(store, defaultConversationSettings())
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "", "kept")
	require.NoError(t, err)
	_, err = svc.AddTurn(ctx, domain.TurnInput{SessionID: sess.ID, UserMessage: "still here"})
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalTurns)
}

func TestConversationService_ReturnedSessionsAreCopies(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	turn, err := svc.AddTurn(ctx, domain.TurnInput{UserMessage: "original"})
	require.NoError(t, err)

	sess, err := svc.GetSession(ctx, turn.SessionID)
	require.NoError(t, err)
	sess.Turns[0].UserMessage = "changed"
	sess.Title = "changed"

	again, err := svc.GetSession(ctx, turn.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Turns[0].UserMessage)
	assert.NotEqual(t, "changed", again.Title)
}

func TestConversationService_History(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "", "")
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		_, err := svc.AddTurn(ctx, domain.TurnInput{SessionID: sess.ID, UserMessage: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	last, err := svc.History(ctx, sess.ID, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "m3", last[0].UserMessage)
	assert.Equal(t, "m4", last[1].UserMessage)

	all, err := svc.History(ctx, sess.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = svc.History(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationService_SearchTurns(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	a, err := svc.CreateSession(ctx, "alice", "a")
	require.NoError(t, err)
	b, err := svc.CreateSession(ctx, "bob", "b")
	require.NoError(t, err)

	_, err = svc.AddTurn(ctx, domain.TurnInput{SessionID: a.ID, UserMessage: "Diffusion models?", AssistantResponse: "yes"})
	require.NoError(t, err)
	_, err = svc.AddTurn(ctx, domain.TurnInput{SessionID: b.ID, UserMessage: "other", AssistantResponse: "see DIFFUSION"})
	require.NoError(t, err)
	_, err = svc.AddTurn(ctx, domain.TurnInput{SessionID: a.ID, UserMessage: "unrelated", AssistantResponse: "no"})
	require.NoError(t, err)

	matches, err := svc.SearchTurns(ctx, "diffusion", "")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, b.ID, matches[0].SessionID, "newest first")
	assert.Equal(t, a.ID, matches[1].SessionID)
	assert.Equal(t, "a", matches[1].SessionTitle)

	matches, err = svc.SearchTurns(ctx, "diffusion", "alice")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, a.ID, matches[0].SessionID)

	_, err = svc.SearchTurns(ctx, "  ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConversationService_UserSessions(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	first, err := svc.CreateSession(ctx, "alice", "first")
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, "alice", "second")
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "bob", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, second.ID))

	active, err := svc.UserSessions(ctx, "alice", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	all, err := svc.UserSessions(ctx, "alice", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "most recently updated first")
}

func TestConversationService_UpdateTitleAndDelete(t *testing.T) {
	svc, store, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "", "before")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateTitle(ctx, sess.ID, "after"))
	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)

	assert.ErrorIs(t, svc.UpdateTitle(ctx, sess.ID, " "), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.UpdateTitle(ctx, "missing", "x"), domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, sess.ID))
	_, err = svc.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, store.sessions)
	assert.ErrorIs(t, svc.Delete(ctx, sess.ID), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Deactivate(ctx, sess.ID), domain.ErrNotFound)
}

func TestConversationService_Analytics(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()

	empty, err := svc.Analytics(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalSessions)
	assert.Nil(t, empty.MostActiveSession)

	a, err := svc.CreateSession(ctx, "alice", "busy")
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "bob", "quiet")
	require.NoError(t, err)
	for _, q := range []float64{0.5, 1.0} {
		_, err := svc.AddTurn(ctx, domain.TurnInput{SessionID: a.ID, UserMessage: "x", ResponseQuality: q})
		require.NoError(t, err)
	}

	stats, err := svc.Analytics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, 2, stats.TotalTurns)
	assert.InDelta(t, 1.0, stats.AverageTurnsPerSession, 1e-9)
	assert.InDelta(t, 0.75, stats.AverageResponseQuality, 1e-9)
	assert.Equal(t, 2, stats.RecentSessions)
	require.NotNil(t, stats.MostActiveSession)
	assert.Equal(t, domain.SessionRef{ID: a.ID, Title: "busy", Turns: 2}, *stats.MostActiveSession)

	bob, err := svc.Analytics(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bob.TotalSessions)
	assert.Zero(t, bob.TotalTurns)
}

func TestConversationService_Export(t *testing.T) {
	svc, _, _ := newConversationFixture(t, defaultConversationSettings())
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, "", "Attention")
	require.NoError(t, err)
	_, err = svc.AddTurn(ctx, domain.TurnInput{
		SessionID:         sess.ID,
		UserMessage:       "What is attention?",
		AssistantResponse: "A weighting.",
		Citations:         []string{"[1] Vaswani 2017"},
	})
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		out, err := svc.Export(ctx, sess.ID, domain.ExportJSON)
		require.NoError(t, err)
		var got domain.Session
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, 1, got.TotalTurns)
		assert.Equal(t, "What is attention?", got.Turns[0].UserMessage)
	})

	t.Run("markdown", func(t *testing.T) {
		out, err := svc.Export(ctx, sess.ID, domain.ExportMarkdown)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "# Attention\n\n**Created:** 2024-03-01T09:01:00Z\n"))
		assert.Contains(t, out, "**Total Turns:** 1\n\n## Turn 1\n\n")
		assert.Contains(t, out, "**User:** What is attention?\n\n**Assistant:** A weighting.\n\n")
		assert.True(t, strings.HasSuffix(out, "**Citations:** [1] Vaswani 2017\n\n---\n\n"))
		assert.Equal(t, 1, strings.Count(out, "---\n"))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := svc.Export(ctx, sess.ID, "pdf")
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.Export(ctx, "missing", domain.ExportJSON)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestConversationService_ClearAllAndPurge(t *testing.T) {
	settings := defaultConversationSettings()
	settings.TTL = time.Hour
	svc, store, clock := newConversationFixture(t, settings)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, "", "")
	require.NoError(t, err)
	clock.t = clock.t.Add(2 * time.Hour)
	_, err = svc.CreateSession(ctx, "", "")
	require.NoError(t, err)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, svc.ClearAll(ctx))
	all, err := svc.UserSessions(ctx, "", false)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, store.sessions)
}

func TestConversationService_NilStore(t *testing.T) {
	svc := NewConversationService(nil, defaultConversationSettings())
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx))
	turn, err := svc.AddTurn(ctx, domain.TurnInput{UserMessage: "memory only"})
	require.NoError(t, err)
	assert.NotEmpty(t, turn.SessionID)
}
