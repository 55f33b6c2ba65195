package domain

import "time"

// Session is a bounded dialogue with its turns and rolling summary.
//
// Invariants: TotalTurns == len(Turns); UpdatedAt never decreases.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Turns          []Turn    `json:"turns"`
	ContextSummary string    `json:"context_summary"`
	TotalTurns     int       `json:"total_turns"`
	IsActive       bool      `json:"is_active"`
}

// Clone returns a deep copy safe to hand to callers.
func (s *Session) Clone() *Session {
	c := *s
	c.Turns = make([]Turn, len(s.Turns))
	for i, t := range s.Turns {
		c.Turns[i] = t.Clone()
	}
	return &c
}

// LastTurns returns up to n most recent turns.
func (s *Session) LastTurns(n int) []Turn {
	if n <= 0 || n >= len(s.Turns) {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// Turn is one user message with the assistant's reply.
type Turn struct {
	ID                string           `json:"id"`
	SessionID         string           `json:"session_id"`
	UserMessage       string           `json:"user_message"`
	AssistantResponse string           `json:"assistant_response"`
	ContextUsed       []map[string]any `json:"context_used"`
	Citations         []string         `json:"citations"`
	Timestamp         time.Time        `json:"timestamp"`
	ResponseQuality   float64          `json:"response_quality"`

	// SearchQuery and SearchResultsCount are set when the turn ran a search.
	SearchQuery        *string `json:"search_query,omitempty"`
	SearchResultsCount *int    `json:"search_results_count,omitempty"`
}

// Clone returns a deep copy of the turn.
func (t Turn) Clone() Turn {
	c := t
	c.ContextUsed = make([]map[string]any, len(t.ContextUsed))
	for i, m := range t.ContextUsed {
		c.ContextUsed[i] = make(map[string]any, len(m))
		for k, v := range m {
			c.ContextUsed[i][k] = v
		}
	}
	c.Citations = append([]string(nil), t.Citations...)
	if t.SearchQuery != nil {
		q := *t.SearchQuery
		c.SearchQuery = &q
	}
	if t.SearchResultsCount != nil {
		n := *t.SearchResultsCount
		c.SearchResultsCount = &n
	}
	return c
}

// TurnInput carries the caller supplied fields of a new turn.
type TurnInput struct {
	SessionID          string
	UserMessage        string
	AssistantResponse  string
	ContextUsed        []map[string]any
	Citations          []string
	ResponseQuality    float64
	SearchQuery        *string
	SearchResultsCount *int
}

// ConversationAnalytics aggregates sessions, optionally for one user.
type ConversationAnalytics struct {
	TotalSessions          int         `json:"total_sessions"`
	ActiveSessions         int         `json:"active_sessions"`
	TotalTurns             int         `json:"total_turns"`
	AverageTurnsPerSession float64     `json:"average_turns_per_session"`
	AverageResponseQuality float64     `json:"average_response_quality"`
	MostActiveSession      *SessionRef `json:"most_active_session,omitempty"`
	RecentSessions         int         `json:"sessions_last_7_days"`
}

// SessionRef identifies a session in analytics output.
type SessionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Turns int    `json:"turns"`
}

// TurnMatch is a turn found by a conversation search.
type TurnMatch struct {
	SessionID    string    `json:"session_id"`
	SessionTitle string    `json:"session_title"`
	Turn         Turn      `json:"turn"`
	Timestamp    time.Time `json:"timestamp"`
}

// ExportFormat selects the output of a session export.
type ExportFormat string

const (
	ExportJSON     ExportFormat = "json"
	ExportMarkdown ExportFormat = "markdown"
)

// IsValid returns true if f is a supported format.
func (f ExportFormat) IsValid() bool {
	return f == ExportJSON || f == ExportMarkdown
}
