// Package messages holds the tea.Msg types passed between the app and its
// views. Results of asynchronous service calls carry their error instead of
// being split into success and failure messages.
package messages

import (
	"github.com/custodia-labs/scholar/internal/core/domain"
)

// Search.
type (
	// SearchCompleted carries the hits of a query, or of a similarity
	// listing when Query is empty.
	SearchCompleted struct {
		Query   string
		Mode    domain.SearchMode
		Results []domain.SearchResult
		Err     error
	}

	// ModeChanged reports a mode cycled with tab so it can be saved.
	ModeChanged struct {
		Mode domain.SearchMode
	}

	DocumentSelected struct {
		Document domain.Document
	}

	// DocumentLoaded carries the stored version of a selected document.
	DocumentLoaded struct {
		Document *domain.Document
		Err      error
	}

	// SimilarRequested asks the search page to list documents close to
	// Document.
	SimilarRequested struct {
		Document domain.Document
	}

	// StatsLoaded carries the index summary shown on the menu.
	StatsLoaded struct {
		Stats domain.IndexStats
	}
)

// Conversation.
type (
	// TurnRecorded carries the turn a query was recorded as.
	TurnRecorded struct {
		Turn *domain.Turn
		Err  error
	}

	SessionsLoaded struct {
		Sessions []*domain.Session
		Err      error
	}

	SessionRemoved struct {
		ID  string
		Err error
	}

	SessionDeactivated struct {
		ID  string
		Err error
	}
)

// Settings.
type (
	SettingsLoaded struct {
		Settings *domain.AppSettings
		Err      error
	}

	SettingsSaved struct {
		Err error
	}
)

// ErrorOccurred reports a failure outside any of the calls above.
type ErrorOccurred struct {
	Err error
}

// Quit ends the program.
type Quit struct{}
