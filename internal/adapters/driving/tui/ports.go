// Package tui is scholar's terminal interface: a menu, a search page that
// records every query as a conversation turn, and pages for documents,
// sessions and settings.
package tui

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/scholar/internal/core/ports/driving"
)

var (
	ErrMissingSearchService = errors.New("tui: search service is required")
	ErrInvalidPorts         = errors.New("tui: invalid ports configuration")
)

// Ports are the services the views call. Search is required. Without
// Index a selected document shows its search result copy. Without
// Conversation searches go unrecorded and the sessions page is empty.
// Without Settings the search page starts in hybrid mode.
type Ports struct {
	Search       driving.SearchService
	Index        driving.IndexService
	Conversation driving.ConversationService
	Settings     driving.SettingsService
}

func NewPorts(
	search driving.SearchService,
	index driving.IndexService,
	conversation driving.ConversationService,
	settings driving.SettingsService,
) *Ports {
	return &Ports{Search: search, Index: index, Conversation: conversation, Settings: settings}
}

// Validate reports a missing required service.
func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil ports", ErrInvalidPorts)
	case p.Search == nil:
		return ErrMissingSearchService
	}
	return nil
}
