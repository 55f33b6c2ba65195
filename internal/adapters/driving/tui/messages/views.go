package messages

// ViewType identifies a page of the TUI.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewSearch
	ViewSessions
	ViewHelp
	ViewDocDetails
	ViewSettings
)

var viewNames = [...]string{
	ViewMenu:       "menu",
	ViewSearch:     "search",
	ViewSessions:   "sessions",
	ViewHelp:       "help",
	ViewDocDetails: "doc_details",
	ViewSettings:   "settings",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to show another page.
type ViewChanged struct {
	View ViewType
}
