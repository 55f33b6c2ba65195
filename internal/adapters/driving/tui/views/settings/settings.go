// Package settings is the TUI page for search and embedding settings.
package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driving"
)

// ErrNoSettingsService is returned when the view has no settings service.
var ErrNoSettingsService = errors.New("settings service not available")

// Section is the page the view shows: the overview or one of the pickers
// opened from it.
type Section int

const (
	SectionOverview Section = iota
	SectionSearchMode
	SectionWeight
	SectionEmbedding
)

// pickers lists the overview rows in display order.
var pickers = []Section{SectionSearchMode, SectionWeight, SectionEmbedding}

const weightKey = "search.semantic_weight"

// WeightPresets are the semantic weights offered for hybrid search.
var WeightPresets = []float64{1.0, 0.9, 0.7, 0.5, 0.3, 0.0}

// choice is one line of a picker, with an optional muted detail line.
type choice struct {
	label  string
	detail string
}

// page is what a picker section shows.
type page struct {
	title   string
	note    string
	choices []choice
	current int
}

// View lets the user change the search mode, the hybrid weight and the
// embedding provider. Every change is saved through the settings service
// and the settings are reloaded once the save lands.
type View struct {
	styles  *styles.Styles
	service driving.SettingsService

	settings *domain.AppSettings
	err      error

	section Section
	cursor  int

	// apiKey collects the key for providers that need one; typing goes to
	// it while keyFocused is set.
	apiKey     textinput.Model
	keyFocused bool

	width  int
	height int
	ready  bool
}

// NewView creates the view. A nil service leaves it showing a load error.
func NewView(s *styles.Styles, service driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	apiKey := textinput.New()
	apiKey.Placeholder = "Enter API key"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.CharLimit = 256

	return &View{styles: s, service: service, apiKey: apiKey}
}

// Init loads the settings.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc := v.service
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// save runs fn against the service off the update loop.
func (v *View) save(fn func(driving.SettingsService) error) tea.Cmd {
	svc := v.service
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Err: fn(svc)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}

	case messages.SettingsSaved:
		// A failed save keeps the picker open so the user can try again.
		v.err = msg.Err
		if msg.Err == nil {
			v.overview()
			return v, v.load()
		}

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	if key == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		}
		v.overview()
		return v, nil
	}

	if v.keyFocused {
		return v.handleAPIKey(msg)
	}

	switch key {
	case "up", "k":
		v.move(-1)
	case "down", "j":
		v.move(1)
	case "tab":
		if v.section == SectionEmbedding && v.provider().RequiresAPIKey() {
			return v, v.focusAPIKey()
		}
	case "enter":
		return v, v.choose()
	}
	return v, nil
}

func (v *View) handleAPIKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		v.keyFocused = false
		v.apiKey.Blur()
		return v, nil
	case "enter":
		return v, v.saveProvider(v.provider(), v.apiKey.Value())
	}
	var cmd tea.Cmd
	v.apiKey, cmd = v.apiKey.Update(msg)
	return v, cmd
}

func (v *View) focusAPIKey() tea.Cmd {
	v.keyFocused = true
	return v.apiKey.Focus()
}

// move shifts the cursor by delta, stopping at either end.
func (v *View) move(delta int) {
	n := len(pickers)
	if v.section != SectionOverview {
		n = len(v.page().choices)
	}
	v.cursor = max(0, min(n-1, v.cursor+delta))
}

// choose opens the picker under the cursor, or saves the choice under it.
func (v *View) choose() tea.Cmd {
	if v.settings == nil {
		return nil
	}
	switch v.section {
	case SectionOverview:
		v.section = pickers[v.cursor]
		v.cursor = v.page().current
		return nil
	case SectionSearchMode:
		mode := domain.AllSearchModes()[v.cursor]
		return v.save(func(svc driving.SettingsService) error { return svc.SetSearchMode(mode) })
	case SectionWeight:
		weight := strconv.FormatFloat(WeightPresets[v.cursor], 'f', -1, 64)
		return v.save(func(svc driving.SettingsService) error { return svc.Set(weightKey, weight) })
	case SectionEmbedding:
		if provider := v.provider(); !provider.RequiresAPIKey() {
			return v.saveProvider(provider, "")
		}
		return v.focusAPIKey()
	}
	return nil
}

func (v *View) saveProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	model := domain.DefaultEmbeddingModels()[provider]
	return v.save(func(svc driving.SettingsService) error {
		return svc.SetEmbeddingProvider(provider, model, apiKey)
	})
}

// provider is the embedding provider under the cursor.
func (v *View) provider() domain.AIProvider {
	return domain.AllEmbeddingProviders()[v.cursor]
}

func (v *View) overview() {
	v.section = SectionOverview
	v.cursor = 0
	v.keyFocused = false
	v.apiKey.SetValue("")
	v.apiKey.Blur()
}

// page describes the active picker against the loaded settings.
func (v *View) page() page {
	switch v.section {
	case SectionSearchMode:
		p := page{title: "Select Search Mode"}
		for i, mode := range domain.AllSearchModes() {
			p.choices = append(p.choices, choice{label: mode.Description()})
			if mode == v.settings.Search.Mode {
				p.current = i
			}
		}
		return p

	case SectionWeight:
		p := page{
			title:   "Select Semantic Weight",
			note:    "Hybrid score = weight x semantic + (1 - weight) x keyword",
			current: nearestPreset(v.settings.Search.SemanticWeight),
		}
		for _, w := range WeightPresets {
			p.choices = append(p.choices, choice{label: fmt.Sprintf("%.1f semantic / %.1f keyword", w, 1-w)})
		}
		return p

	case SectionEmbedding:
		p := page{title: "Select Embedding Provider"}
		defaults := domain.DefaultEmbeddingModels()
		for i, provider := range domain.AllEmbeddingProviders() {
			c := choice{label: provider.Description()}
			if model, ok := defaults[provider]; ok {
				c.detail = "Model: " + model
			}
			p.choices = append(p.choices, c)
			if provider == v.settings.Embedding.Provider {
				p.current = i
			}
		}
		return p
	}
	return page{}
}

// nearestPreset picks the preset closest to a weight set by hand.
func nearestPreset(weight float64) int {
	best := 0
	for i, w := range WeightPresets {
		if math.Abs(w-weight) < math.Abs(WeightPresets[best]-weight) {
			best = i
		}
	}
	return best
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings") + "\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: "+v.err.Error()) + "\n\n")
	}
	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	if v.section == SectionOverview {
		b.WriteString(v.renderOverview())
	} else {
		b.WriteString(v.renderPage())
	}
	b.WriteString("\n" + v.styles.Help.Render(v.help()))
	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder
	s := v.settings

	status := v.styles.Warning.Render("[needs API key]")
	if s.Embedding.IsConfigured() {
		status = v.styles.Success.Render("[configured]")
	}
	rows := []string{
		"Search Mode: " + s.Search.Mode.Description(),
		fmt.Sprintf("Semantic Weight: %.2f", s.Search.SemanticWeight),
		fmt.Sprintf("Embedding Provider: %s (%s) %s", s.Embedding.Provider.Description(), s.Embedding.Model, status),
	}
	for i, row := range rows {
		b.WriteString(v.line(row, i == v.cursor))
	}

	b.WriteString("\n" + v.styles.Muted.Render(fmt.Sprintf(
		"Keyword index: %d features, %d-%d grams. Sessions: %s.",
		s.Sparse.MaxFeatures, s.Sparse.MinN, s.Sparse.MaxN, s.Conversation.Backend)) + "\n\n")

	if v.service != nil {
		if err := v.service.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render("Warning: " + err.Error()))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
	}
	return b.String()
}

func (v *View) renderPage() string {
	var b strings.Builder
	p := v.page()

	b.WriteString(v.styles.Subtitle.Render(p.title) + "\n")
	if p.note != "" {
		b.WriteString(v.styles.Muted.Render(p.note) + "\n")
	}
	b.WriteString("\n")

	for i, c := range p.choices {
		label := c.label
		if i == p.current {
			label += v.styles.Success.Render(" (current)")
		}
		b.WriteString(v.line(label, i == v.cursor && !v.keyFocused))
		if c.detail != "" {
			b.WriteString(v.styles.Muted.Render("    "+c.detail) + "\n")
		}
	}

	if v.section == SectionEmbedding {
		if v.provider().RequiresAPIKey() {
			b.WriteString("\n" + v.styles.Normal.Render("API Key:") + "\n" + v.apiKey.View() + "\n")
		}
		b.WriteString("\n" + v.styles.Muted.Render("Takes effect the next time scholar starts.") + "\n")
	}
	return b.String()
}

// line renders one selectable row with the cursor marker.
func (v *View) line(text string, selected bool) string {
	if selected {
		return v.styles.Selected.Render("> "+text) + "\n"
	}
	return v.styles.Normal.Render("  "+text) + "\n"
}

func (v *View) help() string {
	switch {
	case v.section == SectionOverview:
		return "[j/k] navigate  [enter] edit  [esc] back"
	case v.keyFocused:
		return "[tab] back to list  [enter] save  [esc] back"
	case v.section == SectionEmbedding:
		return "[j/k] navigate  [tab] API key  [enter] select  [esc] back"
	default:
		return "[j/k] navigate  [enter] select  [esc] back"
	}
}

// Settings returns the loaded settings, or nil before the first load.
func (v *View) Settings() *domain.AppSettings { return v.settings }

// Section returns the active section.
func (v *View) Section() Section { return v.section }

// Selected returns the cursor within the active section.
func (v *View) Selected() int { return v.cursor }

// Err returns the last load or save error.
func (v *View) Err() error { return v.err }

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Reset returns to the overview and clears any error. Loaded settings
// are kept.
func (v *View) Reset() {
	v.overview()
	v.err = nil
}
