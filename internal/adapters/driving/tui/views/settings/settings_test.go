package settings

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

// MockSettingsService is a mock implementation of driving.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppSettings), args.Error(1)
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	return m.Called(settings).Error(0)
}

func (m *MockSettingsService) Set(key, value string) error {
	return m.Called(key, value).Error(0)
}

func (m *MockSettingsService) SetSearchMode(mode domain.SearchMode) error {
	return m.Called(mode).Error(0)
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	return m.Called(provider, model, apiKey).Error(0)
}

func (m *MockSettingsService) Validate() error {
	return m.Called().Error(0)
}

func (m *MockSettingsService) ValidateEmbeddingConfig() error {
	return m.Called().Error(0)
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	args := m.Called()
	return args.Get(0).(domain.AppSettings)
}

func (m *MockSettingsService) Keys() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func testSettings() *domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Embedding.Model = "hashing-v1"
	return &s
}

// loadedView returns a view with settings applied and Validate stubbed.
func loadedView(t *testing.T, settings *domain.AppSettings) (*View, *MockSettingsService) {
	t.Helper()
	svc := new(MockSettingsService)
	svc.On("Validate").Return(nil).Maybe()
	v := NewView(nil, svc)
	v, _ = v.Update(messages.SettingsLoaded{Settings: settings})
	return v, svc
}

func press(v *View, keys ...string) (*View, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		v, cmd = v.Update(msg)
	}
	return v, cmd
}

func TestNewView(t *testing.T) {
	v := NewView(styles.DefaultStyles(), nil)
	require.NotNil(t, v)
	assert.Equal(t, SectionOverview, v.Section())
	assert.Nil(t, v.Settings())
}

func TestView_Init_LoadsSettings(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Get").Return(testSettings(), nil)

	msg := NewView(nil, svc).Init()()

	loaded, ok := msg.(messages.SettingsLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Equal(t, domain.SearchModeHybrid, loaded.Settings.Search.Mode)
}

func TestView_Init_NoService(t *testing.T) {
	msg := NewView(nil, nil).Init()()

	loaded, ok := msg.(messages.SettingsLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, ErrNoSettingsService)
}

func TestView_SettingsLoadedError(t *testing.T) {
	v := NewView(nil, nil)
	v, _ = v.Update(messages.SettingsLoaded{Err: errors.New("config unreadable")})

	assert.EqualError(t, v.Err(), "config unreadable")
	assert.Contains(t, v.View(), "Error: config unreadable")
	assert.Contains(t, v.View(), "Loading settings...")
}

func TestView_Overview_Render(t *testing.T) {
	v, _ := loadedView(t, testSettings())

	out := v.View()
	assert.Contains(t, out, "Settings")
	assert.Contains(t, out, "Search Mode: Hybrid (semantic + keyword)")
	assert.Contains(t, out, "Semantic Weight: 0.70")
	assert.Contains(t, out, "(hashing-v1)")
	assert.Contains(t, out, "[configured]")
	assert.Contains(t, out, "10000 features, 1-2 grams")
	assert.Contains(t, out, "Configuration is valid")
}

func TestView_Overview_ValidationWarning(t *testing.T) {
	settings := testSettings()
	settings.Embedding.Provider = domain.AIProviderOpenAI
	svc := new(MockSettingsService)
	svc.On("Validate").Return(errors.New("openai requires an api key"))
	v := NewView(nil, svc)
	v, _ = v.Update(messages.SettingsLoaded{Settings: settings})

	out := v.View()
	assert.Contains(t, out, "[needs API key]")
	assert.Contains(t, out, "Warning: openai requires an api key")
}

func TestView_Overview_Navigation(t *testing.T) {
	v, _ := loadedView(t, testSettings())

	v, _ = press(v, "j", "j", "j")
	assert.Equal(t, 2, v.Selected(), "selection clamps at the last row")

	v, _ = press(v, "k", "up", "up")
	assert.Equal(t, 0, v.Selected())
}

func TestView_Overview_EnterWithoutSettingsDoesNothing(t *testing.T) {
	v := NewView(nil, nil)
	v, _ = press(v, "enter")
	assert.Equal(t, SectionOverview, v.Section())
}

func TestView_EscFromOverview_ReturnsToMenu(t *testing.T) {
	v, _ := loadedView(t, testSettings())

	_, cmd := press(v, "esc")
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_EscFromSection_ReturnsToOverview(t *testing.T) {
	v, _ := loadedView(t, testSettings())

	v, _ = press(v, "down", "enter")
	require.Equal(t, SectionWeight, v.Section())

	v, cmd := press(v, "esc")
	assert.Nil(t, cmd)
	assert.Equal(t, SectionOverview, v.Section())
	assert.Equal(t, 0, v.Selected())
}

func TestView_SearchMode_SelectsCurrentAndSaves(t *testing.T) {
	settings := testSettings()
	settings.Search.Mode = domain.SearchModeSparse
	v, svc := loadedView(t, settings)
	svc.On("SetSearchMode", domain.SearchModeDense).Return(nil)

	v, _ = press(v, "enter")
	require.Equal(t, SectionSearchMode, v.Section())
	assert.Equal(t, 2, v.Selected(), "cursor starts on the current mode")
	assert.Contains(t, v.View(), "Keyword (TF-IDF) (current)")

	v, cmd := press(v, "k", "enter")
	require.NotNil(t, cmd)
	saved, ok := cmd().(messages.SettingsSaved)
	require.True(t, ok)
	assert.NoError(t, saved.Err)
	svc.AssertExpectations(t)
	assert.Equal(t, SectionSearchMode, v.Section(), "section changes only once the save lands")
}

func TestView_Weight_SavesPreset(t *testing.T) {
	v, svc := loadedView(t, testSettings())
	svc.On("Set", "search.semantic_weight", "0.5").Return(nil)

	v, _ = press(v, "j", "enter")
	require.Equal(t, SectionWeight, v.Section())
	assert.Equal(t, 2, v.Selected(), "0.7 preset preselected")
	assert.Contains(t, v.View(), "0.7 semantic / 0.3 keyword (current)")

	_, cmd := press(v, "j", "enter")
	require.NotNil(t, cmd)
	saved := cmd().(messages.SettingsSaved)
	assert.NoError(t, saved.Err)
	svc.AssertExpectations(t)
}

func TestView_Weight_NearestPresetPreselected(t *testing.T) {
	settings := testSettings()
	settings.Search.SemanticWeight = 0.82
	v, _ := loadedView(t, settings)

	v, _ = press(v, "j", "enter")
	assert.Equal(t, 1, v.Selected(), "0.82 is closest to 0.9")
}

func TestView_Embedding_LocalProviderSavesDirectly(t *testing.T) {
	v, svc := loadedView(t, testSettings())
	svc.On("SetEmbeddingProvider", domain.AIProviderOllama, "nomic-embed-text", "").Return(nil)

	v, _ = press(v, "j", "j", "enter")
	require.Equal(t, SectionEmbedding, v.Section())
	assert.Equal(t, 0, v.Selected())
	assert.Contains(t, v.View(), "Model: nomic-embed-text")
	assert.Contains(t, v.View(), "Takes effect the next time scholar starts.")

	_, cmd := press(v, "j", "enter")
	require.NotNil(t, cmd)
	assert.NoError(t, cmd().(messages.SettingsSaved).Err)
	svc.AssertExpectations(t)
}

func TestView_Embedding_OpenAIPromptsForKey(t *testing.T) {
	v, svc := loadedView(t, testSettings())
	svc.On("SetEmbeddingProvider", domain.AIProviderOpenAI, "text-embedding-3-small", "sk").Return(nil)

	v, _ = press(v, "j", "j", "enter", "j", "j")
	assert.Contains(t, v.View(), "API Key:")

	v, cmd := press(v, "enter")
	assert.NotNil(t, cmd, "focus returns a blink command")
	assert.Contains(t, v.View(), "[tab] back to list")

	v, _ = press(v, "s", "k")
	_, cmd = press(v, "enter")
	require.NotNil(t, cmd)
	assert.NoError(t, cmd().(messages.SettingsSaved).Err)
	svc.AssertExpectations(t)
}

func TestView_Embedding_TabLeavesKeyInput(t *testing.T) {
	v, _ := loadedView(t, testSettings())

	v, _ = press(v, "j", "j", "enter", "j", "j", "tab")
	assert.Contains(t, v.View(), "[tab] back to list")

	v, _ = press(v, "tab")
	assert.Contains(t, v.View(), "[tab] API key")
}

func TestView_SettingsSaved_ReloadsAndReturnsToOverview(t *testing.T) {
	v, svc := loadedView(t, testSettings())
	reloaded := testSettings()
	reloaded.Search.Mode = domain.SearchModeDense
	svc.On("Get").Return(reloaded, nil)

	v, _ = press(v, "enter")
	v, cmd := v.Update(messages.SettingsSaved{})
	assert.Equal(t, SectionOverview, v.Section())
	require.NotNil(t, cmd)

	v, _ = v.Update(cmd())
	assert.Equal(t, domain.SearchModeDense, v.Settings().Search.Mode)
}

func TestView_SettingsSaved_ErrorStaysInSection(t *testing.T) {
	v, _ := loadedView(t, testSettings())

	v, _ = press(v, "enter")
	v, cmd := v.Update(messages.SettingsSaved{Err: domain.ErrInvalidInput})
	assert.Nil(t, cmd)
	assert.Equal(t, SectionSearchMode, v.Section())
	assert.ErrorIs(t, v.Err(), domain.ErrInvalidInput)
}

func TestView_SaveWithoutService(t *testing.T) {
	v := NewView(nil, nil)
	v, _ = v.Update(messages.SettingsLoaded{Settings: testSettings()})

	v, _ = press(v, "enter")
	_, cmd := press(v, "enter")
	require.NotNil(t, cmd)
	assert.ErrorIs(t, cmd().(messages.SettingsSaved).Err, ErrNoSettingsService)
}

func TestView_WindowSize(t *testing.T) {
	v := NewView(nil, nil)
	v, cmd := v.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	assert.True(t, v.ready)
	assert.Equal(t, 80, v.width)

	v.SetDimensions(100, 40)
	assert.Equal(t, 100, v.width)
	assert.Equal(t, 40, v.height)
}

func TestView_Reset(t *testing.T) {
	v, _ := loadedView(t, testSettings())
	v, _ = press(v, "j", "enter")
	v.err = errors.New("stale")

	v.Reset()
	assert.Equal(t, SectionOverview, v.Section())
	assert.Equal(t, 0, v.Selected())
	assert.NoError(t, v.Err())
	assert.NotNil(t, v.Settings(), "settings survive a reset")
}
