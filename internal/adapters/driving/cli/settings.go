package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure search, embedding, ingestion and conversation settings.

Without a subcommand the current settings are shown.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key, for example:

  scholar settings set search.semantic_weight 0.5
  scholar settings set conversation.backend sqlite

Run 'scholar settings keys' to list the keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Choose the search mode and embedding provider interactively",
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

var settingsModeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Set search mode",
	Long: `Set the default search mode.

  hybrid - weighted sum of semantic and keyword similarity
  dense  - semantic (embedding) similarity only
  sparse - keyword (TF-IDF) similarity only`,
	Args: cobra.NoArgs,
	RunE: runSettingsMode,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	Long: `Choose the embedding provider and model for semantic search. The new
configuration is checked against the provider before the command returns.`,
	Args: cobra.NoArgs,
	RunE: runSettingsEmbedding,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsKeysCmd,
		settingsWizardCmd, settingsModeCmd, settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

// settingsGroup is one bracketed block of `settings show`.
type settingsGroup struct {
	name string
	rows [][2]string
}

func (g *settingsGroup) add(label, format string, args ...any) {
	g.rows = append(g.rows, [2]string{label, fmt.Sprintf(format, args...)})
}

// describeSettings lays out s for display. Secrets are masked.
func describeSettings(s *domain.AppSettings) []settingsGroup {
	search := settingsGroup{name: "Search"}
	search.add("Mode", "%s", s.Search.Mode.Description())
	search.add("Semantic weight", "%.2f", s.Search.SemanticWeight)
	search.add("Oversample", "%d", s.Search.Oversample)
	search.add("Default limit", "%d", s.Search.DefaultLimit)

	emb := settingsGroup{name: "Embedding"}
	emb.add("Provider", "%s", s.Embedding.Provider.Description())
	emb.add("Model", "%s", s.Embedding.Model)
	emb.add("Dimensions", "%d", s.Embedding.Dimensions)
	if s.Embedding.BaseURL != "" {
		emb.add("Base URL", "%s", s.Embedding.BaseURL)
	}
	if s.Embedding.Provider.RequiresAPIKey() {
		key := "(not set)"
		if s.Embedding.APIKey != "" {
			key = maskAPIKey(s.Embedding.APIKey)
		}
		emb.add("API Key", "%s", key)
	}
	if s.Embedding.IsConfigured() {
		emb.add("Status", "configured")
	} else {
		emb.add("Status", "not configured")
	}

	sparse := settingsGroup{name: "Keyword Index"}
	sparse.add("Max features", "%d", s.Sparse.MaxFeatures)
	sparse.add("N-gram range", "%d-%d", s.Sparse.MinN, s.Sparse.MaxN)

	ingest := settingsGroup{name: "Ingest"}
	if s.Ingest.ChunkSize > 0 {
		ingest.add("Chunk size", "%d words", s.Ingest.ChunkSize)
		ingest.add("Chunk overlap", "%d", s.Ingest.ChunkOverlap)
	} else {
		ingest.add("Chunking", "disabled")
	}

	conv := settingsGroup{name: "Conversation"}
	conv.add("Backend", "%s", s.Conversation.Backend)
	if s.Conversation.MaxSessions > 0 {
		conv.add("Max sessions", "%d", s.Conversation.MaxSessions)
	} else {
		conv.add("Max sessions", "unlimited")
	}
	if s.Conversation.TTL > 0 {
		conv.add("Session TTL", "%d days", int(s.Conversation.TTL.Hours()/24))
	} else {
		conv.add("Session TTL", "never expires")
	}
	conv.add("Max context length", "%d", s.Conversation.MaxContextLength)
	if s.Conversation.Backend == domain.BackendRedis {
		conv.add("Redis", "%s db %d key %s", s.Redis.Addr, s.Redis.DB, s.Redis.Key)
	}

	return []settingsGroup{search, emb, sparse, ingest, conv}
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	for _, g := range describeSettings(settings) {
		cmd.Printf("\n[%s]\n", g.name)
		for _, row := range g.rows {
			cmd.Printf("  %s: %s\n", row[0], row[1])
		}
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'scholar settings wizard' to fix configuration issues.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	cmd.Println(strings.Join(settingsService.Keys(), "\n"))
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	p := newPrompter(cmd)

	heading(cmd, "Scholar Settings Wizard", "=")
	cmd.Println()

	heading(cmd, "Step 1: Select Search Mode", "-")
	mode, err := pickSearchMode(p, 1)
	if err != nil {
		return err
	}
	cmd.Printf("Set search mode to: %s\n\n", mode.Description())

	heading(cmd, "Step 2: Configure Embedding Provider", "-")
	if mode == domain.SearchModeSparse {
		cmd.Println("Keyword search does not use embeddings. Keeping the current provider.")
		cmd.Println()
	} else if err := pickEmbeddingProvider(p); err != nil {
		return err
	}

	heading(cmd, "Configuration Complete!", "=")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		return nil
	}
	cmd.Println("All settings are valid and saved.")
	return nil
}

func runSettingsMode(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	heading(cmd, "Select Search Mode", "-")
	mode, err := pickSearchMode(newPrompter(cmd), 0)
	if err != nil {
		return err
	}
	cmd.Printf("Search mode set to: %s\n", mode.Description())
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return pickEmbeddingProvider(newPrompter(cmd))
}

// pickSearchMode asks for a mode and saves it. def is the 1-based default
// answer, or 0 for none.
func pickSearchMode(p *prompter, def int) (domain.SearchMode, error) {
	modes := domain.AllSearchModes()
	labels := make([]string, len(modes))
	for i, m := range modes {
		labels[i] = m.Description()
	}
	i, err := p.menu(labels, def)
	if err != nil {
		return "", err
	}
	if err := settingsService.SetSearchMode(modes[i]); err != nil {
		return "", fmt.Errorf("failed to set search mode: %w", err)
	}
	return modes[i], nil
}

// pickEmbeddingProvider asks for a provider, its model and, when needed,
// an API key, then saves and checks the result against the provider.
func pickEmbeddingProvider(p *prompter) error {
	p.cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	labels := make([]string, len(providers))
	for i, pr := range providers {
		labels[i] = pr.Description()
	}
	i, err := p.menu(labels, 1)
	if err != nil {
		return err
	}
	provider := providers[i]

	model := p.ask("Enter model name", domain.DefaultEmbeddingModels()[provider])

	var apiKey string
	if provider.RequiresAPIKey() {
		if apiKey = p.secret("Enter API key"); apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	p.cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		p.cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	p.cmd.Println("OK")
	p.cmd.Printf("Embedding provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

// heading prints title underlined with rule.
func heading(cmd *cobra.Command, title, rule string) {
	cmd.Println(title)
	cmd.Println(strings.Repeat(rule, len(title)))
}

// maskAPIKey keeps the first and last four characters of keys long
// enough that this reveals little.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
