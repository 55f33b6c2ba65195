// Package cli provides the command-line driving adapter for scholar.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scholar/internal/core/ports/driving"
	"github.com/custodia-labs/scholar/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands. They are populated by bootstrap before a
// command runs, or directly by tests.
var (
	searchService       driving.SearchService
	indexService        driving.IndexService
	conversationService driving.ConversationService
	settingsService     driving.SettingsService
)

// Root flags.
var (
	verbose    bool
	configDir  string
	dataDir    string
	closeFuncs []func() error
)

// bootstrap wires the services for a command. Tests replace it.
var bootstrap = wireServices

var rootCmd = &cobra.Command{
	Use:   "scholar",
	Short: "Hybrid retrieval over a local research corpus",
	Long: `Scholar indexes research documents (papers, repositories, articles)
and retrieves them with semantic, keyword or hybrid search.

It also keeps bounded conversation sessions so an assistant can recall
what was discussed and which documents were used.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.scholar)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.scholar/data)")
}

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd == versionCmd || bootstrap == nil || servicesReady() {
		return nil
	}
	return bootstrap(cmd)
}

func servicesReady() bool {
	return searchService != nil && indexService != nil &&
		conversationService != nil && settingsService != nil
}

// Execute runs the root command and releases any resources the services
// opened.
func Execute() error {
	err := rootCmd.Execute()
	return errors.Join(err, closeServices())
}

func closeServices() error {
	var errs []error
	for i := len(closeFuncs) - 1; i >= 0; i-- {
		if err := closeFuncs[i](); err != nil {
			errs = append(errs, err)
		}
	}
	closeFuncs = nil
	return errors.Join(errs...)
}
