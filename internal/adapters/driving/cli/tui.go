package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	corpusfile "github.com/custodia-labs/scholar/internal/adapters/driven/corpus/file"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui"
	"github.com/custodia-labs/scholar/internal/logger"
)

var tuiWatch []string

// runProgram runs the bubbletea program. Tests replace it.
var runProgram = func(app *tui.App) error {
	return app.Run()
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for scholar.

Search the indexed corpus, follow similar documents and review the
recorded search sessions. Every query is recorded as a turn of the
current session.

With --watch, the given corpus files are re-imported while the TUI runs.

Controls:
  ↑/k, ↓/j - Navigate results
  Tab      - Cycle search mode (hybrid, dense, sparse)
  Enter    - Search / Select
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringSliceVar(&tuiWatch, "watch", nil, "corpus files to re-import on change")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\nStack trace:\n%s\n", r, debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(searchService, indexService, conversationService, settingsService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Background work shares the program's context and stops with it.
	g, gctx := errgroup.WithContext(ctx)
	if err := watchCorpus(gctx, g, tuiWatch); err != nil {
		return err
	}
	app.WithContext(gctx)

	// Log lines would tear the alternate screen.
	logger.SetOutput(io.Discard)
	runErr := func() error {
		defer logger.SetOutput(os.Stderr)
		return runProgram(app)
	}()

	cancel()
	if werr := g.Wait(); werr != nil {
		logger.Error("watcher stopped: %v", werr)
	}
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

// watchCorpus re-imports paths on change until gctx is done.
func watchCorpus(gctx context.Context, g *errgroup.Group, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if indexService == nil {
		return errors.New("index service not configured")
	}
	w, err := corpusfile.NewWatcher(indexService, paths)
	if err != nil {
		return fmt.Errorf("failed to watch corpus files: %w", err)
	}
	g.Go(func() error { return w.Run(gctx) })
	return nil
}
