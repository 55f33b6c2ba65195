package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// timeLayout formats session timestamps for display.
const timeLayout = "2006-01-02 15:04:05"

var (
	sessionUser       string
	sessionActiveOnly bool
	sessionJSON       bool
	sessionLast       int
	sessionMaxLength  int
	sessionFormat     string
	sessionOutput     string
	sessionClearYes   bool

	turnSession   string
	turnMessage   string
	turnResponse  string
	turnCitations []string
	turnQuality   float64
	turnQuery     string
	turnResults   int
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
	Long: `Conversation sessions record what a user asked, what the assistant
answered and which documents were used. Sessions expire after the
configured idle time and the oldest are evicted beyond the configured cap.`,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Start a new session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionCreate,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session and its turns",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionContextCmd = &cobra.Command{
	Use:   "context [session-id]",
	Short: "Print the conversation context for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionContext,
}

var sessionTurnCmd = &cobra.Command{
	Use:   "turn",
	Short: "Record a turn",
	Long: `Records a user message and the assistant's response. Without --session,
or with an unknown session id, a new session is created for the turn.`,
	Args: cobra.NoArgs,
	RunE: runSessionTurn,
}

var sessionTitleCmd = &cobra.Command{
	Use:   "title [session-id] [title]",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionTitle,
}

var sessionDeactivateCmd = &cobra.Command{
	Use:   "deactivate [session-id]",
	Short: "Mark a session inactive",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDeactivate,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

var sessionExportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a session as JSON or markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionExport,
}

var sessionSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find turns mentioning a phrase",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionSearch,
}

var sessionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show conversation analytics",
	Args:  cobra.NoArgs,
	RunE:  runSessionStats,
}

var sessionPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionPurge,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every session",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	sessionCreateCmd.Flags().StringVarP(&sessionUser, "user", "u", "", "owner of the session")
	sessionListCmd.Flags().StringVarP(&sessionUser, "user", "u", "", "only sessions of this user")
	sessionListCmd.Flags().BoolVar(&sessionActiveOnly, "active", false, "only active sessions")
	sessionListCmd.Flags().BoolVar(&sessionJSON, "json", false, "output sessions as JSON")
	sessionShowCmd.Flags().IntVar(&sessionLast, "last", 0, "only the last N turns (0 = all)")
	sessionContextCmd.Flags().IntVar(&sessionMaxLength, "max-length", 0, "maximum context length (default from settings)")
	sessionExportCmd.Flags().StringVarP(&sessionFormat, "format", "f", string(domain.ExportMarkdown), "json or markdown")
	sessionExportCmd.Flags().StringVarP(&sessionOutput, "output", "o", "", "write to file instead of stdout")
	sessionSearchCmd.Flags().StringVarP(&sessionUser, "user", "u", "", "only sessions of this user")
	sessionSearchCmd.Flags().BoolVar(&sessionJSON, "json", false, "output matches as JSON")
	sessionStatsCmd.Flags().StringVarP(&sessionUser, "user", "u", "", "only sessions of this user")
	sessionStatsCmd.Flags().BoolVar(&sessionJSON, "json", false, "output analytics as JSON")
	sessionClearCmd.Flags().BoolVarP(&sessionClearYes, "yes", "y", false, "do not ask for confirmation")

	f := sessionTurnCmd.Flags()
	f.StringVarP(&turnSession, "session", "s", "", "session id (a new session when empty or unknown)")
	f.StringVarP(&turnMessage, "message", "m", "", "user message")
	f.StringVarP(&turnResponse, "response", "r", "", "assistant response")
	f.StringSliceVar(&turnCitations, "citation", nil, "citation shown with the response (repeatable)")
	f.Float64Var(&turnQuality, "quality", 0, "response quality score")
	f.StringVar(&turnQuery, "search-query", "", "search query the turn ran")
	f.IntVar(&turnResults, "search-results", 0, "number of search results the turn used")
	_ = sessionTurnCmd.MarkFlagRequired("message")

	for _, c := range []*cobra.Command{
		sessionCreateCmd, sessionListCmd, sessionShowCmd, sessionContextCmd,
		sessionTurnCmd, sessionTitleCmd, sessionDeactivateCmd, sessionDeleteCmd,
		sessionExportCmd, sessionSearchCmd, sessionStatsCmd, sessionPurgeCmd, sessionClearCmd,
	} {
		sessionCmd.AddCommand(c)
	}
	rootCmd.AddCommand(sessionCmd)
}

func requireConversation() error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}
	return nil
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	title := ""
	if len(args) == 1 {
		title = args[0]
	}
	session, err := conversationService.CreateSession(cmd.Context(), sessionUser, title)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	cmd.Printf("Created session %s (%s)\n", session.ID, session.Title)
	return nil
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	sessions, err := conversationService.UserSessions(cmd.Context(), sessionUser, sessionActiveOnly)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if sessionJSON {
		return printJSON(cmd, sessions)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions found.")
		return nil
	}

	for _, s := range sessions {
		state := "active"
		if !s.IsActive {
			state = "inactive"
		}
		cmd.Printf("  %s  %s\n", s.ID, s.Title)
		cmd.Printf("      %d turns, %s, updated %s\n", s.TotalTurns, state, s.UpdatedAt.Local().Format(timeLayout))
	}
	cmd.Printf("\nTotal: %d sessions\n", len(sessions))
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	ctx := cmd.Context()
	session, err := conversationService.GetSession(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	turns, err := conversationService.History(ctx, args[0], sessionLast)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	cmd.Printf("Session: %s\n\n", session.ID)
	cmd.Printf("  Title:   %s\n", session.Title)
	if session.UserID != "" {
		cmd.Printf("  User:    %s\n", session.UserID)
	}
	cmd.Printf("  Created: %s\n", session.CreatedAt.Local().Format(timeLayout))
	cmd.Printf("  Updated: %s\n", session.UpdatedAt.Local().Format(timeLayout))
	cmd.Printf("  Active:  %t\n", session.IsActive)
	cmd.Printf("  Turns:   %d\n", session.TotalTurns)
	if session.ContextSummary != "" {
		cmd.Printf("  Summary: %s\n", session.ContextSummary)
	}

	for i := range turns {
		t := &turns[i]
		cmd.Printf("\n  [%s]\n", t.Timestamp.Local().Format(timeLayout))
		cmd.Printf("  User:      %s\n", t.UserMessage)
		cmd.Printf("  Assistant: %s\n", t.AssistantResponse)
		for _, c := range t.Citations {
			cmd.Printf("    %s\n", c)
		}
	}
	return nil
}

func runSessionContext(cmd *cobra.Command, args []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	text, err := conversationService.ContextFor(cmd.Context(), args[0], sessionMaxLength)
	if err != nil {
		return fmt.Errorf("failed to build context: %w", err)
	}
	cmd.Println(text)
	return nil
}

func runSessionTurn(cmd *cobra.Command, _ []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	in := domain.TurnInput{
		SessionID:         turnSession,
		UserMessage:       turnMessage,
		AssistantResponse: turnResponse,
		Citations:         turnCitations,
		ResponseQuality:   turnQuality,
	}
	if cmd.Flags().Changed("search-query") {
		q := turnQuery
		in.SearchQuery = &q
	}
	if cmd.Flags().Changed("search-results") {
		n := turnResults
		in.SearchResultsCount = &n
	}

	turn, err := conversationService.AddTurn(cmd.Context(), in)
	if err != nil {
		return fmt.Errorf("failed to add turn: %w", err)
	}

	cmd.Printf("Recorded turn %s in session %s\n", turn.ID, turn.SessionID)
	return nil
}

func runSessionTitle(cmd *cobra.Command, args []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	if err := conversationService.UpdateTitle(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}
	cmd.Printf("Session %s renamed.\n", args[0])
	return nil
}

func runSessionDeactivate(cmd *cobra.Command, args []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	if err := conversationService.Deactivate(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	cmd.Printf("Session %s deactivated.\n", args[0])
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	if err := conversationService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	cmd.Printf("Session %s deleted.\n", args[0])
	return nil
}

func runSessionExport(cmd *cobra.Command, args []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	out, err := conversationService.Export(cmd.Context(), args[0], domain.ExportFormat(sessionFormat))
	if err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}

	if sessionOutput == "" {
		cmd.Println(out)
		return nil
	}
	if err := os.WriteFile(sessionOutput, []byte(out), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", sessionOutput, err)
	}
	cmd.Printf("Exported session %s to %s\n", args[0], sessionOutput)
	return nil
}

func runSessionSearch(cmd *cobra.Command, args []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	matches, err := conversationService.SearchTurns(cmd.Context(), args[0], sessionUser)
	if err != nil {
		return fmt.Errorf("failed to search conversations: %w", err)
	}

	if sessionJSON {
		return printJSON(cmd, matches)
	}

	if len(matches) == 0 {
		cmd.Println("No matching turns.")
		return nil
	}
	for i := range matches {
		m := &matches[i]
		cmd.Printf("  [%s] %s (%s)\n", m.Timestamp.Local().Format(timeLayout), m.SessionTitle, m.SessionID)
		cmd.Printf("      User: %s\n", preview(m.Turn.UserMessage, snippetRunes))
		cmd.Printf("      Assistant: %s\n", preview(m.Turn.AssistantResponse, snippetRunes))
	}
	return nil
}

func runSessionStats(cmd *cobra.Command, _ []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	a, err := conversationService.Analytics(cmd.Context(), sessionUser)
	if err != nil {
		return fmt.Errorf("failed to compute analytics: %w", err)
	}

	if sessionJSON {
		return printJSON(cmd, a)
	}

	cmd.Println("Conversation Analytics")
	cmd.Println("======================")
	cmd.Printf("  Sessions:          %d (%d active)\n", a.TotalSessions, a.ActiveSessions)
	cmd.Printf("  Turns:             %d\n", a.TotalTurns)
	cmd.Printf("  Turns per session: %.2f\n", a.AverageTurnsPerSession)
	cmd.Printf("  Response quality:  %.2f\n", a.AverageResponseQuality)
	cmd.Printf("  Last 7 days:       %d sessions\n", a.RecentSessions)
	if a.MostActiveSession != nil {
		cmd.Printf("  Most active:       %s (%d turns)\n", a.MostActiveSession.Title, a.MostActiveSession.Turns)
	}
	return nil
}

func runSessionPurge(cmd *cobra.Command, _ []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	n, err := conversationService.PurgeExpired(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	cmd.Printf("Removed %d expired sessions.\n", n)
	return nil
}

func runSessionClear(cmd *cobra.Command, _ []string) error {
	if err := requireConversation(); err != nil {
		return err
	}

	if !sessionClearYes && !confirm(cmd, "Delete every session?") {
		cmd.Println("Aborted.")
		return nil
	}
	if err := conversationService.ClearAll(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	cmd.Println("All sessions deleted.")
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
