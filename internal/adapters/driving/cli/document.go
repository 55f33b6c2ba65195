package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect indexed documents",
	Long:  `View the title, content or metadata of an indexed document.`,
}

func init() {
	documentCmd.AddCommand(
		documentCommand("get", "Show document info", showDocument),
		documentCommand("content", "Print document content", func(cmd *cobra.Command, doc *domain.Document) error {
			cmd.Println(doc.Content)
			return nil
		}),
		documentCommand("details", "Show document metadata as JSON", showDocumentDetails),
	)
	rootCmd.AddCommand(documentCmd)
}

// documentCommand builds a subcommand that looks up its one argument and
// hands the document to show.
func documentCommand(use, short string, show func(*cobra.Command, *domain.Document) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [doc-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if indexService == nil {
				return errors.New("index service not configured")
			}
			doc, err := indexService.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get document: %w", err)
			}
			return show(cmd, doc)
		},
	}
}

func showDocument(cmd *cobra.Command, doc *domain.Document) error {
	md := doc.Metadata
	rows := [][2]string{
		{"Title", doc.Title},
		{"Source", md.SourceOrUnknown()},
		{"Authors", strings.Join(md.Authors, ", ")},
		{"Categories", strings.Join(md.Labels(), ", ")},
		{"Date", md.Date()},
		{"Chunk", doc.ChunkID},
		{"Length", fmt.Sprintf("%d characters", len([]rune(doc.Content)))},
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	for _, row := range rows {
		if row[1] != "" {
			cmd.Printf("  %-11s %s\n", row[0]+":", row[1])
		}
	}
	return nil
}

func showDocumentDetails(cmd *cobra.Command, doc *domain.Document) error {
	data, err := json.MarshalIndent(doc.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	cmd.Printf("Document Details: %s\n\n%s\n", doc.ID, data)
	return nil
}
