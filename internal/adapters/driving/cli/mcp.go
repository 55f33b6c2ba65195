package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scholar/internal/adapters/driving/mcp"
)

// mcpFlags holds the serve options.
var mcpFlags struct {
	port int
	host string
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index to MCP clients",
	Long: `Serve search and conversation memory to MCP clients.

By default the server reads JSON-RPC from stdin and answers on stdout,
the way desktop assistants launch tools. Give --port to serve the
streamable HTTP transport at /mcp instead, with /healthz for probes.

Tools:     search, find_similar, browse, add_turn, conversation_context
Resources: scholar://stats, scholar://documents/{id}, scholar://sessions/{id}

Examples:
  scholar mcp serve
  scholar mcp serve --port 8080
  scholar mcp serve --host 0.0.0.0 --port 8080

Assistant configuration:
  {"mcpServers": {"scholar": {"command": "/path/to/scholar", "args": ["mcp", "serve"]}}}`,
	RunE: runMCPServe,
}

func init() {
	f := mcpServeCmd.Flags()
	f.IntVarP(&mcpFlags.port, "port", "p", 0, "HTTP port; 0 serves over stdio")
	f.StringVar(&mcpFlags.host, "host", "localhost", "HTTP listen host")

	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// listenAddr returns the HTTP address, or "" for stdio.
func listenAddr(host string, port int) (string, error) {
	switch {
	case port == 0:
		return "", nil
	case port < 0 || port > 65535:
		return "", fmt.Errorf("invalid port %d", port)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, err := listenAddr(mcpFlags.host, mcpFlags.port)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:       searchService,
		Index:        indexService,
		Conversation: conversationService,
	})
	if err != nil {
		return err
	}

	if addr == "" {
		return server.Run(cmd.Context())
	}
	return server.RunHTTP(cmd.Context(), addr)
}
