// Package services wires the index, the stores and the embedder into the
// operations the CLI, TUI and MCP server call.
package services
