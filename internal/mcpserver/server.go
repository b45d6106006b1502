// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dayvault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dayvault/internal/apperr"
	"github.com/starford/dayvault/internal/converter"
	"github.com/starford/dayvault/internal/history"
	"github.com/starford/dayvault/internal/models"
	"github.com/starford/dayvault/internal/storage"
	"github.com/starford/dayvault/internal/vault"
)

// FormatResourceURI names the vault format resource.
const FormatResourceURI = "dayvault://vault-format"

// Server wraps the MCP server with dayvault tools. Every conversion writes
// into the one vault the server was started on.
type Server struct {
	mcp       *server.MCPServer
	vaultRoot string
	entries   *vault.Service
	ledger    history.Ledger
	logger    *slog.Logger
}

// New creates a new MCP server with all dayvault tools registered. ledger
// may be nil, in which case runs are not recorded.
func New(store *storage.FS, ledger history.Ledger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		vaultRoot: store.Root(),
		entries:   vault.NewService(store),
		ledger:    ledger,
		logger:    logger,
	}

	s.mcp = server.NewMCPServer(
		"dayvault",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("convert_journal",
		mcp.WithDescription("Convert a journal export (a .zip archive or an extracted directory) "+
			"into the vault this server manages. Returns the run counters as JSON."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Local path of the export archive or directory")),
		mcp.WithBoolean("dedup", mcp.Description("Skip entries repeated with identical text (default true)")),
	), s.convertJournal)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List converted entries with their titles, identifiers and tags."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the full Markdown content of a converted entry."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path (e.g. entries/2024-01-15 Trip.md)")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("get_vault_contract",
		mcp.WithDescription("Returns the layout and frontmatter format of converted vaults. "+
			"Call this before interpreting entry files."),
	), s.getVaultContract)

	s.mcp.AddTool(mcp.NewTool("list_conversions",
		mcp.WithDescription("List recent conversion runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 50)")),
	), s.listConversions)

	s.mcp.AddResource(
		mcp.NewResource(FormatResourceURI, "Vault Format Contract",
			mcp.WithResourceDescription("Layout and frontmatter format of converted vaults."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readVaultFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) convertJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dedup := req.GetBool("dedup", true)

	run := models.Run{
		ID:        uuid.NewString(),
		Source:    input,
		Output:    s.vaultRoot,
		Dedup:     dedup,
		StartedAt: time.Now().UTC(),
	}
	res, err := converter.New(input, s.vaultRoot, dedup, converter.WithLogger(s.logger)).Convert(ctx)
	run.Converted, run.Skipped = res.Converted, res.Skipped
	run.Attachments, run.MissingMedia = res.Attachments, res.MissingMedia
	run.Finish(err)
	s.record(run)

	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("conversion failed: %v", err)), nil
	}
	out, _ := json.MarshalIndent(struct {
		ID string `json:"id"`
		converter.Result
	}{run.ID, res}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) record(run models.Run) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(run); err != nil {
		s.logger.Warn("record conversion failed", slog.String("id", run.ID), slog.String("error", err.Error()))
	}
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.entries.ListEntries(ctx, req.GetString("tag", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.entries.GetEntry(ctx, p)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", p)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(entry.Content), nil
}

func (s *Server) listConversions(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.ledger == nil {
		return mcp.NewToolResultError("conversion history is not enabled"), nil
	}
	runs, err := s.ledger.List(req.GetInt("limit", history.DefaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getVaultContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(VaultFormatContract), nil
}

func (s *Server) readVaultFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatResourceURI,
			MIMEType: "text/markdown",
			Text:     VaultFormatContract,
		},
	}, nil
}
