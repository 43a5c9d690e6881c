// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Eihwaz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/eihwaz/internal/coordinator"
	"github.com/starford/eihwaz/internal/storage"
)

// Server wraps the MCP server with Eihwaz tools.
type Server struct {
	mcp   *server.MCPServer
	coord *coordinator.Coordinator
	store storage.Provider
}

// New creates a new MCP server with all Eihwaz tools registered.
func New(coord *coordinator.Coordinator, store storage.Provider) *Server {
	s := &Server{coord: coord, store: store}

	s.mcp = server.NewMCPServer(
		"Eihwaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Return the vault tree as JSON: folders first, then notes, "+
			"each with its path-derived id. Ids change on rename/move; re-fetch the tree "+
			"after any structural operation. Read the eihwaz://identity resource first."),
	), s.getTree)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id, i.e. its vault-relative path without the .md extension (e.g. folder/note)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note with the given title. The note's id is derived "+
			"from the sanitized title and the parent folder path."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Human-readable note title")),
		mcp.WithString("parent", mcp.Description("Parent folder id (empty for vault root)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("rename_item",
		mcp.WithDescription("Rename a note or folder. The item's id changes (it is path-derived); "+
			"all open tabs, pins and folds referring to it are rewritten automatically."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Current item id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
	), s.renameItem)

	s.mcp.AddTool(mcp.NewTool("move_item",
		mcp.WithDescription("Move a note or folder under a target folder. Moving a folder into "+
			"itself or a descendant is rejected."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id to move")),
		mcp.WithString("target", mcp.Description("Target folder id (empty for vault root)")),
	), s.moveItem)

	s.mcp.AddTool(mcp.NewTool("delete_item",
		mcp.WithDescription("Delete a note, or a folder with its whole subtree."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id to delete")),
	), s.deleteItem)

	s.mcp.AddTool(mcp.NewTool("list_open_tabs",
		mcp.WithDescription("List the open editor tabs in display order, flagging tabs whose "+
			"note disappeared from disk."),
	), s.listOpenTabs)

	// Resource: identity contract.
	s.mcp.AddResource(
		mcp.NewResource("eihwaz://identity", "Vault Identity Contract",
			mcp.WithResourceDescription("How item ids are derived from paths and what renames do to them."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readIdentityResource,
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

func (s *Server) getTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.coord.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(s.coord.State().Tree(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.ReadNote(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parent := req.GetString("parent", "")

	rec, err := s.coord.CreateNote(ctx, title, parent)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", rec.ID)), nil
}

func (s *Server) renameItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, ok := s.coord.State().Record(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if rec.IsFolder() {
		newPath, renameErr := s.coord.RenameFolder(ctx, id, title)
		if renameErr != nil {
			return mcp.NewToolResultError(renameErr.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("renamed: %s -> %s", id, newPath)), nil
	}
	renamed, renameErr := s.coord.RenameNote(ctx, id, title)
	if renameErr != nil {
		return mcp.NewToolResultError(renameErr.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s -> %s", id, renamed.ID)), nil
}

func (s *Server) moveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := req.GetString("target", "")

	rec, ok := s.coord.State().Record(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if rec.IsFolder() {
		newPath, moveErr := s.coord.MoveFolder(ctx, id, target)
		if moveErr != nil {
			return mcp.NewToolResultError(moveErr.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("moved: %s -> %s", id, newPath)), nil
	}
	moved, moveErr := s.coord.MoveNote(ctx, id, target)
	if moveErr != nil {
		return mcp.NewToolResultError(moveErr.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("moved: %s -> %s", id, moved.ID)), nil
}

func (s *Server) deleteItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, ok := s.coord.State().Record(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if rec.IsFolder() {
		if delErr := s.coord.DeleteFolder(ctx, id); delErr != nil {
			return mcp.NewToolResultError(delErr.Error()), nil
		}
	} else {
		if delErr := s.coord.DeleteNote(ctx, id); delErr != nil {
			return mcp.NewToolResultError(delErr.Error()), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) listOpenTabs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.coord.State().OpenTabs(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readIdentityResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "eihwaz://identity",
			MIMEType: "text/markdown",
			Text:     IdentityContract,
		},
	}, nil
}
