package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/eihwaz/internal/coordinator"
	"github.com/starford/eihwaz/internal/storage"
	"github.com/starford/eihwaz/internal/testutil"
	"github.com/starford/eihwaz/internal/vault"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := coordinator.New(store, vault.NewState(), nil, nil, logger)
	return New(coord, store), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we go
	// through the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_tree":
		result, err = srv.getTree(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "rename_item":
		result, err = srv.renameItem(ctx, req)
	case "move_item":
		result, err = srv.moveItem(ctx, req)
	case "delete_item":
		result, err = srv.deleteItem(ctx, req)
	case "list_open_tabs":
		result, err = srv.listOpenTabs(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title": "hello world",
	})
	if text := resultText(r); text != "created: hello world" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{
		"id": "hello world",
	})
	if text := resultText(r); !strings.Contains(text, "title: \"hello world\"") {
		t.Errorf("read result = %q", text)
	}
}

func TestGetTreeReflectsStructure(t *testing.T) {
	srv, store := testServer(t)
	if _, err := store.CreateFolder("topics", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateNote("channels", "topics"); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "get_tree", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"id": "topics/channels"`) {
		t.Errorf("tree missing nested note: %s", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestRenameItemRewritesDescendantIds(t *testing.T) {
	srv, store := testServer(t)
	if _, err := store.CreateFolder("a", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateNote("note1", "a"); err != nil {
		t.Fatal(err)
	}
	if err := srv.coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv.coord.State().OpenTab("a/note1", "a")

	r := callTool(t, srv, "rename_item", map[string]interface{}{
		"id": "a", "title": "z",
	})
	if text := resultText(r); text != "renamed: a -> z" {
		t.Errorf("result = %q", text)
	}

	r = callTool(t, srv, "list_open_tabs", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, `"id": "z/note1"`) {
		t.Errorf("tab id not rewritten: %s", text)
	}
}

func TestMoveItemIntoDescendantRejected(t *testing.T) {
	srv, store := testServer(t)
	if _, err := store.CreateFolder("a", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateFolder("b", "a"); err != nil {
		t.Fatal(err)
	}
	if err := srv.coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "move_item", map[string]interface{}{
		"id": "a", "target": "a/b",
	})
	if !r.IsError {
		t.Error("expected error moving a folder into its descendant")
	}
}

func TestDeleteItem(t *testing.T) {
	srv, store := testServer(t)
	if _, err := store.CreateNote("gone", ""); err != nil {
		t.Fatal(err)
	}
	if err := srv.coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "delete_item", map[string]interface{}{"id": "gone"})
	if text := resultText(r); text != "deleted: gone" {
		t.Errorf("result = %q", text)
	}
	if _, err := store.ReadNote("gone"); err == nil {
		t.Error("note still on disk")
	}
}
