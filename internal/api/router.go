package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/eihwaz/internal/coordinator"
	"github.com/starford/eihwaz/internal/dragdrop"
	"github.com/starford/eihwaz/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(coord *coordinator.Coordinator, drag *dragdrop.Controller, store storage.Provider, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(coord, drag, store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Queries.
	r.Get("/tree", h.GetTree)
	r.Get("/workspace", h.GetWorkspace)
	r.Post("/refresh", h.Refresh)

	// Note content passthrough.
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)

	// Structural commands.
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/rename", h.RenameNote)
	r.Post("/notes/move", h.MoveNote)
	r.Delete("/notes/*", h.DeleteNote)
	r.Post("/folders", h.CreateFolder)
	r.Post("/folders/rename", h.RenameFolder)
	r.Post("/folders/move", h.MoveFolder)
	r.Delete("/folders/*", h.DeleteFolder)
	r.Post("/drop", h.Drop)

	// Drag gesture.
	r.Post("/drag/begin", h.DragBegin)
	r.Post("/drag/hover", h.DragHover)
	r.Post("/drag/drop", h.DragDrop)
	r.Post("/drag/cancel", h.DragCancel)

	// Workspace commands.
	r.Post("/tabs/open", h.OpenTab)
	r.Post("/tabs/close", h.CloseTab)
	r.Post("/tabs/pin", h.PinTab)
	r.Post("/tabs/unpin", h.UnpinTab)
	r.Post("/folders/expand", h.Expand)
	r.Post("/selection", h.Select)
	r.Post("/active", h.SetActive)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
