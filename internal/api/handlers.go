package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/eihwaz/internal/apperr"
	"github.com/starford/eihwaz/internal/coordinator"
	"github.com/starford/eihwaz/internal/dragdrop"
	"github.com/starford/eihwaz/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	coord *coordinator.Coordinator
	drag  *dragdrop.Controller
	store storage.Provider
}

// NewHandler creates a new Handler.
func NewHandler(coord *coordinator.Coordinator, drag *dragdrop.Controller, store storage.Provider) *Handler {
	return &Handler{coord: coord, drag: drag, store: store}
}

// itemID extracts the item id from the URL (everything after the route
// prefix). Supports encoded slashes from API clients (e.g. topics%2Fnote).
func itemID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeError maps the error taxonomy onto status codes: conflicts are 409,
// stale ids that survived the refresh-and-retry are 404, filesystem
// permission failures are 423, rejected operations (cycle moves, empty
// titles) are 422.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrPermissionDenied):
		writeJSON(w, http.StatusLocked, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidOperation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// decodeValid decodes the JSON body into req and runs its validation.
// Returns false (with the response already written) on failure.
func decodeValid(w http.ResponseWriter, r *http.Request, req interface{ Validate() error }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// GetTree handles GET /tree.
func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TreeResponse{Tree: h.coord.State().Tree()})
}

// GetWorkspace handles GET /workspace.
func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	st := h.coord.State()
	snap := st.Snapshot()
	resp := WorkspaceResponse{
		ExpandedFolders: snap.ExpandedFolders,
		OpenTabs:        st.OpenTabs(),
		PinnedTabs:      snap.PinnedTabs,
		ActiveID:        st.ActiveID(),
		SelectedIDs:     st.SelectedIDs(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	rec, err := h.coord.CreateNote(r.Context(), req.Title, req.ParentPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// CreateFolder handles POST /folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if !decodeValid(w, r, &req) {
		return
	}
	rec, err := h.coord.CreateFolder(r.Context(), req.Name, req.ParentPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// RenameNote handles POST /notes/rename.
func (h *Handler) RenameNote(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeValid(w, r, &req) {
		return
	}
	rec, err := h.coord.RenameNote(r.Context(), req.ID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// RenameFolder handles POST /folders/rename.
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeValid(w, r, &req) {
		return
	}
	newPath, err := h.coord.RenameFolder(r.Context(), req.ID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": newPath})
}

// MoveNote handles POST /notes/move.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeValid(w, r, &req) {
		return
	}
	rec, err := h.coord.MoveNote(r.Context(), req.ID, req.TargetPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// MoveFolder handles POST /folders/move.
func (h *Handler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeValid(w, r, &req) {
		return
	}
	newPath, err := h.coord.MoveFolder(r.Context(), req.ID, req.TargetPath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": newPath})
}

// Drop handles POST /drop: a batch move of the dragged set. The response is
// 200 even when items failed; per-item errors ride in the body.
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if !decodeValid(w, r, &req) {
		return
	}
	res := h.coord.BatchMove(r.Context(), req.IDs, req.TargetPath)
	writeJSON(w, http.StatusOK, res)
}

// DragBegin handles POST /drag/begin: starts a gesture on an item.
func (h *Handler) DragBegin(w http.ResponseWriter, r *http.Request) {
	var req TabRequest
	if !decodeValid(w, r, &req) {
		return
	}
	h.drag.Begin(req.ID)
	w.WriteHeader(http.StatusNoContent)
}

// DragHover handles POST /drag/hover: resolves the current drop target.
func (h *Handler) DragHover(w http.ResponseWriter, r *http.Request) {
	var req HoverRequest
	if !decodeValid(w, r, &req) {
		return
	}
	switch req.Kind {
	case "folder":
		h.drag.HoverFolder(req.ID)
	case "note":
		h.drag.HoverNote(req.ID)
	case "root":
		h.drag.HoverRoot()
	}
	writeJSON(w, http.StatusOK, map[string]string{"target": h.drag.Target()})
}

// DragDrop handles POST /drag/drop: commits the gesture.
func (h *Handler) DragDrop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.drag.Drop(r.Context()))
}

// DragCancel handles POST /drag/cancel.
func (h *Handler) DragCancel(w http.ResponseWriter, r *http.Request) {
	h.drag.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNote handles DELETE /notes/*.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := itemID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.coord.DeleteNote(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFolder handles DELETE /folders/*.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := itemID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.coord.DeleteFolder(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetNote handles GET /notes/*: raw content passthrough.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := itemID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	data, err := h.store.ReadNote(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteContentResponse{ID: id, Content: string(data)})
}

// UpdateNote handles PUT /notes/*: raw content passthrough.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := itemID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	var req WriteNoteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.store.WriteNote(id, []byte(req.Content)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteContentResponse{ID: id, Content: req.Content})
}

// OpenTab handles POST /tabs/open.
func (h *Handler) OpenTab(w http.ResponseWriter, r *http.Request) {
	var req TabRequest
	if !decodeValid(w, r, &req) {
		return
	}
	st := h.coord.State()
	rec, ok := st.Record(req.ID)
	if !ok || rec.IsFolder() {
		writeJSON(w, http.StatusNotFound, errorBody("no such note"))
		return
	}
	st.OpenTab(rec.ID, rec.Path)
	h.coord.Persist()
	w.WriteHeader(http.StatusNoContent)
}

// CloseTab handles POST /tabs/close. Abandoned empty creations are deleted
// by the coordinator as a side effect.
func (h *Handler) CloseTab(w http.ResponseWriter, r *http.Request) {
	var req TabRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.coord.CloseTab(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PinTab handles POST /tabs/pin.
func (h *Handler) PinTab(w http.ResponseWriter, r *http.Request) {
	var req TabRequest
	if !decodeValid(w, r, &req) {
		return
	}
	h.coord.State().Pin(req.ID)
	h.coord.Persist()
	w.WriteHeader(http.StatusNoContent)
}

// UnpinTab handles POST /tabs/unpin.
func (h *Handler) UnpinTab(w http.ResponseWriter, r *http.Request) {
	var req TabRequest
	if !decodeValid(w, r, &req) {
		return
	}
	h.coord.State().Unpin(req.ID)
	h.coord.Persist()
	w.WriteHeader(http.StatusNoContent)
}

// Expand handles POST /folders/expand.
func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if !decodeValid(w, r, &req) {
		return
	}
	h.coord.State().SetExpanded(req.Path, req.Expanded)
	h.coord.Persist()
	w.WriteHeader(http.StatusNoContent)
}

// Select handles POST /selection. Selection is transient: it never
// persists, so there is no Persist call here.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	h.coord.State().SetSelection(req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

// SetActive handles POST /active.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	h.coord.State().SetActive(req.ID)
	h.coord.Persist()
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /refresh: a forced re-listing of the vault.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Tree: h.coord.State().Tree()})
}
