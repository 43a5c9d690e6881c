package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/eihwaz/internal/models"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title      string `json:"title"`
	ParentPath string `json:"parentPath"`
}

// Validate implements request validation.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
	)
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name       string `json:"name"`
	ParentPath string `json:"parentPath"`
}

// Validate implements request validation.
func (r CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
	)
}

// RenameRequest renames a note (by id) or a folder (by path) to a new title.
type RenameRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Validate implements request validation.
func (r RenameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
	)
}

// MoveRequest moves one item under a target folder ("" = vault root).
type MoveRequest struct {
	ID         string `json:"id"`
	TargetPath string `json:"targetPath"`
}

// Validate implements request validation.
func (r MoveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
	)
}

// DropRequest moves a dragged set under a target folder.
type DropRequest struct {
	IDs        []string `json:"ids"`
	TargetPath string   `json:"targetPath"`
}

// Validate implements request validation.
func (r DropRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required, validation.Length(1, 0)),
	)
}

// HoverRequest resolves a drag hover target: "folder" targets the folder
// itself, "note" targets the note's parent, "root" targets the vault root.
type HoverRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Validate implements request validation.
func (r HoverRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In("folder", "note", "root")),
	)
}

// TabRequest targets one open tab by note id.
type TabRequest struct {
	ID string `json:"id"`
}

// Validate implements request validation.
func (r TabRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
	)
}

// ExpandRequest sets a folder's expanded state.
type ExpandRequest struct {
	Path     string `json:"path"`
	Expanded bool   `json:"expanded"`
}

// Validate implements request validation.
func (r ExpandRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
	)
}

// SelectRequest replaces the multi-selection.
type SelectRequest struct {
	IDs []string `json:"ids"`
}

// ActiveRequest sets the active item ("" clears it).
type ActiveRequest struct {
	ID string `json:"id"`
}

// WriteNoteRequest replaces a note's raw content.
type WriteNoteRequest struct {
	Content string `json:"content"`
}

// Validate implements request validation.
func (r WriteNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required),
	)
}

// WorkspaceResponse is the full workspace view: the persisted layout plus
// the live tab list (with missing flags) and the transient selection.
type WorkspaceResponse struct {
	ExpandedFolders []string     `json:"expandedFolders"`
	OpenTabs        []models.Tab `json:"openTabs"`
	PinnedTabs      []string     `json:"pinnedTabs"`
	ActiveID        string       `json:"activeId"`
	SelectedIDs     []string     `json:"selectedIds"`
}

// TreeResponse wraps the vault tree.
type TreeResponse struct {
	Tree []*models.TreeNode `json:"tree"`
}

// NoteContentResponse wraps raw note content.
type NoteContentResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}
