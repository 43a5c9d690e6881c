// Package storage defines the vault record-store abstraction. The store is
// the final arbiter of what exists; the engine mirrors its listings and
// never invents records of its own.
package storage

import "github.com/starford/eihwaz/internal/models"

// Provider is the interface for vault record operations. All ids and paths
// are vault-relative (see models.Record for the identity rules). Failures
// are classified with the apperr sentinels.
type Provider interface {
	// ListRecords returns every note and folder in the vault.
	ListRecords() ([]models.Record, error)
	// CreateNote creates an empty note titled title under parentPath.
	CreateNote(title, parentPath string) (models.Record, error)
	// CreateFolder creates a folder named name under parentPath.
	CreateFolder(name, parentPath string) (models.Record, error)
	// RenameNote renames oldID to newID (same parent, new slug).
	RenameNote(oldID, newID string) (models.Record, error)
	// RenameFolder renames the folder at oldPath to newPath.
	RenameFolder(oldPath, newPath string) error
	// MoveNote moves the note oldID to newID (new parent, same slug).
	MoveNote(oldID, newID string) (models.Record, error)
	// MoveFolder moves the folder at fromPath to newPath.
	MoveFolder(fromPath, newPath string) error
	// DeleteNote removes a note.
	DeleteNote(id string) error
	// DeleteFolder removes a folder and everything under it.
	DeleteFolder(path string) error
	// ReadNote returns the raw Markdown content of a note.
	ReadNote(id string) ([]byte, error)
	// WriteNote atomically replaces a note's content.
	WriteNote(id string, content []byte) error
}
