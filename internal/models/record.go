// Package models defines the domain types for Eihwaz.
package models

import "time"

// RecordType distinguishes notes from folders.
type RecordType string

// Record types.
const (
	TypeNote   RecordType = "note"
	TypeFolder RecordType = "folder"
)

// Record is the atomic unit reported by the backing store: a note or a
// folder. Identity is path-derived, not opaque: a note's ID is its
// vault-relative path without the .md extension, a folder's ID is its
// vault-relative path. Path holds the parent folder's ID ("" = vault root).
type Record struct {
	ID        string     `json:"id"`
	Path      string     `json:"path"`
	Title     string     `json:"title"`
	Type      RecordType `json:"type"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsFolder reports whether the record is a folder.
func (r Record) IsFolder() bool { return r.Type == TypeFolder }

// TreeNode is a Record plus its children. Children is always non-nil for
// folders (possibly empty) and nil for notes.
type TreeNode struct {
	Record
	Children []*TreeNode `json:"children,omitempty"`
}

// Tab is one open editor tab. Missing is set when the referenced record
// disappeared from the store (externally deleted) but the tab is kept so the
// user's context is not silently discarded.
type Tab struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Missing bool   `json:"missing,omitempty"`
}
