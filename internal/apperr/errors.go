// Package apperr defines the error taxonomy shared by the store and the
// coordination layer. Callers classify failures with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound reports an operation on a record the store no longer has.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a duplicate name at the destination. Never retried.
	ErrConflict = errors.New("conflict")
	// ErrPermissionDenied reports a locked or otherwise inaccessible file.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidOperation reports a structurally invalid request, e.g. moving
	// a folder into itself. Rejected client-side, never reaches the store.
	ErrInvalidOperation = errors.New("invalid operation")
)
