// Package coordinator orchestrates structural vault mutations. Every
// operation follows the same shape: call the store primitive first, and only
// on success rewrite workspace state (the full cascade in one atomic pass)
// and trigger a tree refresh. A store failure therefore never leaves a
// partially rewritten workspace: the view either matches the old disk truth
// or the new one.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/eihwaz/internal/apperr"
	"github.com/starford/eihwaz/internal/models"
	"github.com/starford/eihwaz/internal/parser"
	"github.com/starford/eihwaz/internal/pathutil"
	"github.com/starford/eihwaz/internal/storage"
	"github.com/starford/eihwaz/internal/vault"
)

// Event kinds passed to Events.PublishItemEvent.
const (
	EventCreated = "created"
	EventRenamed = "renamed"
	EventMoved   = "moved"
	EventDeleted = "deleted"
)

// Events receives structural change notifications. Implemented by the SSE
// broker; nil disables publishing.
type Events interface {
	PublishItemEvent(kind, id string)
}

// Coordinator applies rename/move/create/delete cascades over the store and
// the vault state. persist, if non-nil, runs after every workspace change
// (the settings layer hooks in there).
type Coordinator struct {
	store   storage.Provider
	state   *vault.State
	events  Events
	persist func()
	logger  *slog.Logger
}

// New creates a coordinator. events and persist may be nil.
func New(store storage.Provider, state *vault.State, events Events, persist func(), logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, state: state, events: events, persist: persist, logger: logger}
}

// State returns the vault state the coordinator mutates.
func (c *Coordinator) State() *vault.State { return c.state }

// Persist runs the persistence hook. Callers that mutate workspace state
// directly (tab order, folds, pins) use this to save through the same path
// as the cascades.
func (c *Coordinator) Persist() { c.persistNow() }

// Refresh pulls an authoritative listing from the store, rebuilds the tree
// and reconciles workspace state against it.
func (c *Coordinator) Refresh(_ context.Context) error {
	records, err := c.store.ListRecords()
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	c.state.SetRecords(records)
	vault.Reconcile(c.state)
	c.persistNow()
	return nil
}

// CreateNote creates a note, opens its tab, marks it newly created and makes
// it active. The marker makes an untouched creation eligible for auto-delete
// when its tab closes.
func (c *Coordinator) CreateNote(ctx context.Context, title, parentPath string) (models.Record, error) {
	rec, err := c.store.CreateNote(title, pathutil.Normalize(parentPath))
	if err != nil {
		return models.Record{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return rec, err
	}
	c.state.OpenTab(rec.ID, rec.Path)
	c.state.MarkCreated(rec.ID)
	if rec.Path != "" {
		c.state.SetExpanded(rec.Path, true)
	}
	c.persistNow()
	c.publish(EventCreated, rec.ID)
	c.logger.Info("note created", slog.String("id", rec.ID))
	return rec, nil
}

// CreateFolder creates a folder and expands its parent so it is visible.
func (c *Coordinator) CreateFolder(ctx context.Context, name, parentPath string) (models.Record, error) {
	rec, err := c.store.CreateFolder(name, pathutil.Normalize(parentPath))
	if err != nil {
		return models.Record{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return rec, err
	}
	if rec.Path != "" {
		c.state.SetExpanded(rec.Path, true)
		c.persistNow()
	}
	c.publish(EventCreated, rec.ID)
	c.logger.Info("folder created", slog.String("id", rec.ID))
	return rec, nil
}

// RenameNote derives the new id from the sanitized title and renames the
// note. A no-op rename (identical id) only clears the newly-created marker.
func (c *Coordinator) RenameNote(ctx context.Context, oldID, newTitle string) (models.Record, error) {
	slug := pathutil.SanitizeTitle(newTitle)
	if slug == "" {
		return models.Record{}, fmt.Errorf("rename: empty title: %w", apperr.ErrInvalidOperation)
	}
	newID := pathutil.Join(pathutil.Parent(oldID), slug)
	if newID == oldID {
		c.state.ClearCreated(oldID)
		c.persistNow()
		rec, _ := c.state.Record(oldID)
		return rec, nil
	}

	var rec models.Record
	err := c.retryNotFound(ctx, func() error {
		var opErr error
		rec, opErr = c.store.RenameNote(oldID, newID)
		return opErr
	})
	if err != nil {
		return models.Record{}, err
	}

	c.state.RewriteIdentity(oldID, newID)
	c.state.ClearCreated(newID)
	if err := c.Refresh(ctx); err != nil {
		return rec, err
	}
	c.publish(EventRenamed, newID)
	c.logger.Info("note renamed", slog.String("from", oldID), slog.String("to", newID))
	return rec, nil
}

// RenameFolder renames a folder and rewrites the id of every descendant
// reference across workspace state in one pass.
func (c *Coordinator) RenameFolder(ctx context.Context, oldPath, newName string) (string, error) {
	slug := pathutil.SanitizeTitle(newName)
	if slug == "" {
		return "", fmt.Errorf("rename: empty folder name: %w", apperr.ErrInvalidOperation)
	}
	oldPath = pathutil.Normalize(oldPath)
	newPath := pathutil.Join(pathutil.Parent(oldPath), slug)
	if newPath == oldPath {
		return oldPath, nil
	}

	err := c.retryNotFound(ctx, func() error {
		return c.store.RenameFolder(oldPath, newPath)
	})
	if err != nil {
		return "", err
	}

	c.state.RewritePrefix(oldPath, newPath)
	if err := c.Refresh(ctx); err != nil {
		return newPath, err
	}
	c.publish(EventRenamed, newPath)
	c.logger.Info("folder renamed", slog.String("from", oldPath), slog.String("to", newPath))
	return newPath, nil
}

// MoveNote moves a note under toPath, keeping its slug. Moving to the
// current parent is a no-op.
func (c *Coordinator) MoveNote(ctx context.Context, id, toPath string) (models.Record, error) {
	rec, err := c.moveNote(ctx, id, toPath)
	if err != nil {
		return models.Record{}, err
	}
	if rec.ID == id {
		return rec, nil // no-op
	}
	if err := c.Refresh(ctx); err != nil {
		return rec, err
	}
	c.publish(EventMoved, rec.ID)
	return rec, nil
}

// MoveFolder moves a folder under toPath. Moving a folder into itself or
// any of its descendants is rejected before the store is called.
func (c *Coordinator) MoveFolder(ctx context.Context, fromPath, toPath string) (string, error) {
	newPath, err := c.moveFolder(ctx, fromPath, toPath)
	if err != nil {
		return "", err
	}
	if newPath == pathutil.Normalize(fromPath) {
		return newPath, nil // no-op
	}
	if err := c.Refresh(ctx); err != nil {
		return newPath, err
	}
	c.publish(EventMoved, newPath)
	return newPath, nil
}

// BatchMove moves a set of items under targetPath sequentially. Each item's
// move is independent: one failure neither stops nor rolls back the others,
// and every failure is attributed to its item in the result. After a batch
// with at least one change the target folder is expanded and a single
// refresh runs.
func (c *Coordinator) BatchMove(ctx context.Context, ids []string, targetPath string) BatchResult {
	targetPath = pathutil.Normalize(targetPath)
	res := BatchResult{Success: true}

	for _, id := range ids {
		rec, ok := c.state.Record(id)
		if !ok {
			res.fail(id, fmt.Errorf("%q: %w", id, apperr.ErrNotFound))
			continue
		}
		if rec.IsFolder() {
			newPath, err := c.moveFolder(ctx, id, targetPath)
			if err != nil {
				res.fail(id, err)
				continue
			}
			if newPath != id {
				res.Moved = append(res.Moved, newPath)
			}
		} else {
			moved, err := c.moveNote(ctx, id, targetPath)
			if err != nil {
				res.fail(id, err)
				continue
			}
			if moved.ID != id {
				res.Moved = append(res.Moved, moved.ID)
			}
		}
	}

	if len(res.Moved) > 0 {
		if targetPath != "" {
			c.state.SetExpanded(targetPath, true)
		}
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warn("batch move: refresh failed", slog.String("error", err.Error()))
		}
		c.publish(EventMoved, targetPath)
	}
	return res
}

// DeleteNote deletes a note and drops every workspace reference to it.
func (c *Coordinator) DeleteNote(ctx context.Context, id string) error {
	if err := c.store.DeleteNote(id); err != nil {
		return err
	}
	c.state.DropIdentity(id)
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	c.publish(EventDeleted, id)
	c.logger.Info("note deleted", slog.String("id", id))
	return nil
}

// DeleteFolder deletes a folder subtree and drops every workspace reference
// at or under it.
func (c *Coordinator) DeleteFolder(ctx context.Context, path string) error {
	path = pathutil.Normalize(path)
	if err := c.store.DeleteFolder(path); err != nil {
		return err
	}
	c.state.DropPrefix(path)
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	c.publish(EventDeleted, path)
	c.logger.Info("folder deleted", slog.String("path", path))
	return nil
}

// CloseTab closes a tab. A note that still carries the newly-created marker
// and was never written to is an abandoned creation and is deleted from the
// store.
func (c *Coordinator) CloseTab(ctx context.Context, id string) error {
	wasNew := c.state.CloseTab(id)
	c.persistNow()
	if !wasNew {
		return nil
	}
	data, err := c.store.ReadNote(id)
	if err != nil {
		// Already gone; nothing to clean up.
		return nil
	}
	if strings.TrimSpace(parser.Parse(data).Body) != "" {
		return nil
	}
	c.logger.Info("deleting abandoned empty note", slog.String("id", id))
	return c.DeleteNote(ctx, id)
}

// moveNote performs the store move and single-note cascade without a
// refresh. Returns the unchanged record for a no-op move.
func (c *Coordinator) moveNote(ctx context.Context, id, toPath string) (models.Record, error) {
	toPath = pathutil.Normalize(toPath)
	if pathutil.Parent(id) == toPath {
		rec, _ := c.state.Record(id)
		rec.ID = id
		return rec, nil
	}
	newID := pathutil.Join(toPath, pathutil.Base(id))

	var rec models.Record
	err := c.retryNotFound(ctx, func() error {
		var opErr error
		rec, opErr = c.store.MoveNote(id, newID)
		return opErr
	})
	if err != nil {
		return models.Record{}, err
	}
	c.state.RewriteIdentity(id, newID)
	return rec, nil
}

// moveFolder performs the store move and prefix cascade without a refresh.
// Returns fromPath unchanged for a no-op move.
func (c *Coordinator) moveFolder(ctx context.Context, fromPath, toPath string) (string, error) {
	fromPath = pathutil.Normalize(fromPath)
	toPath = pathutil.Normalize(toPath)
	if pathutil.IsDescendantOrSelf(toPath, fromPath) {
		return "", fmt.Errorf("move %s into %s: %w", fromPath, toPath, apperr.ErrInvalidOperation)
	}
	if pathutil.Parent(fromPath) == toPath {
		return fromPath, nil
	}
	newPath := pathutil.Join(toPath, pathutil.Base(fromPath))

	err := c.retryNotFound(ctx, func() error {
		return c.store.MoveFolder(fromPath, newPath)
	})
	if err != nil {
		return "", err
	}
	c.state.RewritePrefix(fromPath, newPath)
	return newPath, nil
}

// retryNotFound runs op, and on NotFound forces a refresh and retries the
// intent exactly once. Conflicts and permission errors are never retried.
func (c *Coordinator) retryNotFound(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	c.logger.Debug("stale record, refreshing before retry", slog.String("error", err.Error()))
	if rerr := c.Refresh(ctx); rerr != nil {
		return err
	}
	return op()
}

func (c *Coordinator) publish(kind, id string) {
	if c.events != nil {
		c.events.PublishItemEvent(kind, id)
	}
}

func (c *Coordinator) persistNow() {
	if c.persist != nil {
		c.persist()
	}
}

// BatchResult aggregates the outcome of a sequential batch move.
type BatchResult struct {
	Success bool        `json:"success"`
	Moved   []string    `json:"moved,omitempty"`
	Errors  []ItemError `json:"errors,omitempty"`
}

// ItemError attributes one failure to one item of a batch.
type ItemError struct {
	ID  string `json:"id"`
	Err string `json:"error"`
}

func (r *BatchResult) fail(id string, err error) {
	r.Success = false
	r.Errors = append(r.Errors, ItemError{ID: id, Err: err.Error()})
}
