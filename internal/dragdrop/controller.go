// Package dragdrop implements the drag gesture state machine on top of the
// move coordinator: multi-item drags, hover target resolution, cycle
// guarding and batch drop semantics.
package dragdrop

import (
	"context"
	"sync"

	"github.com/starford/eihwaz/internal/coordinator"
	"github.com/starford/eihwaz/internal/pathutil"
	"github.com/starford/eihwaz/internal/vault"
)

// Phase is the drag gesture phase.
type Phase int

// Gesture phases.
const (
	Idle Phase = iota
	Dragging
	Hovering
)

// Controller tracks one drag gesture at a time. The UI feeds it pointer
// events (Begin, HoverFolder/HoverNote/HoverRoot, Drop, Cancel); the
// controller owns target resolution and delegates the actual moves to the
// coordinator. Safe for concurrent use: pointer events arrive from
// concurrent request handlers, so every method holds the gesture lock.
type Controller struct {
	coord *coordinator.Coordinator
	state *vault.State

	mu     sync.Mutex
	phase  Phase
	items  []string
	target string // resolved drop target folder id; "" = vault root
}

// New creates an idle controller.
func New(coord *coordinator.Coordinator, state *vault.State) *Controller {
	return &Controller{coord: coord, state: state}
}

// Phase returns the current gesture phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Items returns a copy of the dragged item set, nil when idle.
func (c *Controller) Items() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.items...)
}

// Target returns the currently resolved drop target ("" = vault root).
// Meaningful only while hovering.
func (c *Controller) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Begin starts a drag on id. Dragging always operates on the current
// multi-selection: if id is not part of it, the selection is replaced with
// just that item.
func (c *Controller) Begin(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.IsSelected(id) {
		c.state.SetSelection([]string{id})
	}
	c.items = c.state.SelectedIDs()
	c.phase = Dragging
	c.target = ""
}

// HoverFolder resolves hovering over a folder row: the folder itself is the
// target. Recomputed on every pointer-over event.
func (c *Controller) HoverFolder(folderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Idle {
		return
	}
	c.target = pathutil.Normalize(folderID)
	c.phase = Hovering
}

// HoverNote resolves hovering over a note row: the note's parent folder is
// the target.
func (c *Controller) HoverNote(noteID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Idle {
		return
	}
	c.target = pathutil.Parent(noteID)
	c.phase = Hovering
}

// HoverRoot resolves hovering over empty space: the vault root is the
// target.
func (c *Controller) HoverRoot() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Idle {
		return
	}
	c.target = ""
	c.phase = Hovering
}

// Cancel abandons the gesture without moving anything.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// reset clears the gesture. Caller holds c.mu.
func (c *Controller) reset() {
	c.phase = Idle
	c.items = nil
	c.target = ""
}

// Drop moves the dragged set to the resolved target, sequentially, one
// result entry per failed item. No-op items (already at the target) and
// self-containment violations are handled by the coordinator per item.
// The gesture ends regardless of the outcome.
func (c *Controller) Drop(ctx context.Context) coordinator.BatchResult {
	c.mu.Lock()
	if c.phase != Hovering {
		c.reset()
		c.mu.Unlock()
		return coordinator.BatchResult{Success: true}
	}
	items, target := c.items, c.target
	c.reset()
	c.mu.Unlock()

	// The moves run outside the gesture lock; the gesture is already over
	// and a new drag may begin while the batch is in flight.
	return c.coord.BatchMove(ctx, items, target)
}
