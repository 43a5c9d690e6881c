// Package vault holds the in-memory source of truth for the engine: the raw
// record list, the built tree, and all transient workspace view state (open
// tabs, pinned tabs, expanded folders, selection, active item, newly-created
// markers).
//
// Identity in the vault is path-derived, so renaming or moving an entity
// changes its id and the id of every descendant. The Identity Rewrite
// Invariant lives here: RewriteIdentity and RewritePrefix rewrite every
// occurrence of an old id anywhere in workspace state inside one critical
// section, so no caller ever observes a partially rewritten workspace.
package vault

import (
	"sync"

	"github.com/starford/eihwaz/internal/models"
	"github.com/starford/eihwaz/internal/pathutil"
	"github.com/starford/eihwaz/internal/tree"
)

// State is the single owner of workspace state. All components read and
// mutate it through these methods, never by reaching into the structures,
// which keeps the rename/move cascades centralized.
//
// Every method takes the one internal lock, so each call — including a full
// cascade — is atomic with respect to every other call. Store I/O never
// happens under this lock.
type State struct {
	mu sync.Mutex

	records []models.Record
	byID    map[string]models.Record
	tree    []*models.TreeNode

	tabs     []models.Tab
	pinned   map[string]struct{}
	expanded map[string]struct{}
	selected map[string]struct{}
	activeID string
	created  map[string]struct{}
}

// NewState returns an empty vault state.
func NewState() *State {
	return &State{
		byID:     make(map[string]models.Record),
		pinned:   make(map[string]struct{}),
		expanded: make(map[string]struct{}),
		selected: make(map[string]struct{}),
		created:  make(map[string]struct{}),
	}
}

// SetRecords replaces the record list with a fresh authoritative listing and
// rebuilds the tree. Workspace state is not touched here; callers run
// Reconcile afterwards.
func (s *State) SetRecords(records []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.byID = make(map[string]models.Record, len(records))
	for _, r := range records {
		if _, ok := s.byID[r.ID]; !ok {
			s.byID[r.ID] = r
		}
	}
	s.tree = tree.Build(records)
}

// Records returns the current record list. Callers must treat it as
// read-only.
func (s *State) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// Record looks up a record by id.
func (s *State) Record(id string) (models.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	return r, ok
}

// Tree returns the current built tree. Callers must treat it as read-only.
func (s *State) Tree() []*models.TreeNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// OpenTab appends a tab if the id is not already open (insertion order is
// display order) and makes it active.
func (s *State) OpenTab(id, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tabs {
		if t.ID == id {
			s.activeID = id
			return
		}
	}
	s.tabs = append(s.tabs, models.Tab{ID: id, Path: pathutil.Normalize(path)})
	s.activeID = id
}

// CloseTab removes a tab and every per-tab marker for it. It reports whether
// the id still carried the newly-created marker, so the coordinator can
// delete abandoned empty creations.
func (s *State) CloseTab(id string) (wasNewlyCreated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.tabs[:0]
	for _, t := range s.tabs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	s.tabs = out
	delete(s.pinned, id)
	delete(s.selected, id)
	_, wasNewlyCreated = s.created[id]
	delete(s.created, id)
	if s.activeID == id {
		s.activeID = ""
		if len(s.tabs) > 0 {
			s.activeID = s.tabs[len(s.tabs)-1].ID
		}
	}
	return wasNewlyCreated
}

// OpenTabs returns a copy of the open tab list in display order.
func (s *State) OpenTabs() []models.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Tab, len(s.tabs))
	copy(out, s.tabs)
	return out
}

// Pin marks a tab id as pinned.
func (s *State) Pin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned[id] = struct{}{}
}

// Unpin removes the pinned marker.
func (s *State) Unpin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pinned, id)
}

// IsPinned reports pinned membership.
func (s *State) IsPinned(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pinned[id]
	return ok
}

// SetExpanded marks or unmarks a folder as expanded.
func (s *State) SetExpanded(id string, expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expanded {
		s.expanded[id] = struct{}{}
	} else {
		delete(s.expanded, id)
	}
}

// IsExpanded reports expanded membership.
func (s *State) IsExpanded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.expanded[id]
	return ok
}

// SetSelection replaces the multi-selection.
func (s *State) SetSelection(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.selected[id] = struct{}{}
	}
}

// ClearSelection empties the multi-selection.
func (s *State) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]struct{})
}

// IsSelected reports selection membership.
func (s *State) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[id]
	return ok
}

// SelectedIDs returns the current selection in unspecified order.
func (s *State) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	return out
}

// SetActive sets the active item id ("" for none).
func (s *State) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = id
}

// ActiveID returns the active item id.
func (s *State) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// MarkCreated flags an id as newly created but not yet confirmed or renamed
// by the user.
func (s *State) MarkCreated(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created[id] = struct{}{}
}

// ClearCreated removes the newly-created marker.
func (s *State) ClearCreated(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.created, id)
}

// IsNewlyCreated reports whether the marker is still set.
func (s *State) IsNewlyCreated(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.created[id]
	return ok
}

// RewriteIdentity rewrites every workspace reference to a single renamed or
// moved note in one atomic pass: tab id and path, pinned membership, active
// id, newly-created marker. Selection for the item is cleared (structural
// changes drop selection; the policy is uniform across all cascades).
func (s *State) RewriteIdentity(oldID, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if oldID == newID {
		return
	}
	newPath := pathutil.Parent(newID)
	for i := range s.tabs {
		if s.tabs[i].ID == oldID {
			s.tabs[i].ID = newID
			s.tabs[i].Path = newPath
		}
	}
	transfer(s.pinned, oldID, newID)
	transfer(s.created, oldID, newID)
	delete(s.selected, oldID)
	if s.activeID == oldID {
		s.activeID = newID
	}
}

// RewritePrefix rewrites every workspace reference under a renamed or moved
// folder in one atomic pass. Descendant ids are computed relative to
// ancestor paths, so the folder's own id and the id of every descendant tab,
// pinned entry, expanded folder and marker all change together. Selection
// for affected items is cleared.
func (s *State) RewritePrefix(oldPrefix, newPrefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if oldPrefix == newPrefix {
		return
	}
	for i := range s.tabs {
		s.tabs[i].ID = pathutil.RewritePrefix(s.tabs[i].ID, oldPrefix, newPrefix)
		s.tabs[i].Path = pathutil.RewritePrefix(s.tabs[i].Path, oldPrefix, newPrefix)
	}
	rewriteSet(s.pinned, oldPrefix, newPrefix)
	rewriteSet(s.expanded, oldPrefix, newPrefix)
	rewriteSet(s.created, oldPrefix, newPrefix)
	for id := range s.selected {
		if pathutil.HasPrefix(id, oldPrefix) {
			delete(s.selected, id)
		}
	}
	s.activeID = pathutil.RewritePrefix(s.activeID, oldPrefix, newPrefix)
}

// DropIdentity removes every workspace reference to a deleted note.
func (s *State) DropIdentity(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.tabs[:0]
	for _, t := range s.tabs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	s.tabs = out
	delete(s.pinned, id)
	delete(s.selected, id)
	delete(s.created, id)
	if s.activeID == id {
		s.activeID = ""
	}
}

// DropPrefix removes every workspace reference at or under a deleted folder.
func (s *State) DropPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.tabs[:0]
	for _, t := range s.tabs {
		if !pathutil.HasPrefix(t.ID, prefix) {
			out = append(out, t)
		}
	}
	s.tabs = out
	dropSet(s.pinned, prefix)
	dropSet(s.expanded, prefix)
	dropSet(s.selected, prefix)
	dropSet(s.created, prefix)
	if pathutil.HasPrefix(s.activeID, prefix) {
		s.activeID = ""
	}
}

// transfer moves set membership from oldID to newID; never duplicated, never
// dropped.
func transfer(set map[string]struct{}, oldID, newID string) {
	if _, ok := set[oldID]; ok {
		delete(set, oldID)
		set[newID] = struct{}{}
	}
}

func rewriteSet(set map[string]struct{}, oldPrefix, newPrefix string) {
	var moved []string
	for id := range set {
		if pathutil.HasPrefix(id, oldPrefix) {
			moved = append(moved, id)
		}
	}
	for _, id := range moved {
		delete(set, id)
		set[pathutil.RewritePrefix(id, oldPrefix, newPrefix)] = struct{}{}
	}
}

func dropSet(set map[string]struct{}, prefix string) {
	for id := range set {
		if pathutil.HasPrefix(id, prefix) {
			delete(set, id)
		}
	}
}
