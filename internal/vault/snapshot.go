package vault

import (
	"sort"

	"github.com/starford/eihwaz/internal/models"
)

// Snapshot is the persisted slice of workspace state. Tabs keep their
// display order; set-valued fields are sorted so the same workspace always
// serializes to the same bytes.
type Snapshot struct {
	ExpandedFolders []string     `json:"expandedFolders"`
	PinnedTabs      []string     `json:"pinnedTabs"`
	OpenTabs        []models.Tab `json:"openTabs"`
	ActiveID        string       `json:"activeId"`
}

// Snapshot captures the persistable workspace state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn := Snapshot{
		ExpandedFolders: sortedKeys(s.expanded),
		PinnedTabs:      sortedKeys(s.pinned),
		OpenTabs:        make([]models.Tab, len(s.tabs)),
		ActiveID:        s.activeID,
	}
	for i, t := range s.tabs {
		// Missing is session-local, not persisted.
		sn.OpenTabs[i] = models.Tab{ID: t.ID, Path: t.Path}
	}
	return sn
}

// Restore replaces workspace state from a persisted snapshot. Ids that no
// longer exist are left in place; the next Reconcile prunes them against the
// fresh record list.
func (s *State) Restore(sn Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = toSet(sn.ExpandedFolders)
	s.pinned = toSet(sn.PinnedTabs)
	s.tabs = make([]models.Tab, 0, len(sn.OpenTabs))
	seen := make(map[string]struct{}, len(sn.OpenTabs))
	for _, t := range sn.OpenTabs {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		s.tabs = append(s.tabs, models.Tab{ID: t.ID, Path: t.Path})
	}
	s.activeID = sn.ActiveID
	s.selected = make(map[string]struct{})
	s.created = make(map[string]struct{})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
