package vault

import (
	"reflect"
	"strings"
	"testing"

	"github.com/starford/eihwaz/internal/models"
)

func newTestState() *State {
	s := NewState()
	s.SetRecords([]models.Record{
		{ID: "a", Path: "", Title: "a", Type: models.TypeFolder},
		{ID: "a/b", Path: "a", Title: "b", Type: models.TypeFolder},
		{ID: "a/b/note1", Path: "a/b", Title: "note1", Type: models.TypeNote},
		{ID: "loose", Path: "", Title: "loose", Type: models.TypeNote},
	})
	return s
}

func TestOpenTabUniqueByID(t *testing.T) {
	s := newTestState()
	s.OpenTab("loose", "")
	s.OpenTab("a/b/note1", "a/b")
	s.OpenTab("loose", "")
	tabs := s.OpenTabs()
	if len(tabs) != 2 {
		t.Fatalf("len(tabs) = %d, want 2", len(tabs))
	}
	if tabs[0].ID != "loose" || tabs[1].ID != "a/b/note1" {
		t.Errorf("tab order = %v", tabs)
	}
	if s.ActiveID() != "loose" {
		t.Errorf("re-opening a tab should activate it, active = %q", s.ActiveID())
	}
}

func TestCloseTabClearsMarkers(t *testing.T) {
	s := newTestState()
	s.OpenTab("loose", "")
	s.Pin("loose")
	s.MarkCreated("loose")
	wasCreated := s.CloseTab("loose")
	if !wasCreated {
		t.Error("CloseTab should report the newly-created marker")
	}
	if len(s.OpenTabs()) != 0 || s.IsPinned("loose") || s.IsNewlyCreated("loose") {
		t.Error("tab markers survived close")
	}
	if s.ActiveID() != "" {
		t.Errorf("active = %q, want empty", s.ActiveID())
	}
}

func TestCloseTabActivatesLastRemaining(t *testing.T) {
	s := newTestState()
	s.OpenTab("loose", "")
	s.OpenTab("a/b/note1", "a/b")
	s.CloseTab("a/b/note1")
	if s.ActiveID() != "loose" {
		t.Errorf("active = %q, want loose", s.ActiveID())
	}
}

func TestRewriteIdentity(t *testing.T) {
	s := newTestState()
	s.OpenTab("a/b/note1", "a/b")
	s.Pin("a/b/note1")
	s.SetSelection([]string{"a/b/note1", "loose"})
	s.MarkCreated("a/b/note1")

	s.RewriteIdentity("a/b/note1", "a/b/renamed")

	tabs := s.OpenTabs()
	if tabs[0].ID != "a/b/renamed" || tabs[0].Path != "a/b" {
		t.Errorf("tab = %+v", tabs[0])
	}
	if s.IsPinned("a/b/note1") || !s.IsPinned("a/b/renamed") {
		t.Error("pinned membership not transferred")
	}
	if !s.IsNewlyCreated("a/b/renamed") {
		t.Error("created marker not transferred")
	}
	if s.ActiveID() != "a/b/renamed" {
		t.Errorf("active = %q", s.ActiveID())
	}
	if s.IsSelected("a/b/note1") || s.IsSelected("a/b/renamed") {
		t.Error("selection of the affected item should be cleared")
	}
	if !s.IsSelected("loose") {
		t.Error("unaffected selection should survive")
	}
}

func TestRewritePrefixCascade(t *testing.T) {
	s := newTestState()
	s.OpenTab("a/b/note1", "a/b")
	s.Pin("a/b/note1")
	s.SetExpanded("a", true)
	s.SetExpanded("a/b", true)
	s.SetActive("a/b/note1")

	// renameFolder("a", "z")
	s.RewritePrefix("a", "z")

	tabs := s.OpenTabs()
	if tabs[0].ID != "z/b/note1" || tabs[0].Path != "z/b" {
		t.Errorf("tab = %+v, want z/b/note1 in z/b", tabs[0])
	}
	if !s.IsPinned("z/b/note1") || s.IsPinned("a/b/note1") {
		t.Error("pinned set not rewritten")
	}
	if !s.IsExpanded("z") || !s.IsExpanded("z/b") {
		t.Error("expanded set not rewritten for folder and descendant")
	}
	if s.IsExpanded("a") || s.IsExpanded("a/b") {
		t.Error("old expanded ids remain")
	}
	if s.ActiveID() != "z/b/note1" {
		t.Errorf("active = %q", s.ActiveID())
	}
}

func TestRewritePrefixLeavesSiblingsAlone(t *testing.T) {
	s := NewState()
	s.OpenTab("docs-old/keep", "docs-old")
	s.SetExpanded("docs-old", true)
	s.RewritePrefix("docs", "manual")
	tabs := s.OpenTabs()
	if tabs[0].ID != "docs-old/keep" {
		t.Errorf("sibling with shared name prefix was corrupted: %+v", tabs[0])
	}
	if !s.IsExpanded("docs-old") {
		t.Error("sibling expanded entry was rewritten")
	}
}

func TestRewritePrefixNoResidualReferences(t *testing.T) {
	s := newTestState()
	s.OpenTab("a/b/note1", "a/b")
	s.Pin("a/b/note1")
	s.SetExpanded("a", true)
	s.SetExpanded("a/b", true)
	s.MarkCreated("a/b/note1")
	s.SetActive("a/b/note1")

	s.RewritePrefix("a", "z")

	hasOld := func(v string) bool {
		return v == "a" || strings.HasPrefix(v, "a/")
	}
	for _, tab := range s.OpenTabs() {
		if hasOld(tab.ID) || hasOld(tab.Path) {
			t.Errorf("residual old prefix in tab %+v", tab)
		}
	}
	sn := s.Snapshot()
	for _, id := range append(sn.ExpandedFolders, sn.PinnedTabs...) {
		if hasOld(id) {
			t.Errorf("residual old prefix in %q", id)
		}
	}
	if hasOld(sn.ActiveID) {
		t.Errorf("residual old prefix in active id %q", sn.ActiveID)
	}
}

func TestDropPrefix(t *testing.T) {
	s := newTestState()
	s.OpenTab("a/b/note1", "a/b")
	s.OpenTab("loose", "")
	s.Pin("a/b/note1")
	s.SetExpanded("a/b", true)
	s.SetActive("a/b/note1")

	s.DropPrefix("a")

	tabs := s.OpenTabs()
	if len(tabs) != 1 || tabs[0].ID != "loose" {
		t.Errorf("tabs = %v", tabs)
	}
	if s.IsPinned("a/b/note1") || s.IsExpanded("a/b") {
		t.Error("references under deleted folder remain")
	}
	if s.ActiveID() != "" {
		t.Errorf("active = %q", s.ActiveID())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestState()
	s.OpenTab("loose", "")
	s.OpenTab("a/b/note1", "a/b")
	s.Pin("loose")
	s.SetExpanded("a", true)
	s.SetActive("a/b/note1")

	sn := s.Snapshot()

	restored := NewState()
	restored.Restore(sn)
	if !reflect.DeepEqual(restored.Snapshot(), sn) {
		t.Errorf("snapshot round trip mismatch:\n got %+v\nwant %+v", restored.Snapshot(), sn)
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	s := newTestState()
	s.SetExpanded("a", true)
	s.SetExpanded("a/b", true)
	s.Pin("loose")
	first := s.Snapshot()
	second := s.Snapshot()
	if !reflect.DeepEqual(first, second) {
		t.Error("snapshots of unchanged state differ")
	}
}
