package storage

import (
	"errors"
	"testing"

	"github.com/starford/eihwaz/internal/apperr"
	"github.com/starford/eihwaz/internal/models"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func findRecord(records []models.Record, id string) (models.Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return models.Record{}, false
}

func TestCreateNoteAndList(t *testing.T) {
	s := tempVault(t)
	rec, err := s.CreateNote("Hello World", "")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if rec.ID != "Hello World" || rec.Path != "" || rec.Type != models.TypeNote {
		t.Errorf("record = %+v", rec)
	}
	if rec.Title != "Hello World" {
		t.Errorf("Title = %q", rec.Title)
	}

	records, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if _, ok := findRecord(records, "Hello World"); !ok {
		t.Errorf("created note missing from listing: %v", records)
	}
}

func TestCreateNoteSanitizesSlugKeepsTitle(t *testing.T) {
	s := tempVault(t)
	rec, err := s.CreateNote("a/b: draft?", "")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if rec.ID != "ab draft" {
		t.Errorf("ID = %q, want sanitized slug", rec.ID)
	}
	if rec.Title != "a/b: draft?" {
		t.Errorf("Title = %q, want original preserved via frontmatter", rec.Title)
	}
}

func TestCreateNoteConflict(t *testing.T) {
	s := tempVault(t)
	if _, err := s.CreateNote("dup", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateNote("dup", "")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestCreateFolderNested(t *testing.T) {
	s := tempVault(t)
	if _, err := s.CreateFolder("a", ""); err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	rec, err := s.CreateFolder("b", "a")
	if err != nil {
		t.Fatalf("CreateFolder nested: %v", err)
	}
	if rec.ID != "a/b" || rec.Path != "a" || rec.Type != models.TypeFolder {
		t.Errorf("record = %+v", rec)
	}
}

func TestListNestedRecords(t *testing.T) {
	s := tempVault(t)
	_, _ = s.CreateFolder("a", "")
	_, _ = s.CreateFolder("b", "a")
	if _, err := s.CreateNote("note1", "a/b"); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	records, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	rec, ok := findRecord(records, "a/b/note1")
	if !ok {
		t.Fatalf("nested note missing: %v", records)
	}
	if rec.Path != "a/b" {
		t.Errorf("Path = %q, want a/b", rec.Path)
	}
}

func TestRenameNote(t *testing.T) {
	s := tempVault(t)
	_, _ = s.CreateNote("old", "")
	rec, err := s.RenameNote("old", "new")
	if err != nil {
		t.Fatalf("RenameNote: %v", err)
	}
	if rec.ID != "new" {
		t.Errorf("ID = %q", rec.ID)
	}
	if _, err := s.ReadNote("old"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old id should be gone, err = %v", err)
	}
}

func TestRenameNoteConflict(t *testing.T) {
	s := tempVault(t)
	_, _ = s.CreateNote("one", "")
	_, _ = s.CreateNote("two", "")
	_, err := s.RenameNote("one", "two")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	// Source must be untouched after a failed rename.
	if _, err := s.ReadNote("one"); err != nil {
		t.Errorf("source disappeared after failed rename: %v", err)
	}
}

func TestRenameMissingNote(t *testing.T) {
	s := tempVault(t)
	_, err := s.RenameNote("ghost", "whatever")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRenameFolderCarriesSubtree(t *testing.T) {
	s := tempVault(t)
	_, _ = s.CreateFolder("a", "")
	_, _ = s.CreateNote("inner", "a")
	if err := s.RenameFolder("a", "z"); err != nil {
		t.Fatalf("RenameFolder: %v", err)
	}
	if _, err := s.ReadNote("z/inner"); err != nil {
		t.Errorf("descendant not carried: %v", err)
	}
}

func TestMoveNoteIntoFolder(t *testing.T) {
	s := tempVault(t)
	_, _ = s.CreateFolder("target", "")
	_, _ = s.CreateNote("n", "")
	rec, err := s.MoveNote("n", "target/n")
	if err != nil {
		t.Fatalf("MoveNote: %v", err)
	}
	if rec.ID != "target/n" || rec.Path != "target" {
		t.Errorf("record = %+v", rec)
	}
}

func TestDeleteFolderRemovesSubtree(t *testing.T) {
	s := tempVault(t)
	_, _ = s.CreateFolder("a", "")
	_, _ = s.CreateNote("inner", "a")
	if err := s.DeleteFolder("a"); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	if _, err := s.ReadNote("a/inner"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("subtree survived delete: %v", err)
	}
}

func TestDeleteMissingFolder(t *testing.T) {
	s := tempVault(t)
	if err := s.DeleteFolder("ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	s := tempVault(t)
	if _, err := s.ReadNote("../outside"); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("err = %v, want ErrInvalidOperation", err)
	}
}

func TestHiddenEntriesSkipped(t *testing.T) {
	s := tempVault(t)
	_, _ = s.CreateNote("visible", "")
	if err := s.WriteNote(".hidden", []byte("x")); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	records, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if _, ok := findRecord(records, ".hidden"); ok {
		t.Error("hidden file listed")
	}
}

func TestFrontmatterTitleWins(t *testing.T) {
	s := tempVault(t)
	if err := s.WriteNote("slug-name", []byte("---\ntitle: Pretty Title\n---\nbody")); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	records, _ := s.ListRecords()
	rec, ok := findRecord(records, "slug-name")
	if !ok {
		t.Fatal("note missing")
	}
	if rec.Title != "Pretty Title" {
		t.Errorf("Title = %q, want frontmatter title", rec.Title)
	}
}
