package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/eihwaz/internal/apperr"
	"github.com/starford/eihwaz/internal/models"
	"github.com/starford/eihwaz/internal/parser"
	"github.com/starford/eihwaz/internal/pathutil"
)

const noteExt = ".md"

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)

// FS implements Provider backed by the local file system: notes are .md
// files, folders are directories, identity is the vault-relative path.
type FS struct {
	root string // absolute path to vault directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// safePath resolves a vault-relative path against the root and rejects any
// result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute path %s: %w", rel, apperr.ErrInvalidOperation)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes vault root %s: %w", rel, apperr.ErrInvalidOperation)
	}
	return abs, nil
}

// ListRecords walks the vault and returns a record for every directory and
// .md file. Hidden entries (dot-prefixed) are skipped.
func (f *FS) ListRecords() ([]models.Record, error) {
	var out []models.Record
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == f.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(f.root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			out = append(out, models.Record{
				ID:        rel,
				Path:      pathutil.Parent(rel),
				Title:     d.Name(),
				Type:      models.TypeFolder,
				UpdatedAt: info.ModTime(),
			})
			return nil
		}
		if !strings.HasSuffix(d.Name(), noteExt) {
			return nil
		}
		rec, err := f.noteRecord(strings.TrimSuffix(rel, noteExt))
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", mapErr(err))
	}
	return out, nil
}

// CreateNote creates an empty note titled title under parentPath. The slug
// is the sanitized title; the full title survives in frontmatter.
func (f *FS) CreateNote(title, parentPath string) (models.Record, error) {
	slug := pathutil.SanitizeTitle(title)
	if slug == "" {
		return models.Record{}, fmt.Errorf("storage: empty note title: %w", apperr.ErrInvalidOperation)
	}
	id := pathutil.Join(parentPath, slug)
	abs, err := f.safePath(id + noteExt)
	if err != nil {
		return models.Record{}, err
	}
	if _, err := os.Lstat(abs); err == nil {
		return models.Record{}, fmt.Errorf("%q: %w", slug, apperr.ErrConflict)
	}
	content := fmt.Sprintf("---\ntitle: %q\ncreated: %s\n---\n\n", title, time.Now().Format(time.RFC3339))
	if err := f.writeAtomic(abs, []byte(content)); err != nil {
		return models.Record{}, err
	}
	return f.noteRecord(id)
}

// CreateFolder creates a folder named name under parentPath.
func (f *FS) CreateFolder(name, parentPath string) (models.Record, error) {
	slug := pathutil.SanitizeTitle(name)
	if slug == "" {
		return models.Record{}, fmt.Errorf("storage: empty folder name: %w", apperr.ErrInvalidOperation)
	}
	id := pathutil.Join(parentPath, slug)
	abs, err := f.safePath(id)
	if err != nil {
		return models.Record{}, err
	}
	if _, err := os.Lstat(abs); err == nil {
		return models.Record{}, fmt.Errorf("%q: %w", slug, apperr.ErrConflict)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return models.Record{}, fmt.Errorf("storage: create folder: %w", mapErr(err))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.Record{}, fmt.Errorf("storage: stat folder: %w", mapErr(err))
	}
	return models.Record{
		ID:        id,
		Path:      pathutil.Parent(id),
		Title:     slug,
		Type:      models.TypeFolder,
		UpdatedAt: info.ModTime(),
	}, nil
}

// RenameNote renames oldID to newID.
func (f *FS) RenameNote(oldID, newID string) (models.Record, error) {
	if err := f.rename(oldID+noteExt, newID+noteExt); err != nil {
		return models.Record{}, err
	}
	return f.noteRecord(newID)
}

// RenameFolder renames the folder at oldPath to newPath.
func (f *FS) RenameFolder(oldPath, newPath string) error {
	return f.rename(oldPath, newPath)
}

// MoveNote moves the note oldID to newID.
func (f *FS) MoveNote(oldID, newID string) (models.Record, error) {
	if err := f.rename(oldID+noteExt, newID+noteExt); err != nil {
		return models.Record{}, err
	}
	return f.noteRecord(newID)
}

// MoveFolder moves the folder at fromPath to newPath.
func (f *FS) MoveFolder(fromPath, newPath string) error {
	return f.rename(fromPath, newPath)
}

// DeleteNote removes a note.
func (f *FS) DeleteNote(id string) error {
	abs, err := f.safePath(id + noteExt)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, mapErr(err))
	}
	return nil
}

// DeleteFolder removes a folder and its whole subtree.
func (f *FS) DeleteFolder(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if abs == f.root {
		return fmt.Errorf("storage: refusing to delete vault root: %w", apperr.ErrInvalidOperation)
	}
	if _, err := os.Lstat(abs); err != nil {
		return fmt.Errorf("storage: delete folder %s: %w", path, mapErr(err))
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("storage: delete folder %s: %w", path, mapErr(err))
	}
	return nil
}

// ReadNote returns the raw bytes of a note.
func (f *FS) ReadNote(id string) ([]byte, error) {
	abs, err := f.safePath(id + noteExt)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", id, mapErr(err))
	}
	return data, nil
}

// WriteNote atomically replaces a note's content: tmp file → fsync → rename.
func (f *FS) WriteNote(id string, content []byte) error {
	abs, err := f.safePath(id + noteExt)
	if err != nil {
		return err
	}
	return f.writeAtomic(abs, content)
}

// rename moves oldRel to newRel with an explicit destination-exists check:
// os.Rename would silently replace an existing file, and the engine must
// surface that as a conflict instead.
func (f *FS) rename(oldRel, newRel string) error {
	absOld, err := f.safePath(oldRel)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newRel)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(absOld); err != nil {
		return fmt.Errorf("storage: rename %s: %w", oldRel, mapErr(err))
	}
	if _, err := os.Lstat(absNew); err == nil {
		return fmt.Errorf("%q: %w", filepath.Base(absNew), apperr.ErrConflict)
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for rename: %w", mapErr(err))
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: rename: %w", mapErr(err))
	}
	return nil
}

func (f *FS) writeAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", mapErr(err))
	}

	tmp, err := os.CreateTemp(dir, ".eihwaz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", mapErr(err))
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename temp: %w", mapErr(err))
	}
	success = true
	return nil
}

// noteRecord builds the Record for a note id from disk state.
func (f *FS) noteRecord(id string) (models.Record, error) {
	abs, err := f.safePath(id + noteExt)
	if err != nil {
		return models.Record{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.Record{}, fmt.Errorf("storage: stat %s: %w", id, mapErr(err))
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.Record{}, fmt.Errorf("storage: read %s: %w", id, mapErr(err))
	}
	meta := parser.Parse(data)
	title := meta.Title
	if title == "" {
		title = pathutil.Base(id)
	}
	created := meta.CreatedAt
	if created.IsZero() {
		created = info.ModTime()
	}
	return models.Record{
		ID:        id,
		Path:      pathutil.Parent(id),
		Title:     title,
		Type:      models.TypeNote,
		CreatedAt: created,
		UpdatedAt: info.ModTime(),
	}, nil
}

// mapErr translates OS-level failures into the shared taxonomy.
func mapErr(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", apperr.ErrPermissionDenied, err)
	default:
		return err
	}
}
