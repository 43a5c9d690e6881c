// Package testutil provides shared test helpers for setting up vaults and
// workspace databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/eihwaz/internal/settings"
	"github.com/starford/eihwaz/internal/storage"
)

// TestSettings creates a temporary workspace database that is automatically
// cleaned up.
func TestSettings(t *testing.T) *settings.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "eihwaz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := settings.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}
