package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lherron/clashsync/internal/journal"
)

// TempJournal creates a migrated run journal in a temp directory.
func TempJournal(t *testing.T) (*journal.Journal, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Failed to create test journal: %v", err)
	}
	if _, err := j.Migrate(); err != nil {
		j.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		j.Close()
	})

	return j, path
}

// WriteFile writes content to a file in dir
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// WriteSheet writes one CSV line per row to a temp file and returns its path.
func WriteSheet(t *testing.T, rows ...string) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), "clashes.csv", strings.Join(rows, "\n")+"\n")
}
