// Package testutil provides shared test helpers for building run directories.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/failbook/internal/aggregate"
	"github.com/starford/failbook/internal/storage"
)

// TestBase creates a temporary base directory with a storage.Provider.
func TestBase(t *testing.T) (string, storage.Provider) {
	t.Helper()
	baseDir := t.TempDir()
	store, err := storage.NewFS(baseDir)
	if err != nil {
		t.Fatal(err)
	}
	return baseDir, store
}

// WriteRun creates dir (and parents) holding a results manifest with the
// given outcomes and a transcript file.
func WriteRun(t *testing.T, dir string, outcomes []bool, transcript string) {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"testcase":       filepath.Base(dir),
		"tests_outcomes": outcomes,
	})
	if err != nil {
		t.Fatal(err)
	}
	WriteRaw(t, dir, string(data), transcript)
}

// WriteRaw creates dir holding the given raw manifest and transcript text.
func WriteRaw(t *testing.T, dir, manifest, transcript string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, aggregate.DefaultResultsFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, aggregate.DefaultTranscriptFile), []byte(transcript), 0o644); err != nil {
		t.Fatal(err)
	}
}
