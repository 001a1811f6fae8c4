package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/failbook/internal/apperr"
)

func tempBase(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempBase(t)
	content := []byte("## Chat History for run\n\nbody\n")
	if err := s.Write("combined.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("combined.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempBase(t)
	if err := s.Write("a/b/c.html", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.html")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempBase(t)
	_ = s.Write("page.html", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("page.html", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("page.html")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".failbook-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestListDirs_NewestFirst(t *testing.T) {
	s := tempBase(t)
	now := time.Now()
	for i, name := range []string{"old", "newest", "middle"} {
		p := filepath.Join(s.root, name)
		if err := os.Mkdir(p, 0o755); err != nil {
			t.Fatal(err)
		}
		ages := []time.Duration{3 * time.Hour, 0, time.Hour}
		mt := now.Add(-ages[i])
		if err := os.Chtimes(p, mt, mt); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.root, "file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := s.ListDirs()
	if err != nil {
		t.Fatalf("ListDirs: %v", err)
	}
	var names []string
	for _, d := range dirs {
		names = append(names, d.Name)
	}
	want := []string{"newest", "middle", "old"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}

func TestResolveDir(t *testing.T) {
	s := tempBase(t)
	if err := os.MkdirAll(filepath.Join(s.root, "runs", "2024"), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = s.Write("plain.txt", []byte("x"))

	got, err := s.ResolveDir("runs/2024")
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	if got != filepath.Join(s.root, "runs", "2024") {
		t.Errorf("resolved = %q", got)
	}

	for _, rel := range []string{"missing", "plain.txt", "../outside", "/etc"} {
		if _, err := s.ResolveDir(rel); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("ResolveDir(%q) err = %v, want ErrNotFound", rel, err)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempBase(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/failbook-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "failbook-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestRead_MissingIsNotFound(t *testing.T) {
	s := tempBase(t)
	if _, err := s.Read("absent.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if s.Root() == "" || !filepath.IsAbs(s.Root()) {
		t.Errorf("Root() = %q, want absolute path", s.Root())
	}
}
