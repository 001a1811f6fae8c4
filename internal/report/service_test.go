package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/failbook/internal/aggregate"
	"github.com/starford/failbook/internal/apperr"
	"github.com/starford/failbook/internal/render"
	"github.com/starford/failbook/internal/storage"
	"github.com/starford/failbook/internal/testutil"
)

func testService(t *testing.T) (*Service, string) {
	t.Helper()
	baseDir, store := testutil.TestBase(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := aggregate.New(aggregate.Options{Logger: logger})
	return NewService(store, agg, render.New(""), DefaultOutputs(), logger), baseDir
}

const failingTranscript = "#### fix the bug\n\n" +
	"```python\n<<<<<<< SEARCH\nreturn a - b\n=======\nreturn a + b\n>>>>>>> REPLACE\n```\n"

func TestProcess_WritesAllArtifacts(t *testing.T) {
	svc, base := testService(t)
	batch := filepath.Join(base, "2024-run")
	testutil.WriteRun(t, filepath.Join(batch, "exercises", "add"), []bool{false, false}, failingTranscript)
	testutil.WriteRun(t, filepath.Join(batch, "exercises", "ok"), []bool{true}, "passed")

	rep, err := svc.Process(context.Background(), "2024-run")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if rep.Tally.Total != 2 || rep.Tally.Failures != 1 || rep.Sections != 1 {
		t.Errorf("report = %+v", rep)
	}

	combined, err := os.ReadFile(filepath.Join(batch, "combined_chat_history.md"))
	if err != nil {
		t.Fatalf("read combined: %v", err)
	}
	header := "## Chat History for " + filepath.Join(batch, "exercises", "add") + "\n\n"
	if !strings.HasPrefix(string(combined), header+failingTranscript) {
		t.Errorf("combined document = %q", combined)
	}

	cleaned, err := os.ReadFile(filepath.Join(batch, "cleaned_chat_history.md"))
	if err != nil {
		t.Fatalf("read cleaned: %v", err)
	}
	if strings.Contains(string(cleaned), "<<<<<<< SEARCH") || !strings.Contains(string(cleaned), "diff-remove") {
		t.Errorf("cleaned document not rewritten: %q", cleaned)
	}
	if string(cleaned) != string(rep.Markdown) {
		t.Error("returned markdown differs from written file")
	}

	page, err := os.ReadFile(filepath.Join(batch, "combined_chat_history.html"))
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if string(page) != string(rep.Page) {
		t.Error("returned page differs from written file")
	}
	if !strings.Contains(string(page), `<a href="#add">add</a>`) || !strings.Contains(string(page), `<h2 id="add">`) {
		t.Errorf("anchor missing from page")
	}
}

func TestProcess_Idempotent(t *testing.T) {
	svc, base := testService(t)
	testutil.WriteRun(t, filepath.Join(base, "batch", "a"), []bool{false, false}, "a log")
	testutil.WriteRun(t, filepath.Join(base, "batch", "b"), []bool{false, false}, "b log")

	first, err := svc.Process(context.Background(), "batch")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	second, err := svc.Process(context.Background(), "batch")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if string(first.Page) != string(second.Page) {
		t.Error("reprocessing an unchanged tree changed the page")
	}
}

func TestProcess_NotFound(t *testing.T) {
	svc, _ := testService(t)
	for _, dir := range []string{"missing", "../escape"} {
		if _, err := svc.Process(context.Background(), dir); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Process(%q) err = %v, want ErrNotFound", dir, err)
		}
	}
}

func TestProcess_MalformedWritesNothing(t *testing.T) {
	svc, base := testService(t)
	batch := filepath.Join(base, "batch")
	testutil.WriteRun(t, filepath.Join(batch, "a"), []bool{false, false}, "a log")
	testutil.WriteRaw(t, filepath.Join(batch, "b"), `{"tests_outcomes":[]}`, "b log")

	_, err := svc.Process(context.Background(), "batch")
	if !errors.Is(err, apperr.ErrMalformedResults) {
		t.Fatalf("err = %v, want ErrMalformedResults", err)
	}
	for _, name := range []string{"combined_chat_history.md", "cleaned_chat_history.md", "combined_chat_history.html"} {
		if _, err := os.Stat(filepath.Join(batch, name)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s should not exist after a failed run (stat err = %v)", name, err)
		}
	}
}

func TestListCandidates(t *testing.T) {
	svc, base := testService(t)
	_ = os.Mkdir(filepath.Join(base, "one"), 0o755)
	_ = os.Mkdir(filepath.Join(base, "two"), 0o755)

	dirs, err := svc.ListCandidates(context.Background())
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(dirs) != 2 {
		t.Errorf("dirs = %v", dirs)
	}
}

func TestBuild_NoFilesystemWrites(t *testing.T) {
	root := t.TempDir()
	testutil.WriteRun(t, filepath.Join(root, "x"), []bool{false, false}, "x log")
	agg := aggregate.New(aggregate.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	res, err := Build(agg, render.New(""), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Tally.Failures != 1 || len(res.Page) == 0 {
		t.Errorf("result = %+v", res.Tally)
	}
	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Read("combined_chat_history.md"); err == nil {
		t.Error("Build must not write artifacts")
	}
}

func TestPage_ReturnsStoredArtifact(t *testing.T) {
	svc, base := testService(t)
	testutil.WriteRun(t, filepath.Join(base, "batch", "a"), []bool{false, false}, "a log")

	if _, err := svc.Page(context.Background(), "batch"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Page before Process err = %v, want ErrNotFound", err)
	}

	rep, err := svc.Process(context.Background(), "batch")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	page, err := svc.Page(context.Background(), "batch")
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if string(page) != string(rep.Page) {
		t.Error("stored page differs from processed page")
	}
}

func TestPage_MissingDir(t *testing.T) {
	svc, _ := testService(t)
	for _, dir := range []string{"missing", "../escape"} {
		if _, err := svc.Page(context.Background(), dir); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Page(%q) err = %v, want ErrNotFound", dir, err)
		}
	}
}
