// Package aggregate walks a directory tree of test runs and concatenates the
// transcripts of failed runs into a single markdown document.
package aggregate

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/failbook/internal/apperr"
	"github.com/starford/failbook/internal/outcome"
)

// Default artifact names inside a run directory.
const (
	DefaultResultsFile    = ".aider.results.json"
	DefaultTranscriptFile = ".aider.chat.history.md"
)

const (
	// HeaderPrefix starts every run section header line.
	HeaderPrefix = "## Chat History for "
	// SectionDelimiter closes every run section.
	SectionDelimiter = "\n\n---\n\n"
)

// Header returns the section header line for a run path, without newline.
func Header(path string) string {
	return HeaderPrefix + path
}

// Manifest is the subset of the results file the aggregator reads.
type Manifest struct {
	TestsOutcomes []bool `json:"tests_outcomes"`
}

// RunRecord is one run directory with its outcomes and transcript.
type RunRecord struct {
	Path       string
	Outcomes   []bool
	Transcript string
}

// Options configures an Aggregator.
type Options struct {
	ResultsFile    string
	TranscriptFile string
	Logger         *slog.Logger
}

// Aggregator collects failed run transcripts.
type Aggregator struct {
	results    string
	transcript string
	logger     *slog.Logger
}

// New creates an Aggregator, filling unset options with defaults.
func New(opts Options) *Aggregator {
	a := &Aggregator{
		results:    opts.ResultsFile,
		transcript: opts.TranscriptFile,
		logger:     opts.Logger,
	}
	if a.results == "" {
		a.results = DefaultResultsFile
	}
	if a.transcript == "" {
		a.transcript = DefaultTranscriptFile
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Discover returns every directory under root (root included) that directly
// contains both the results file and the transcript file, sorted by path.
func (a *Aggregator) Discover(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if isFile(filepath.Join(p, a.results)) && isFile(filepath.Join(p, a.transcript)) {
			dirs = append(dirs, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: walk %s: %w", root, err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// LoadRun reads the results manifest of dir. The transcript is left empty;
// call LoadTranscript for runs that will be emitted.
func (a *Aggregator) LoadRun(dir string) (RunRecord, error) {
	path := filepath.Join(dir, a.results)
	data, err := os.ReadFile(path)
	if err != nil {
		return RunRecord{}, fmt.Errorf("aggregate: read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return RunRecord{}, fmt.Errorf("aggregate: parse %s: %w: %v", path, apperr.ErrMalformedResults, err)
	}
	return RunRecord{Path: dir, Outcomes: m.TestsOutcomes}, nil
}

// LoadTranscript fills in the transcript of r.
func (a *Aggregator) LoadTranscript(r *RunRecord) error {
	path := filepath.Join(r.Path, a.transcript)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("aggregate: read %s: %w", path, err)
	}
	r.Transcript = string(data)
	return nil
}

// Collect writes one run section to w for every failed run under root and
// returns the tally over all qualifying runs. Any error aborts the walk; the
// caller must discard whatever was written to w.
func (a *Aggregator) Collect(root string, w io.Writer) (outcome.Tally, error) {
	var tally outcome.Tally

	dirs, err := a.Discover(root)
	if err != nil {
		return tally, err
	}

	for _, dir := range dirs {
		run, err := a.LoadRun(dir)
		if err != nil {
			return tally, err
		}
		oc, err := outcome.Classify(run.Outcomes)
		if err != nil {
			return tally, fmt.Errorf("aggregate: classify %s: %w: %w", dir, apperr.ErrMalformedResults, err)
		}
		tally.Add(oc)
		if !oc.Included() {
			continue
		}

		if err := a.LoadTranscript(&run); err != nil {
			return tally, err
		}
		if err := WriteSection(w, run); err != nil {
			return tally, fmt.Errorf("aggregate: write section %s: %w", dir, err)
		}
		a.logger.Info("added chat history", slog.String("path", filepath.Join(dir, a.transcript)))
	}

	p := tally.Percentages()
	a.logger.Info("collection finished",
		slog.String("root", root),
		slog.Int("total", tally.Total),
		slog.String("first_try", fmt.Sprintf("%.2f%%", p.FirstTry)),
		slog.String("second_try", fmt.Sprintf("%.2f%%", p.SecondTry)),
		slog.String("failures", fmt.Sprintf("%.2f%%", p.Failures)))

	return tally, nil
}

// WriteSection writes the header, transcript and delimiter of one run.
func WriteSection(w io.Writer, r RunRecord) error {
	if _, err := io.WriteString(w, Header(r.Path)+"\n\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, r.Transcript); err != nil {
		return err
	}
	_, err := io.WriteString(w, SectionDelimiter)
	return err
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
