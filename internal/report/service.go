// Package report runs the collect → rewrite → render pipeline for one run
// directory under the base root and stores the generated artifacts.
package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/starford/failbook/internal/aggregate"
	"github.com/starford/failbook/internal/outcome"
	"github.com/starford/failbook/internal/render"
	"github.com/starford/failbook/internal/rewrite"
	"github.com/starford/failbook/internal/storage"
)

// Outputs names the artifacts written into each processed directory.
type Outputs struct {
	Combined string
	Cleaned  string
	HTML     string
}

// DefaultOutputs returns the standard artifact names.
func DefaultOutputs() Outputs {
	return Outputs{
		Combined: "combined_chat_history.md",
		Cleaned:  "cleaned_chat_history.md",
		HTML:     "combined_chat_history.html",
	}
}

// Report is the result of processing one directory.
type Report struct {
	Dir      string        `json:"dir"`
	Tally    outcome.Tally `json:"tally"`
	Sections int           `json:"sections"`
	Combined string        `json:"combined"`
	Cleaned  string        `json:"cleaned"`
	HTMLPath string        `json:"html"`
	Markdown []byte        `json:"-"`
	Page     []byte        `json:"-"`
}

// Result is the in-memory output of Build.
type Result struct {
	Tally     outcome.Tally
	Aggregate []byte
	Cleaned   []byte
	Page      []byte
}

// Build runs the pipeline over root without touching the filesystem beyond
// reading run artifacts.
func Build(agg *aggregate.Aggregator, r *render.Renderer, root string) (*Result, error) {
	var buf bytes.Buffer
	tally, err := agg.Collect(root, &buf)
	if err != nil {
		return nil, err
	}
	cleaned := []byte(rewrite.Apply(buf.String()))
	page, err := r.Render(cleaned)
	if err != nil {
		return nil, err
	}
	return &Result{
		Tally:     tally,
		Aggregate: buf.Bytes(),
		Cleaned:   cleaned,
		Page:      page,
	}, nil
}

// Service coordinates storage and the pipeline stages.
type Service struct {
	store    storage.Provider
	agg      *aggregate.Aggregator
	renderer *render.Renderer
	outputs  Outputs
	logger   *slog.Logger
}

// NewService creates a new report service.
func NewService(store storage.Provider, agg *aggregate.Aggregator, renderer *render.Renderer, outputs Outputs, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, agg: agg, renderer: renderer, outputs: outputs, logger: logger}
}

// ListCandidates returns the directories available for processing.
func (s *Service) ListCandidates(_ context.Context) ([]storage.DirInfo, error) {
	return s.store.ListDirs()
}

// Process runs the pipeline for dir (relative to the base root) and writes
// the aggregate, cleaned and HTML artifacts into it. Nothing is written
// unless every stage succeeds.
func (s *Service) Process(_ context.Context, dir string) (*Report, error) {
	abs, err := s.store.ResolveDir(dir)
	if err != nil {
		return nil, err
	}

	res, err := Build(s.agg, s.renderer, abs)
	if err != nil {
		return nil, fmt.Errorf("report: process %s: %w", dir, err)
	}

	rep := &Report{
		Dir:      dir,
		Tally:    res.Tally,
		Sections: res.Tally.Failures,
		Combined: filepath.Join(dir, s.outputs.Combined),
		Cleaned:  filepath.Join(dir, s.outputs.Cleaned),
		HTMLPath: filepath.Join(dir, s.outputs.HTML),
		Markdown: res.Cleaned,
		Page:     res.Page,
	}

	for _, f := range []struct {
		path string
		data []byte
	}{
		{rep.Combined, res.Aggregate},
		{rep.Cleaned, res.Cleaned},
		{rep.HTMLPath, res.Page},
	} {
		if err := s.store.Write(f.path, f.data); err != nil {
			return nil, fmt.Errorf("report: write %s: %w", f.path, err)
		}
	}

	s.logger.Info("report written",
		slog.String("root", s.store.Root()),
		slog.String("dir", dir),
		slog.Int("sections", rep.Sections),
		slog.String("html", rep.HTMLPath))
	return rep, nil
}

// Page returns the HTML artifact written by the last Process of dir
// without re-running the pipeline. A directory that was never processed
// yields apperr.ErrNotFound.
func (s *Service) Page(_ context.Context, dir string) ([]byte, error) {
	if _, err := s.store.ResolveDir(dir); err != nil {
		return nil, err
	}
	return s.store.Read(filepath.Join(dir, s.outputs.HTML))
}
