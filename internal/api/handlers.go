// Package api implements the failbook HTTP surface using chi.
package api

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/failbook/internal/apperr"
	"github.com/starford/failbook/internal/checksum"
	"github.com/starford/failbook/internal/report"
)

// Handler holds route handlers.
type Handler struct {
	svc *report.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

// runDir extracts the directory from the URL wildcard.
// Supports encoded slashes (e.g. batch%2Fsub).
func runDir(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Index handles GET /: a page linking every candidate directory.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	dirs, err := h.svc.ListCandidates(r.Context())
	if err != nil {
		slog.Error("list candidates failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var b strings.Builder
	b.WriteString("<h1>Select a directory to process:</h1>\n")
	for _, d := range dirs {
		fmt.Fprintf(&b, `<a href="/process/%s">%s</a><br>`, url.PathEscape(d.Name), html.EscapeString(d.Name))
	}
	writeHTML(w, http.StatusOK, []byte(b.String()))
}

// Process handles GET /process/*: runs the pipeline and serves the page.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	dir := runDir(r)
	if dir == "" {
		http.Error(w, "Directory not found", http.StatusNotFound)
		return
	}
	rep, err := h.svc.Process(r.Context(), dir)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "Directory not found", http.StatusNotFound)
		} else {
			slog.Error("process failed", slog.String("dir", dir), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("ETag", checksum.ETag(rep.Page))
	writeHTML(w, http.StatusOK, rep.Page)
}

// View handles GET /view/*: serves the page stored by the last run.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	dir := runDir(r)
	if dir == "" {
		http.Error(w, "Report not found", http.StatusNotFound)
		return
	}
	page, err := h.svc.Page(r.Context(), dir)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
		} else {
			slog.Error("view failed", slog.String("dir", dir), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	etag := checksum.ETag(page)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeHTML(w, http.StatusOK, page)
}

// ListRuns handles GET /api/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	dirs, err := h.svc.ListCandidates(r.Context())
	if err != nil {
		slog.Error("list candidates failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]RunDirItem, len(dirs))
	for i, d := range dirs {
		items[i] = RunDirItem{Name: d.Name, ModTime: d.ModTime, URL: "/process/" + url.PathEscape(d.Name)}
	}
	writeJSON(w, http.StatusOK, RunDirListResponse{Dirs: items})
}

// Stats handles GET /api/stats/*: runs the pipeline and reports the tally.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	dir := runDir(r)
	if dir == "" {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	rep, err := h.svc.Process(r.Context(), dir)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("stats failed", slog.String("dir", dir), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(rep))
}
