// Package render converts a cleaned transcript document from CommonMark to a
// self-contained HTML page with a table of contents.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/starford/failbook/internal/aggregate"
)

// headingTitlePrefix is the run section header text without the "## " marker.
var headingTitlePrefix = strings.TrimPrefix(aggregate.HeaderPrefix, "## ")

const stylesheet = `
  <style>
    body { max-width: 800px; margin: 40px auto; padding: 0 20px;
           font-family: -apple-system, system-ui, sans-serif; }
    pre { background: #f6f8fa; padding: 16px; border-radius: 6px; overflow-x: auto; }
    code { font-family: 'SF Mono', Consolas, monospace; }
    .diff-block { background: #f8f9fa; padding: 10px; border-radius: 6px; margin: 10px 0; }
    .diff-add { color: #28a745; }
    .diff-remove { color: #cb2431; }
    .diff-context { color: #666; }
    h2 { border-bottom: 1px solid #eaecef; padding-bottom: .3em; }
  </style>
  `

// Entry is one table of contents line.
type Entry struct {
	Path   string
	Anchor string
}

// ExtractTOC scans markdown for run section headers. The anchor is the last
// path segment; repeated segments get a numeric suffix so every anchor is
// unique within the page.
func ExtractTOC(markdown string) []Entry {
	var entries []Entry
	used := make(map[string]struct{})
	for _, line := range strings.Split(markdown, "\n") {
		if !strings.HasPrefix(line, aggregate.HeaderPrefix) {
			continue
		}
		p := strings.TrimSpace(strings.TrimPrefix(line, aggregate.HeaderPrefix))
		anchor := uniqueAnchor(lastSegment(p), used)
		entries = append(entries, Entry{Path: p, Anchor: anchor})
	}
	return entries
}

func lastSegment(p string) string {
	seg := p
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		seg = p[i+1:]
	}
	if seg == "" {
		return "run"
	}
	return seg
}

func uniqueAnchor(base string, used map[string]struct{}) string {
	anchor := base
	for n := 2; ; n++ {
		if _, taken := used[anchor]; !taken {
			break
		}
		anchor = fmt.Sprintf("%s-%d", base, n)
	}
	used[anchor] = struct{}{}
	return anchor
}

// Renderer turns markdown into the final page.
type Renderer struct {
	md    goldmark.Markdown
	title string
}

// New creates a Renderer. Raw HTML in the input is passed through, which
// the diff containers produced by the rewrite step rely on.
func New(title string) *Renderer {
	if title == "" {
		title = "Failed runs"
	}
	return &Renderer{
		md:    goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe())),
		title: title,
	}
}

// Render converts src to a complete HTML document.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	toc := ExtractTOC(string(src))
	pending := make(map[string][]string, len(toc))
	for _, e := range toc {
		pending[e.Path] = append(pending[e.Path], e.Anchor)
	}

	doc := r.md.Parser().Parse(text.NewReader(src))
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 2 {
			return ast.WalkContinue, nil
		}
		p, ok := strings.CutPrefix(headingText(h, src), headingTitlePrefix)
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		p = strings.TrimSpace(p)
		anchors := pending[p]
		if len(anchors) == 0 {
			return ast.WalkSkipChildren, nil
		}
		h.SetAttributeString("id", []byte(anchors[0]))
		pending[p] = anchors[1:]
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("render: walk: %w", err)
	}

	var body bytes.Buffer
	if err := r.md.Renderer().Render(&body, src, doc); err != nil {
		return nil, fmt.Errorf("render: markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
	out.WriteString(html.EscapeString(r.title))
	out.WriteString("</title>")
	out.WriteString(stylesheet)
	out.WriteString("</head><body>")
	writeTOC(&out, toc)
	out.Write(body.Bytes())
	out.WriteString("</body></html>")
	return out.Bytes(), nil
}

func writeTOC(w *bytes.Buffer, toc []Entry) {
	w.WriteString("<h2>Table of Contents</h2>\n")
	links := make([]string, len(toc))
	for i, e := range toc {
		a := html.EscapeString(e.Anchor)
		links[i] = fmt.Sprintf(`<a href="#%s">%s</a><br>`, a, a)
	}
	w.WriteString(strings.Join(links, "\n"))
	w.WriteString("<hr>\n")
}

// headingText returns the raw source text of a heading.
func headingText(h *ast.Heading, src []byte) string {
	var b strings.Builder
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimSpace(b.String())
}
