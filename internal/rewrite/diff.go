package rewrite

import (
	"html"
	"regexp"
	"strings"
)

// Edit block markers.
const (
	SearchMarker  = "<<<<<<< SEARCH"
	ReplaceMarker = ">>>>>>> REPLACE"
)

var separatorRe = regexp.MustCompile(`^={7,}$`)

// DiffBlock is the before/after split of a SEARCH/REPLACE fenced block.
type DiffBlock struct {
	Before       []string
	After        []string
	HasSeparator bool
}

// ParseDiff splits a fenced block (fences included) into its before and
// after regions. It reports false when the block does not carry both edit
// markers. Marker lines are dropped; the first separator line splits the
// regions and any later one is kept as content.
func ParseDiff(block string) (DiffBlock, bool) {
	if !strings.Contains(block, SearchMarker) || !strings.Contains(block, ReplaceMarker) {
		return DiffBlock{}, false
	}

	body := fenceBody(block)
	var d DiffBlock
	for _, line := range strings.Split(body, "\n") {
		if !d.HasSeparator && separatorRe.MatchString(strings.TrimRight(line, " \t\r")) {
			d.HasSeparator = true
			continue
		}
		if strings.Contains(line, SearchMarker) || strings.Contains(line, ReplaceMarker) {
			continue
		}
		if d.HasSeparator {
			d.After = append(d.After, line)
		} else {
			d.Before = append(d.Before, line)
		}
	}
	return d, true
}

// RenderDiffBlock rewrites a SEARCH/REPLACE fenced block into removal and
// addition containers. Blocks without both markers are returned unchanged.
func RenderDiffBlock(block string) string {
	d, ok := ParseDiff(block)
	if !ok {
		return block
	}

	var b strings.Builder
	b.WriteString(`<pre><div class="diff-block"><div class="diff-remove">`)
	writeLines(&b, d.Before)
	b.WriteString(`</div><div class="diff-add">`)
	writeLines(&b, d.After)
	b.WriteString(`</div></div></pre>`)
	return b.String()
}

func writeLines(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString(html.EscapeString(l))
		b.WriteByte('\n')
	}
}

// fenceBody strips the opening fence line and the closing fence.
// Fence lines may be indented.
func fenceBody(block string) string {
	body := strings.TrimLeft(block, " \t")
	if i := strings.IndexByte(body, '\n'); i >= 0 && strings.HasPrefix(body, "```") {
		body = body[i+1:]
	}
	body = strings.TrimSuffix(strings.TrimRight(body, " \t"), "```")
	return strings.TrimSuffix(strings.TrimRight(body, " \t"), "\n")
}
