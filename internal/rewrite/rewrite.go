// Package rewrite cleans up an aggregated transcript document before it is
// rendered. The work is a fixed sequence of whole-document text passes.
package rewrite

import (
	"regexp"
	"strings"
)

// Placeholder replaces the injected instructions block.
const Placeholder = "*GO.*"

// Pass is one whole-document transformation.
type Pass struct {
	Name  string
	Apply func(doc string) string
}

// Passes run in this order and must not be reordered:
//
//  1. plain-text-fences untags ```text fences.
//  2. strip-instructions keys on "####" line prefixes, so it runs before
//     demote-h4 removes them.
//  3. diff-blocks needs the fences intact and untouched by later line-level
//     passes.
//  4. demote-h4 strips level-4 heading markers.
//  5. fail-headings turns unittest failure banners into level-3 headings.
//
// Run section header lines ("## ...") are never touched by any pass.
var Passes = []Pass{
	{Name: "plain-text-fences", Apply: normalizePlainTextFences},
	{Name: "strip-instructions", Apply: stripInstructions},
	{Name: "diff-blocks", Apply: renderDiffBlocks},
	{Name: "demote-h4", Apply: demoteH4},
	{Name: "fail-headings", Apply: failHeadings},
}

// Apply runs every pass over doc in order.
func Apply(doc string) string {
	for _, p := range Passes {
		doc = p.Apply(doc)
	}
	return doc
}

var (
	// Fences open and close only at the start of a line, so inline ``` in
	// prose or code spans never pairs with a real fence.
	plainTextFenceRe = regexp.MustCompile("(?ms)^([ \t]*)```text[ \t]*\n(.*?^[ \t]*```[ \t]*$)")
	instructionsRe   = regexp.MustCompile(`(?m)^#### Instructions append.*(?:\n|\z)(?:####.*(?:\n|\z))*`)
	fencedBlockRe    = regexp.MustCompile("(?ms)^[ \t]*```[^\n`]*\n.*?^[ \t]*```[ \t]*$")
	h4Re             = regexp.MustCompile(`(?m)^####(?:[ \t]|$)`)
	failHeadingRe    = regexp.MustCompile(`(?m)^={4,}\nFAIL: (.*)\n-{4,}$`)
)

func normalizePlainTextFences(doc string) string {
	return plainTextFenceRe.ReplaceAllString(doc, "${1}```\n${2}")
}

func stripInstructions(doc string) string {
	return instructionsRe.ReplaceAllStringFunc(doc, func(m string) string {
		if strings.HasSuffix(m, "\n") {
			return Placeholder + "\n"
		}
		return Placeholder
	})
}

func renderDiffBlocks(doc string) string {
	return fencedBlockRe.ReplaceAllStringFunc(doc, RenderDiffBlock)
}

func demoteH4(doc string) string {
	return h4Re.ReplaceAllString(doc, "")
}

func failHeadings(doc string) string {
	return failHeadingRe.ReplaceAllString(doc, "### FAIL: ${1}")
}
