package mcpserver

// SectionFormat describes the layout of the aggregate document produced by
// collect_failures, so clients can split it back into runs.
const SectionFormat = `# failbook Aggregate Document Format

The aggregate document is a sequence of run sections, one per failed run,
ordered by run directory path (byte-wise ascending).

## Run section

` + "```" + `markdown
## Chat History for <run directory path>

<verbatim transcript>

---

` + "```" + `

## Rules

1. **A run fails** when both its first and second test attempts failed
   (` + "`" + `tests_outcomes[0]` + "`" + ` and ` + "`" + `tests_outcomes[1]` + "`" + ` are false).
   Runs that pass on either attempt are counted but not included.
2. **Header lines are stable.** The text after "Chat History for " is the
   run path; the last path segment is the page anchor.
3. **Cleaned documents** additionally have:
   - the "Instructions append" block replaced by ` + "`*GO.*`" + `;
   - SEARCH/REPLACE blocks rewritten to ` + "`diff-remove`" + ` / ` + "`diff-add`" + ` containers;
   - level-4 heading markers removed;
   - unittest FAIL banners turned into ` + "`### FAIL: <name>`" + ` headings.
`
