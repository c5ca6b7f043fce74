package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# tq

## Query language

| Element | Matches |
|---|---|
| ` + "`+proj`" + ` | tasks tagged with project *proj* |
| ` + "`@ctx`" + ` | tasks tagged with context *ctx* |
| ` + "`+`" + ` / ` + "`@`" + ` | tasks with any project / context |
| ` + "`pri`" + ` | tasks with a priority |
| ` + "`pri:A`" + ` | tasks with priority A |
| ` + "`due`" + ` | tasks with a due date |
| ` + "`due<`" + ` ` + "`due=`" + ` ` + "`due>`" + ` | overdue, due today, due in the future |
| ` + "`done`" + ` | completed tasks |
| anything else | case-insensitive substring of the line |

Combine with ` + "`!`" + ` (not), ` + "`&`" + ` (and), ` + "`|`" + ` (or) and parentheses.
Operators have no precedence and are applied left to right:
` + "`a | b & c`" + ` means ` + "`(a | b) & c`" + `. A malformed query matches nothing.

## Keys

| Key | Action |
|---|---|
| ` + "`/`" + ` | edit query, ` + "`enter`" + ` applies, ` + "`esc`" + ` cancels |
| ` + "`tab`" + ` | focus the facet sidebar, then cycle its dimension |
| ` + "`space`" + ` | toggle facet in selection |
| ` + "`a`" + ` / ` + "`o`" + ` | join selected facets with AND / OR |
| ` + "`enter`" + ` | build the query from selected facets |
| ` + "`s`" + ` / ` + "`r`" + ` | cycle sort key / reverse order |
| ` + "`y`" + ` | copy the query to the clipboard |
| ` + "`j`" + ` ` + "`k`" + ` ` + "`g`" + ` ` + "`G`" + ` | move |
| ` + "`?`" + ` | toggle this help |
| ` + "`q`" + ` | quit |
`

// renderHelp renders the help page for the given width, falling back to the
// raw Markdown when glamour cannot render.
func renderHelp(width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
