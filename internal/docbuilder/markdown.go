package docbuilder

import "strings"

// textRun is a fragment of paragraph text with its formatting.
type textRun struct {
	Text string
	Bold bool
}

// parseBoldRuns splits text into runs, turning **bold** spans into bold
// runs. A span must be non-empty and stay on one line; an unterminated **
// stays literal.
func parseBoldRuns(text string) []textRun {
	var runs []textRun
	flushed := 0
	i := 0
	for i < len(text) {
		open := strings.Index(text[i:], "**")
		if open == -1 {
			break
		}
		open += i

		// Find the nearest closer leaving a non-empty inner span with no
		// newline in between.
		inner := -1
		search := open + 3
		for search <= len(text) {
			closeIdx := strings.Index(text[search:], "**")
			if closeIdx == -1 {
				break
			}
			closeIdx += search
			if strings.Contains(text[open+2:closeIdx], "\n") {
				break
			}
			inner = closeIdx
			break
		}
		if inner == -1 {
			// No valid closer: keep the opener literal and move past it.
			i = open + 2
			continue
		}

		if open > flushed {
			runs = append(runs, textRun{Text: text[flushed:open]})
		}
		runs = append(runs, textRun{Text: text[open+2 : inner], Bold: true})
		flushed = inner + 2
		i = flushed
	}
	if flushed < len(text) {
		runs = append(runs, textRun{Text: text[flushed:]})
	}
	return runs
}
