package source

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	// Fence and delimiter lines must reach the document builder verbatim.
	fenceLine = regexp.MustCompile(`^\s*(\++|-+)\s*$`)
	// A bare *** or ___ line marks the separator in plain-text sources.
	ruleLine = regexp.MustCompile(`^\s*(\*{3,}|_{3,})\s*$`)
)

// lineBlocks emits one block per non-blank line. render turns an ordinary
// line into block markup; nil escapes it into a <p>.
func lineBlocks(lines []string, render func(string) (string, error)) (string, error) {
	var sb strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case ruleLine.MatchString(line):
			sb.WriteString("<hr>")
		case fenceLine.MatchString(line) || render == nil:
			sb.WriteString("<p>" + html.EscapeString(line) + "</p>")
		default:
			out, err := render(line)
			if err != nil {
				return "", err
			}
			sb.WriteString(out)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
