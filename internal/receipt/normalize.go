package receipt

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// decoration is the markdown emphasis marker vision models wrap labels in.
const decoration = "**"

// CleanText removes decoration markers and collapses whitespace runs to a
// single space.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, decoration, "")
	return strings.Join(strings.Fields(s), " ")
}

// Normalize turns raw scanner output into canonical line-oriented text.
// Each line is cleaned, empty lines are dropped and only the first
// occurrence of a repeated line is kept.
func Normalize(raw string) string {
	lines := strings.Split(raw, "\n")
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = norm.NFC.String(CleanText(line))
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
