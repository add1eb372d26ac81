package council

import (
	"regexp"
	"strings"
)

// rankingMarker locates the "FINAL RANKING" line, case-insensitively, with
// or without the trailing colon.
var rankingMarker = regexp.MustCompile(`(?i)FINAL RANKING:?`)

// rankedLineRe matches one numbered ranking line, tolerant of minor
// formatting: "1. Response B", "2) Response A", "3. **Response C**".
var rankedLineRe = regexp.MustCompile(`(?i)^\s*\d+\s*[.)]\s*\**\s*(Response\s+[A-Z])\b`)

// ParseRanking extracts the ordered label list from one peer evaluation.
// Only text after the FINAL RANKING marker is considered; parsing stops at
// the first blank-line break once at least one label was matched, or at end
// of text. Duplicate labels keep their first position.
//
// A missing marker returns an empty list. That is not an error: the ranking
// is simply excluded from aggregation.
func ParseRanking(text string) []string {
	loc := rankingMarker.FindStringIndex(text)
	if loc == nil {
		return nil
	}

	var order []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(text[loc[1]:], "\n") {
		if strings.TrimSpace(line) == "" {
			if len(order) > 0 {
				break
			}
			continue
		}
		m := rankedLineRe.FindStringSubmatch(line)
		if m == nil {
			if len(order) > 0 {
				break
			}
			continue
		}
		label := canonicalLabel(m[1])
		if !seen[label] {
			seen[label] = true
			order = append(order, label)
		}
	}
	return order
}

// canonicalLabel normalizes whitespace and casing to the "Response X" form
// the labeler emits.
func canonicalLabel(s string) string {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return s
	}
	return "Response " + strings.ToUpper(fields[1])
}
