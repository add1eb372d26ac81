package council

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxExtractAttempts bounds how many '{' candidates ExtractJSONObject will
// try before giving up on a blob of text.
const maxExtractAttempts = 5

// ExtractJSONObject recovers exactly one well-formed JSON object from noisy
// free text: markdown fences, leading or trailing commentary, and braces
// embedded inside quoted strings are all tolerated.
//
// It scans from the first '{', walking brace depth while honoring
// double-quote state and backslash escapes so in-string braces never affect
// depth. When depth returns to zero the candidate is parsed; on parse failure
// the scan resumes from the next '{'. Exhausting the attempt budget returns
// ErrNoJSONObject.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	offset := 0
	for attempt := 0; attempt < maxExtractAttempts; attempt++ {
		start := strings.IndexByte(text[offset:], '{')
		if start < 0 {
			return nil, ErrNoJSONObject
		}
		start += offset

		end, ok := matchObjectEnd(text, start)
		if !ok {
			// Unterminated candidate: no later '{' can close either.
			return nil, ErrNoJSONObject
		}

		candidate := text[start : end+1]
		var probe map[string]any
		if err := json.Unmarshal([]byte(candidate), &probe); err == nil {
			return json.RawMessage(candidate), nil
		}
		offset = start + 1
	}
	return nil, fmt.Errorf("%w: attempt budget exhausted", ErrNoJSONObject)
}

// matchObjectEnd finds the index of the brace closing the object opened at
// start, tracking quote and escape state. Returns false when the text ends
// before depth returns to zero.
func matchObjectEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}
