// Package marker implements the in-band token grammar the host model
// appends to its replies: a single [PROGRESS:NN%] progress estimate and
// any number of [CLUE:text] records. Tokens are stripped before text
// reaches the player; malformed tokens are left in place untouched.
package marker

import (
	"strconv"
	"strings"
)

const (
	progressPrefix = "[PROGRESS:"
	cluePrefix     = "[CLUE:"
)

// Extraction is the result of scanning a complete raw reply.
type Extraction struct {
	// Display is the reply with all well-formed tokens removed and
	// trailing whitespace trimmed.
	Display string
	// Progress is the value of the first well-formed progress token,
	// or nil when the reply carried none.
	Progress *int
	// Clues holds every clue payload in order of appearance. Duplicates
	// within one reply are preserved; session-level deduplication is the
	// state machine's job.
	Clues []string
}

// Extract scans raw host output for progress and clue tokens. A generic
// reply often has neither, which is not an error.
func Extract(raw string) Extraction {
	var (
		out      strings.Builder
		progress *int
		clues    []string
	)

	for i := 0; i < len(raw); {
		if raw[i] == '[' {
			if n, val, ok := matchProgress(raw[i:]); ok {
				if progress == nil {
					v := val
					progress = &v
				}
				i += n
				continue
			}
			if n, payload, ok := matchClue(raw[i:]); ok {
				clues = append(clues, payload)
				i += n
				continue
			}
		}
		out.WriteByte(raw[i])
		i++
	}

	return Extraction{
		Display:  strings.TrimRight(out.String(), " \t\r\n"),
		Progress: progress,
		Clues:    clues,
	}
}

// strip removes well-formed tokens without collecting their values.
// The streaming filter uses it on its rolling buffer.
func strip(s string) string {
	if !strings.Contains(s, "[") {
		return s
	}
	var out strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '[' {
			if n, _, ok := matchProgress(s[i:]); ok {
				i += n
				continue
			}
			if n, _, ok := matchClue(s[i:]); ok {
				i += n
				continue
			}
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// matchProgress reports whether s begins with a well-formed progress
// token and returns its length and parsed value. Non-numeric digits or
// a missing closing bracket leave the token unmatched.
func matchProgress(s string) (n int, value int, ok bool) {
	if !strings.HasPrefix(s, progressPrefix) {
		return 0, 0, false
	}
	i := len(progressPrefix)
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, 0, false
	}
	digits := s[start:i]
	if i < len(s) && s[i] == '%' {
		i++
	}
	if i >= len(s) || s[i] != ']' {
		return 0, 0, false
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, false
	}
	return i + 1, v, true
}

// matchClue reports whether s begins with a well-formed clue token and
// returns its length and trimmed payload. The payload must be non-empty
// and contain no ']'.
func matchClue(s string) (n int, payload string, ok bool) {
	if !strings.HasPrefix(s, cluePrefix) {
		return 0, "", false
	}
	end := strings.IndexByte(s[len(cluePrefix):], ']')
	if end <= 0 {
		return 0, "", false
	}
	payload = strings.TrimSpace(s[len(cluePrefix) : len(cluePrefix)+end])
	if payload == "" {
		return 0, "", false
	}
	return len(cluePrefix) + end + 1, payload, true
}
