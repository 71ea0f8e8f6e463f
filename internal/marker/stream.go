package marker

import "unicode/utf8"

// StreamFilter turns an ordered sequence of raw reply fragments into
// display-safe fragments. Fragment boundaries carry no alignment
// guarantee: a token may arrive split across several fragments, so the
// filter keeps a rolling buffer and only releases text that can no
// longer turn out to be part of a marker.
//
// The live output is for display only. Authoritative progress and clue
// values come from running Extract over the independently accumulated
// raw text once the stream ends.
type StreamFilter struct {
	buf string
}

// Feed appends a raw fragment and returns the text that is now safe to
// show. The returned string is empty while the buffer tail might still
// grow into a marker.
func (f *StreamFilter) Feed(fragment string) string {
	f.buf = strip(f.buf + fragment)

	cut := len(f.buf)
	if i := lastUnmatchedBracket(f.buf); i >= 0 {
		cut = i
	}
	// Hold back a trailing whitespace run: if the stream ends here, or a
	// marker follows, that whitespace is trailing and must not surface.
	for cut > 0 && isSpace(f.buf[cut-1]) {
		cut--
	}
	// Hold back an incomplete trailing UTF-8 sequence so every emitted
	// fragment is valid text on its own.
	cut = runeBoundary(f.buf, cut)

	out := f.buf[:cut]
	f.buf = f.buf[cut:]
	return out
}

// Close flushes whatever the filter was withholding at end of stream. A
// literal '[' that never closed is released here rather than silently
// dropped; trailing whitespace is trimmed to match Extract's display
// text byte for byte.
func (f *StreamFilter) Close() string {
	rest := strip(f.buf)
	f.buf = ""
	for len(rest) > 0 && isSpace(rest[len(rest)-1]) {
		rest = rest[:len(rest)-1]
	}
	return rest
}

// lastUnmatchedBracket returns the index of the last '[' that has no
// ']' after it, or -1. Everything from that point on may be the start
// of a marker still in flight.
func lastUnmatchedBracket(s string) int {
	i := len(s) - 1
	for ; i >= 0; i-- {
		if s[i] == ']' {
			return -1
		}
		if s[i] == '[' {
			return i
		}
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// runeBoundary backs cut off to the start of any incomplete trailing
// UTF-8 sequence in s[:cut].
func runeBoundary(s string, cut int) int {
	start := cut
	for start > 0 && cut-start < utf8.UTFMax && s[start-1]&0xC0 == 0x80 {
		start--
	}
	if start == 0 {
		return cut
	}
	if s[start-1]&0x80 == 0 {
		return cut // pure ASCII tail
	}
	if utf8.FullRune([]byte(s[start-1 : cut])) {
		return cut
	}
	return start - 1
}
