package prompt

import "strings"

var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n", "\n\n"}

// TruncateAtSentenceBoundary cuts text to at most limit bytes,
// preferring the last sentence boundary in the kept prefix. If no
// boundary sits past the halfway point it falls back to a hard cut so
// a boundary-free wall of text still shrinks.
func TruncateAtSentenceBoundary(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := text[:limit]
	best := -1
	for _, ender := range sentenceEnders {
		if idx := strings.LastIndex(cut, ender); idx >= 0 && idx+len(ender) > best {
			best = idx + len(ender)
		}
	}
	if best > limit/2 {
		return strings.TrimRight(cut[:best], " \n")
	}
	return cut
}
