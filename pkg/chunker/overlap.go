package chunker

import "strings"

// ApplyOverlap prepends the last n words of each chunk's predecessor, taken
// from the original predecessor so overlap never compounds across chunks.
func ApplyOverlap(chunks []string, n int) []string {
	if n <= 0 || len(chunks) < 2 {
		return chunks
	}

	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		words := strings.Fields(chunks[i-1])
		if len(words) > n {
			words = words[len(words)-n:]
		}
		if len(words) == 0 {
			out[i] = chunks[i]
			continue
		}
		out[i] = strings.Join(words, " ") + paragraphSep + chunks[i]
	}
	return out
}
