package chunker

import "strings"

// SplitParagraphs splits on blank lines. Text with no blank lines falls back
// to one paragraph per line.
func SplitParagraphs(text string) []string {
	paragraphs := splitTrimmed(text, "\n\n")
	if len(paragraphs) == 0 {
		paragraphs = splitTrimmed(text, "\n")
	}
	return paragraphs
}

func splitTrimmed(text, sep string) []string {
	var out []string
	for _, p := range strings.Split(text, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
