package chunker

import "strings"

// SplitFixed cuts text into windows of size runes, each starting
// size-overlap runes after the previous one. The last window is moved back
// to end exactly at the end of text, so every window of a text longer than
// size holds exactly size runes. Whitespace-only windows are skipped.
func SplitFixed(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var windows []string
	for start := 0; ; start += step {
		last := start+size >= len(runes)
		if last {
			start = max(len(runes)-size, 0)
		}

		content := string(runes[start:min(start+size, len(runes))])
		if strings.TrimSpace(content) != "" {
			windows = append(windows, content)
		}
		if last {
			break
		}
	}

	return windows
}
