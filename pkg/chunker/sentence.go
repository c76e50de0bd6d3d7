package chunker

import (
	"strings"
	"unicode/utf8"
)

// FineOptions bounds sentence-level chunks. Character limits count runes.
type FineOptions struct {
	MinChars     int
	MaxChars     int
	MinSentences int
	MaxSentences int

	// MergeRemainder folds a trailing chunk that misses the minimums into
	// the previous chunk instead of dropping it.
	MergeRemainder bool
}

// DefaultFineOptions returns the bounds used for citation matching.
func DefaultFineOptions() FineOptions {
	return FineOptions{
		MinChars:     300,
		MaxChars:     500,
		MinSentences: 1,
		MaxSentences: 3,
	}
}

// SplitSentences splits after '.', '!' or '?' when followed by whitespace.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		j := i + 1
		if j >= len(text) || !isSpaceByte(text[j]) {
			continue
		}
		if s := strings.TrimSpace(text[start:j]); s != "" {
			sentences = append(sentences, s)
		}
		for j < len(text) && isSpaceByte(text[j]) {
			j++
		}
		start = j
		i = j - 1
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// MergeSentences groups consecutive sentences into chunks bounded by opts.
// A chunk is closed when the next sentence would push it past MaxChars or
// when it already holds MaxSentences. Closed chunks shorter than MinChars
// (or, on the size path, with fewer than MinSentences) are discarded.
func MergeSentences(text string, opts FineOptions) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		chunks  []string
		current string
		count   int
	)

	for _, s := range sentences {
		candidate := s
		if current != "" {
			candidate = current + " " + s
		}

		switch {
		case current != "" && runeLen(candidate) > opts.MaxChars:
			if runeLen(current) >= opts.MinChars && count >= opts.MinSentences {
				chunks = append(chunks, current)
			}
			current, count = s, 1
		case current != "" && count >= opts.MaxSentences:
			if runeLen(current) >= opts.MinChars {
				chunks = append(chunks, current)
			}
			current, count = s, 1
		default:
			current = candidate
			count++
		}
	}

	if current == "" {
		return chunks
	}
	if runeLen(current) >= opts.MinChars && count >= opts.MinSentences {
		return append(chunks, current)
	}
	if opts.MergeRemainder {
		if len(chunks) == 0 {
			return []string{current}
		}
		chunks[len(chunks)-1] += " " + current
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
