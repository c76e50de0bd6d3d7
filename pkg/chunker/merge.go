package chunker

import (
	"strings"

	"github.com/nikhilbhutani/scholarrag/pkg/tokenizer"
)

const paragraphSep = "\n\n"

// MergeParagraphs packs paragraphs greedily into chunks of at most maxTokens,
// summing per-paragraph counts. A paragraph that alone exceeds maxTokens
// becomes its own chunk. In a second pass, chunks under minTokens are folded
// into the chunk before them; an undersized first chunk is kept as is.
func MergeParagraphs(paragraphs []string, minTokens, maxTokens int, counter tokenizer.Counter) []string {
	if len(paragraphs) == 0 {
		return nil
	}
	if counter == nil {
		counter = tokenizer.WordCounter
	}

	var (
		chunks    []string
		current   strings.Builder
		curTokens int
	)

	for _, p := range paragraphs {
		pt := counter.Count(p)
		if curTokens+pt > maxTokens && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			curTokens = 0
		}
		if current.Len() > 0 {
			current.WriteString(paragraphSep)
		}
		current.WriteString(p)
		curTokens += pt
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		chunks = append(chunks, rest)
	}

	merged := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len(merged) == 0 || counter.Count(c) >= minTokens {
			merged = append(merged, c)
			continue
		}
		merged[len(merged)-1] += paragraphSep + c
	}

	return merged
}
