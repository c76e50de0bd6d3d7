package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/scholarrag/pkg/tokenizer"
)

func TestMergeParagraphs(t *testing.T) {
	p1 := "alpha beta gamma delta"
	p2 := "epsilon zeta eta theta"
	p3 := "iota kappa lambda mu"

	t.Run("closes before exceeding max", func(t *testing.T) {
		got := MergeParagraphs([]string{p1, p2, p3}, 0, 8, tokenizer.WordCounter)
		assert.Equal(t, []string{p1 + "\n\n" + p2, p3}, got)
	})

	t.Run("folds undersized tail into predecessor", func(t *testing.T) {
		got := MergeParagraphs([]string{p1, p2, p3}, 5, 8, tokenizer.WordCounter)
		assert.Equal(t, []string{p1 + "\n\n" + p2 + "\n\n" + p3}, got)
	})

	t.Run("keeps undersized first chunk", func(t *testing.T) {
		long := "c d e f g h i j k l"
		got := MergeParagraphs([]string{"a b", long}, 3, 5, tokenizer.WordCounter)
		assert.Equal(t, []string{"a b", long}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, MergeParagraphs(nil, 1, 10, nil))
	})
}

func TestMergeParagraphsBounds(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 40; i++ {
		n := 3 + (i*7)%25
		words := make([]string, n)
		for j := range words {
			words[j] = fmt.Sprintf("w%d_%d", i, j)
		}
		paragraphs = append(paragraphs, strings.Join(words, " "))
	}

	const minTokens, maxTokens = 30, 60
	chunks := MergeParagraphs(paragraphs, minTokens, maxTokens, tokenizer.WordCounter)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		if i > 0 {
			assert.GreaterOrEqual(t, tokenizer.CountWords(c), minTokens, "chunk %d", i)
		}
	}

	// Merging only regroups paragraphs; no word is lost or reordered.
	assert.Equal(t,
		strings.Fields(strings.Join(paragraphs, " ")),
		strings.Fields(strings.Join(chunks, " ")),
	)
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello world. How are you?  Fine!\nOk", []string{"Hello world.", "How are you?", "Fine!", "Ok"}},
		{"3.14 is pi.", []string{"3.14 is pi."}},
		{"   ", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitSentences(tt.in))
	}
}

func TestMergeSentences(t *testing.T) {
	s1 := "This is sentence number one."
	s2 := "This is sentence number two."
	s3 := "This is sentence number six."
	s4 := "This is sentence number four."
	text := strings.Join([]string{s1, s2, s3, s4}, " ")

	t.Run("sentence limit closes chunk", func(t *testing.T) {
		opts := FineOptions{MinChars: 20, MaxChars: 1000, MinSentences: 1, MaxSentences: 3}
		got := MergeSentences(text, opts)
		assert.Equal(t, []string{s1 + " " + s2 + " " + s3, s4}, got)
	})

	t.Run("undersized remainder is dropped", func(t *testing.T) {
		opts := FineOptions{MinChars: 30, MaxChars: 1000, MinSentences: 1, MaxSentences: 3}
		got := MergeSentences(text, opts)
		assert.Equal(t, []string{s1 + " " + s2 + " " + s3}, got)
	})

	t.Run("undersized remainder is merged when enabled", func(t *testing.T) {
		opts := FineOptions{MinChars: 30, MaxChars: 1000, MinSentences: 1, MaxSentences: 3, MergeRemainder: true}
		got := MergeSentences(text, opts)
		assert.Equal(t, []string{text}, got)
	})

	t.Run("character limit closes chunk", func(t *testing.T) {
		opts := FineOptions{MinChars: 1, MaxChars: 60, MinSentences: 1, MaxSentences: 10}
		got := MergeSentences(text, opts)
		assert.Equal(t, []string{s1 + " " + s2, s3 + " " + s4}, got)
	})

	t.Run("every chunk meets minimums", func(t *testing.T) {
		opts := DefaultFineOptions()
		var b strings.Builder
		for i := 0; i < 60; i++ {
			fmt.Fprintf(&b, "Sentence %d talks about retrieval%s. ", i, strings.Repeat(" and more", i%9))
		}
		for _, c := range MergeSentences(b.String(), opts) {
			assert.GreaterOrEqual(t, runeLen(c), opts.MinChars)
			assert.GreaterOrEqual(t, len(SplitSentences(c)), opts.MinSentences)
		}
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, MergeSentences("", DefaultFineOptions()))
	})
}

func TestApplyOverlap(t *testing.T) {
	chunks := []string{"a b c", "d e f", "g h"}

	assert.Equal(t, chunks, ApplyOverlap(chunks, 0))
	assert.Equal(t, []string{"a b c", "b c\n\nd e f", "e f\n\ng h"}, ApplyOverlap(chunks, 2))
	assert.Equal(t, []string{"a b c", "a b c\n\nd e f", "d e f\n\ng h"}, ApplyOverlap(chunks, 10))
	assert.Equal(t, []string{"only"}, ApplyOverlap([]string{"only"}, 5))
}

func TestSplitFixed(t *testing.T) {
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, SplitFixed("abcdefghij", 4, 1))
	assert.Equal(t, []string{"abcdefghij"}, SplitFixed("abcdefghij", 20, 5))
	assert.Equal(t, []string{"ab", "cd", "de"}, SplitFixed("abcde", 2, 2))
	assert.Equal(t, []string{"abcdef", "ghijkl", "lmnopq"}, SplitFixed("abcdefghijklmnopq", 6, 0))
	assert.Nil(t, SplitFixed("abc", 0, 0))
}
