package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentAbstractAndNumberedIntroduction(t *testing.T) {
	text := "Abstract\nWe study X.\n1. Introduction\nPrior work..."

	sections := Segment(text, DefaultSectionHeaders)

	require.Len(t, sections, 2)
	assert.Equal(t, Section{Label: "Abstract", Body: "We study X."}, sections[0])
	assert.Equal(t, Section{Label: "1. Introduction", Body: "Prior work..."}, sections[1])
}

func TestSegmentWithoutHeadersReturnsContent(t *testing.T) {
	text := "just some text\nwith a second line"

	sections := Segment(text, nil)

	require.Len(t, sections, 1)
	assert.Equal(t, FallbackLabel, sections[0].Label)
	assert.Equal(t, text, sections[0].Body)
}

func TestSegmentPreambleAndEmptySections(t *testing.T) {
	text := "Title of the paper\nMethods\nResults\nWe measured things.\n\nThen more things."

	sections := Segment(text, nil)

	require.Len(t, sections, 2)
	assert.Equal(t, PreambleLabel, sections[0].Label)
	assert.Equal(t, "Title of the paper", sections[0].Body)
	// Methods has no body and is dropped; the blank line inside Results survives.
	assert.Equal(t, "Results", sections[1].Label)
	assert.Equal(t, "We measured things.\n\nThen more things.", sections[1].Body)
}

func TestSegmenterIsHeader(t *testing.T) {
	s := NewSegmenter(DefaultSectionHeaders)

	tests := []struct {
		line string
		want bool
	}{
		{"Introduction", true},
		{"  RELATED WORK  ", true},
		{"2. Related Work", true},
		{"3 Methods and data", true},
		{"4) Experiments", true},
		{"EVALUATION SETUP", true},
		{"A VERY LONG SHOUTED LINE WITH TOO MANY WORDS", false},
		{"12. Something else", false},
		{"The introduction of transformers", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsHeader(tt.line))
		})
	}
}

func TestSplitParagraphs(t *testing.T) {
	assert.Equal(t, []string{"one", "two"}, SplitParagraphs("one\n\n  two  \n\n\n"))
	assert.Equal(t, []string{"single line"}, SplitParagraphs("single line"))
	assert.Empty(t, SplitParagraphs(" \n "))
}
