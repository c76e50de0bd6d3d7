package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n\t ", 0},
		{"single word", "hello", 1},
		{"mixed separators", "hello  world\nthis\tis a test", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.text))
			assert.Equal(t, tt.want, WordCounter.Count(tt.text))
		})
	}
}

func TestCounterFunc(t *testing.T) {
	c := CounterFunc(func(text string) int { return len(text) })
	assert.Equal(t, 5, c.Count("hello"))
}

func TestForModelUnknownFallsBackToWords(t *testing.T) {
	c := ForModel("not-a-real-model-name")
	assert.Equal(t, 3, c.Count("one two three"))

	_, cached := counters["not-a-real-model-name"]
	assert.True(t, cached)
}
