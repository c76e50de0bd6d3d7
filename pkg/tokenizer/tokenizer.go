package tokenizer

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultModel is the model whose vocabulary chunk budgets are measured in.
const DefaultModel = "gpt-3.5-turbo"

// Counter counts tokens in a piece of text.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int { return f(text) }

// WordCounter approximates tokens by whitespace-separated words.
// Real sub-word counts for English prose run about 1.3x higher, so budgets
// measured with it are looser than the configured numbers suggest.
var WordCounter Counter = CounterFunc(CountWords)

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

var (
	cacheMu  sync.Mutex
	counters = map[string]Counter{}
)

// ForModel returns a BPE counter for the model's vocabulary. If the encoding
// cannot be loaded (unknown model, BPE files unreachable) it logs a warning
// and returns WordCounter instead.
func ForModel(model string) Counter {
	if model == "" {
		model = DefaultModel
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if c, ok := counters[model]; ok {
		return c
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		slog.Warn("tokenizer unavailable, falling back to word counts",
			"model", model,
			"error", err,
		)
		counters[model] = WordCounter
		return WordCounter
	}

	c := &tiktokenCounter{enc: enc}
	counters[model] = c
	return c
}

// CountTokens counts tokens for the default model.
func CountTokens(text string) int {
	return ForModel(DefaultModel).Count(text)
}

// CountTokensForModel counts tokens using the given model's vocabulary.
func CountTokensForModel(text, model string) int {
	return ForModel(model).Count(text)
}
