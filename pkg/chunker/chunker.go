package chunker

import (
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/scholarrag/pkg/tokenizer"
)

// CoarseOptions bounds paragraph-level chunks used for contextual answers.
type CoarseOptions struct {
	MinChars      int
	MaxChars      int
	MinTokens     int
	MaxTokens     int
	OverlapTokens int // trailing words carried into the next chunk
	SplitOverlap  int // rune overlap when an oversized chunk is cut into windows
}

// DefaultCoarseOptions returns the bounds used for question answering.
func DefaultCoarseOptions() CoarseOptions {
	return CoarseOptions{
		MinChars:      1000,
		MaxChars:      1500,
		MinTokens:     300,
		MaxTokens:     512,
		OverlapTokens: 50,
		SplitOverlap:  100,
	}
}

type Options struct {
	SectionHeaders []string
	Fine           FineOptions
	Coarse         CoarseOptions
}

func DefaultOptions() Options {
	return Options{
		SectionHeaders: DefaultSectionHeaders,
		Fine:           DefaultFineOptions(),
		Coarse:         DefaultCoarseOptions(),
	}
}

// Chunker turns extracted paper text into fine and coarse chunk sets.
// It holds no mutable state and is safe for concurrent use.
type Chunker struct {
	opts      Options
	segmenter *Segmenter
	counter   tokenizer.Counter
}

// New returns a Chunker. A nil counter counts whitespace-separated words.
func New(opts Options, counter tokenizer.Counter) *Chunker {
	if counter == nil {
		counter = tokenizer.WordCounter
	}
	return &Chunker{
		opts:      opts,
		segmenter: NewSegmenter(opts.SectionHeaders),
		counter:   counter,
	}
}

func (c *Chunker) Options() Options {
	return c.opts
}

// Fine returns sentence-bounded chunks. Sentences never cross a section.
func (c *Chunker) Fine(text string) []string {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	var chunks []string
	for _, sec := range c.segmenter.Segment(text) {
		body := strings.Join(SplitParagraphs(sec.Body), " ")
		chunks = append(chunks, MergeSentences(body, c.opts.Fine)...)
	}
	return chunks
}

// Coarse returns section-aware, token-budgeted chunks with word overlap,
// then corrects them into the configured character range.
func (c *Chunker) Coarse(text string) []string {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	o := c.opts.Coarse
	var chunks []string
	for _, sec := range c.segmenter.Segment(text) {
		paragraphs := SplitParagraphs(sec.Body)
		for _, chunk := range MergeParagraphs(paragraphs, o.MinTokens, o.MaxTokens, c.counter) {
			chunks = append(chunks, withSectionLabel(chunk, sec.Label))
		}
	}

	if len(chunks) == 0 {
		chunks = MergeParagraphs(SplitParagraphs(text), o.MinTokens, o.MaxTokens, c.counter)
	}

	chunks = ApplyOverlap(chunks, o.OverlapTokens)
	return fitCharBounds(chunks, o)
}

func withSectionLabel(chunk, label string) string {
	if strings.HasPrefix(strings.ToLower(chunk), strings.ToLower(label)) {
		return chunk
	}
	return "[" + label + "]" + paragraphSep + chunk
}

// fitCharBounds splits chunks longer than MaxChars into fixed windows and
// folds chunks shorter than MinChars into their predecessor. A short chunk
// with no predecessor is carried into the next one. When a fold would pass
// MaxChars, the short text is emitted inside a MaxChars window cut from the
// joined text instead, so no chunk ever exceeds MaxChars. If the whole
// document is shorter than MinChars nothing is returned.
func fitCharBounds(chunks []string, o CoarseOptions) []string {
	var pieces []string
	for _, ch := range chunks {
		if runeLen(ch) > o.MaxChars {
			pieces = append(pieces, SplitFixed(ch, o.MaxChars, o.SplitOverlap)...)
			continue
		}
		pieces = append(pieces, ch)
	}

	var (
		out   []string
		carry string
	)
	for _, p := range pieces {
		if carry != "" {
			joined := carry + paragraphSep + p
			if runeLen(joined) <= o.MaxChars {
				p = joined
			} else {
				out = append(out, headRunes(joined, o.MaxChars))
			}
			carry = ""
		}
		switch {
		case runeLen(p) >= o.MinChars:
			out = append(out, p)
		case len(out) > 0:
			joined := out[len(out)-1] + paragraphSep + p
			if runeLen(joined) <= o.MaxChars {
				out[len(out)-1] = joined
			} else {
				out = append(out, tailRunes(joined, o.MaxChars))
			}
		default:
			carry = p
		}
	}

	if carry != "" {
		slog.Debug("dropping undersized coarse text", "chars", runeLen(carry), "min_chars", o.MinChars)
	}
	return out
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
