package citation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikhilbhutani/scholarrag/internal/models"
)

const (
	DefaultThreshold = 0.8
	DefaultTopK      = 3

	snippetMaxRunes   = 300
	snippetMinCutRune = 250
)

// Searcher is the slice of the chunk store the matcher needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int, granularity models.ChunkType) ([]models.SearchResult, error)
}

type Paper struct {
	Title        string `json:"title"`
	Authors      string `json:"authors"`
	CitationKey  string `json:"citation_key"`
	Bibtex       string `json:"bibtex"`
	MatchSnippet string `json:"match_snippet"`
}

type Suggestion struct {
	Match bool    `json:"match"`
	Score float64 `json:"score"`
	Paper *Paper  `json:"paper"`
}

// Matcher decides whether a passage is close enough to a stored fine chunk
// to be cited.
type Matcher struct {
	searcher  Searcher
	threshold float64
	topK      int
	logger    *slog.Logger
}

type Option func(*Matcher)

func WithThreshold(t float64) Option {
	return func(m *Matcher) { m.threshold = t }
}

func WithTopK(k int) Option {
	return func(m *Matcher) {
		if k > 0 {
			m.topK = k
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

func NewMatcher(s Searcher, opts ...Option) *Matcher {
	m := &Matcher{
		searcher:  s,
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Matcher) Threshold() float64 { return m.threshold }

// Suggest searches the fine collection for text. The best hit is a match
// when its similarity reaches the threshold; otherwise its score is still
// reported with no paper attached.
func (m *Matcher) Suggest(ctx context.Context, text string) (*Suggestion, error) {
	results, err := m.searcher.Search(ctx, text, m.topK, models.ChunkFine)
	if err != nil {
		return nil, fmt.Errorf("search fine chunks: %w", err)
	}
	if len(results) == 0 {
		return &Suggestion{Match: false, Score: 0}, nil
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.SimilarityScore > best.SimilarityScore {
			best = r
		}
	}

	if best.SimilarityScore < m.threshold {
		m.logger.Debug("citation below threshold", "score", best.SimilarityScore, "threshold", m.threshold)
		return &Suggestion{Match: false, Score: best.SimilarityScore}, nil
	}

	meta := best.Metadata
	paper := &Paper{
		Title:        valueOr(meta, models.MetaTitle, unknownTitle),
		Authors:      valueOr(meta, models.MetaAuthors, "Unknown Authors"),
		CitationKey:  valueOr(meta, models.MetaCitationKey, "unknown"),
		Bibtex:       meta[models.MetaBibtex],
		MatchSnippet: Snippet(best.Text),
	}

	m.logger.Info("citation matched", "citation_key", paper.CitationKey, "score", best.SimilarityScore)
	return &Suggestion{Match: true, Score: best.SimilarityScore, Paper: paper}, nil
}

// Snippet shortens text to at most 300 runes plus an ellipsis, cutting at the
// last space when that keeps at least 250 runes.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetMaxRunes {
		return text
	}

	cut := runes[:snippetMaxRunes]
	if i := lastSpace(cut); i >= snippetMinCutRune {
		cut = cut[:i]
	}
	return string(cut) + "..."
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

func valueOr(meta map[string]string, key, def string) string {
	if v := strings.TrimSpace(meta[key]); v != "" {
		return v
	}
	return def
}
