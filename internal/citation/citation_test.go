package citation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/scholarrag/internal/models"
)

type stubSearcher struct {
	results []models.SearchResult
	err     error

	gotK    int
	gotType models.ChunkType
}

func (s *stubSearcher) Search(_ context.Context, _ string, k int, granularity models.ChunkType) ([]models.SearchResult, error) {
	s.gotK, s.gotType = k, granularity
	return s.results, s.err
}

func hit(score float64, text string) models.SearchResult {
	return models.SearchResult{
		Text:            text,
		SimilarityScore: score,
		Distance:        1 - score,
		Metadata: map[string]string{
			models.MetaTitle:       "Attention Is All You Need",
			models.MetaAuthors:     "Ashish Vaswani, Noam Shazeer",
			models.MetaCitationKey: "vaswani2017attention",
			models.MetaBibtex:      "@article{vaswani2017attention}",
		},
		Collection: string(models.ChunkFine),
	}
}

func TestSuggestMatchAboveThreshold(t *testing.T) {
	s := &stubSearcher{results: []models.SearchResult{
		hit(0.70, "weaker"),
		hit(0.85, "The dominant sequence transduction models are based on recurrent networks."),
		hit(0.60, "weakest"),
	}}

	got, err := NewMatcher(s).Suggest(context.Background(), "sequence transduction with attention")
	require.NoError(t, err)

	assert.True(t, got.Match)
	assert.InDelta(t, 0.85, got.Score, 1e-9)
	require.NotNil(t, got.Paper)
	assert.Equal(t, "vaswani2017attention", got.Paper.CitationKey)
	assert.Equal(t, "Ashish Vaswani, Noam Shazeer", got.Paper.Authors)
	assert.Equal(t, "The dominant sequence transduction models are based on recurrent networks.", got.Paper.MatchSnippet)

	assert.Equal(t, DefaultTopK, s.gotK)
	assert.Equal(t, models.ChunkFine, s.gotType)
}

func TestSuggestBelowThreshold(t *testing.T) {
	s := &stubSearcher{results: []models.SearchResult{hit(0.65, "close but not enough")}}

	got, err := NewMatcher(s).Suggest(context.Background(), "query")
	require.NoError(t, err)

	assert.False(t, got.Match)
	assert.InDelta(t, 0.65, got.Score, 1e-9)
	assert.Nil(t, got.Paper)
}

func TestSuggestEmptyCollection(t *testing.T) {
	got, err := NewMatcher(&stubSearcher{}).Suggest(context.Background(), "query")
	require.NoError(t, err)

	assert.Equal(t, &Suggestion{Match: false, Score: 0}, got)
}

func TestSuggestCustomThreshold(t *testing.T) {
	s := &stubSearcher{results: []models.SearchResult{hit(0.65, "close enough now")}}

	got, err := NewMatcher(s, WithThreshold(0.6)).Suggest(context.Background(), "query")
	require.NoError(t, err)
	assert.True(t, got.Match)
}

func TestSuggestSearchError(t *testing.T) {
	boom := errors.New("index down")

	_, err := NewMatcher(&stubSearcher{err: boom}).Suggest(context.Background(), "query")
	assert.ErrorIs(t, err, boom)
}

func TestSuggestFillsMissingMetadata(t *testing.T) {
	r := models.SearchResult{Text: "orphan", SimilarityScore: 0.9, Metadata: map[string]string{}}

	got, err := NewMatcher(&stubSearcher{results: []models.SearchResult{r}}).Suggest(context.Background(), "q")
	require.NoError(t, err)

	require.NotNil(t, got.Paper)
	assert.Equal(t, "Unknown Title", got.Paper.Title)
	assert.Equal(t, "Unknown Authors", got.Paper.Authors)
	assert.Equal(t, "unknown", got.Paper.CitationKey)
}

func TestSnippet(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "short", Snippet("short"))
	})

	t.Run("cuts at late space", func(t *testing.T) {
		text := strings.Repeat("a", 280) + " " + strings.Repeat("b", 100)
		assert.Equal(t, strings.Repeat("a", 280)+"...", Snippet(text))
	})

	t.Run("hard cut when space is early", func(t *testing.T) {
		text := strings.Repeat("a", 100) + " " + strings.Repeat("b", 300)
		got := Snippet(text)
		assert.Equal(t, 303, len([]rune(got)))
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("counts runes", func(t *testing.T) {
		text := strings.Repeat("é", 301)
		assert.Equal(t, strings.Repeat("é", 300)+"...", Snippet(text))
	})
}

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		paper models.PaperMetadata
		want  string
	}{
		{
			name:  "author year title",
			paper: models.PaperMetadata{Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani"}, Year: 2017},
			want:  "vaswani2017attention",
		},
		{
			name:  "missing year uses arxiv id",
			paper: models.PaperMetadata{Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani"}, ArxivID: "1706.03762"},
			want:  "1706.03762",
		},
		{
			name:  "title fallback",
			paper: models.PaperMetadata{Title: "Retrieval Augmented Generation for Papers"},
			want:  "Retrieval_Augmented_",
		},
		{
			name:  "nothing known",
			paper: models.PaperMetadata{},
			want:  "Unknown_Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.paper))
		})
	}
}

func TestBibtex(t *testing.T) {
	arxiv := models.PaperMetadata{
		Title:   "Attention Is All You Need",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
		Year:    2017,
		ArxivID: "1706.03762",
	}
	assert.Equal(t, "@article{vaswani2017attention,\n"+
		"  title={ Attention Is All You Need },\n"+
		"  author={ Ashish Vaswani and Noam Shazeer },\n"+
		"  year={ 2017 },\n"+
		"  eprint={ 1706.03762 },\n"+
		"  archivePrefix={arXiv},\n"+
		"  url={ https://arxiv.org/abs/1706.03762 }\n"+
		"}", Bibtex("vaswani2017attention", arxiv))

	misc := models.PaperMetadata{Title: "Notes", URL: "https://example.org/notes"}
	assert.Equal(t, "@misc{Notes,\n"+
		"  title={ Notes },\n"+
		"  author={ Unknown },\n"+
		"  year={ xxxx },\n"+
		"  url={ https://example.org/notes }\n"+
		"}", Bibtex("Notes", misc))
}

func TestExtractArxivID(t *testing.T) {
	assert.Equal(t, "2305.12345", ExtractArxivID("https://arxiv.org/pdf/2305.12345v2.pdf"))
	assert.Equal(t, "1706.03762", ExtractArxivID("1706.03762"))
	assert.Equal(t, "", ExtractArxivID("no id here"))
}
