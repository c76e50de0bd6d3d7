package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/scholarrag/internal/config"
	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/rag"
)

type fakeStore struct {
	ingested []models.PaperMetadata
	texts    []string
	searches []models.ChunkType
	kFine    int
	kCoarse  int
	results  []models.SearchResult
	deleted  bool
}

func (f *fakeStore) IngestDocument(_ context.Context, text string, paper models.PaperMetadata) (*rag.IngestResult, error) {
	f.ingested = append(f.ingested, paper)
	f.texts = append(f.texts, text)
	return &rag.IngestResult{CitationKey: "turing1950computing", FineChunks: 4, CoarseChunks: 1}, nil
}

func (f *fakeStore) Search(_ context.Context, _ string, k int, granularity models.ChunkType) ([]models.SearchResult, error) {
	f.searches = append(f.searches, granularity)
	f.kFine = k
	return f.results, nil
}

func (f *fakeStore) SearchBoth(_ context.Context, _ string, kFine, kCoarse int) ([]models.SearchResult, error) {
	f.kFine, f.kCoarse = kFine, kCoarse
	return f.results, nil
}

func (f *fakeStore) Stats(context.Context) (rag.Stats, error) {
	return rag.Stats{FineChunks: 4, CoarseChunks: 1, TotalChunks: 5, FineCollection: "fine_chunks", CoarseCollection: "coarse_chunks"}, nil
}

func (f *fakeStore) ListChunks(_ context.Context, granularity models.ChunkType) ([]rag.ChunkPreview, error) {
	return []rag.ChunkPreview{{ID: "id-1", Text: "Machines can think.", TextLength: 19, Collection: string(granularity)}}, nil
}

func (f *fakeStore) DeleteAll(context.Context) error {
	f.deleted = true
	return nil
}

// run executes the root command against a fake store and returns its output.
func run(t *testing.T, store *fakeStore, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SCHOLARRAG_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Chdir(t.TempDir())

	orig := openStore
	openStore = func(context.Context, *config.Config) (PaperStore, func(), error) {
		return store, func() {}, nil
	}
	t.Cleanup(func() {
		openStore = orig
		jsonOutput, searchLimit, searchGranularity, resetYes = false, 0, "both", false
		ingestTitle, ingestAuthors, ingestYear, ingestArxivID, ingestURL = "", nil, 0, "", ""
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestIngestCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2301.00001v2.txt")
	require.NoError(t, os.WriteFile(path, []byte("Can machines think? We believe so."), 0o600))

	store := &fakeStore{}
	out, err := run(t, store, "ingest", path, "--author", "Alan Turing", "--year", "1950")
	require.NoError(t, err)

	assert.Contains(t, out, "turing1950computing")
	assert.Contains(t, out, "fine chunks:   4")
	require.Len(t, store.ingested, 1)

	p := store.ingested[0]
	assert.Equal(t, "2301.00001v2", p.Title)
	assert.Equal(t, []string{"Alan Turing"}, p.Authors)
	assert.Equal(t, 1950, p.Year)
	assert.Equal(t, "2301.00001", p.ArxivID)
	assert.Equal(t, "file:2301.00001v2.txt", p.Source)
	assert.Contains(t, store.texts[0], "Can machines think?")
}

func TestIngestRejectsUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.epub")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := run(t, &fakeStore{}, "ingest", path)
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestSearchCommandDefaults(t *testing.T) {
	store := &fakeStore{results: []models.SearchResult{{
		Text:            "Attention is all you need.",
		Metadata:        map[string]string{models.MetaTitle: "Transformers"},
		SimilarityScore: 0.91,
		Rank:            1,
		Collection:      "fine_chunks",
	}}}

	out, err := run(t, store, "search", "attention")
	require.NoError(t, err)
	assert.Equal(t, 3, store.kFine)
	assert.Equal(t, 2, store.kCoarse)
	assert.Contains(t, out, "[1] Transformers (0.910, fine_chunks #1)")
}

func TestSearchCommandSingleCollection(t *testing.T) {
	store := &fakeStore{}
	out, err := run(t, store, "search", "-g", "coarse", "-n", "7", "attention")
	require.NoError(t, err)
	assert.Equal(t, []models.ChunkType{models.ChunkCoarse}, store.searches)
	assert.Equal(t, 7, store.kFine)
	assert.Contains(t, out, "No results found.")
}

func TestSuggestCommand(t *testing.T) {
	store := &fakeStore{results: []models.SearchResult{{
		Text: "Machines can think.",
		Metadata: map[string]string{
			models.MetaTitle:       "Computing Machinery and Intelligence",
			models.MetaAuthors:     "Alan Turing",
			models.MetaCitationKey: "turing1950computing",
			models.MetaBibtex:      "@article{turing1950computing}",
		},
		SimilarityScore: 0.95,
	}}}

	out, err := run(t, store, "suggest", "Machines can think.")
	require.NoError(t, err)
	assert.Contains(t, out, "Cite turing1950computing")
	assert.Contains(t, out, "@article{turing1950computing}")

	store.results[0].SimilarityScore = 0.5
	out, err = run(t, store, "suggest", "Something else.")
	require.NoError(t, err)
	assert.Contains(t, out, "No citation found")
}

func TestStatsCommandJSON(t *testing.T) {
	out, err := run(t, &fakeStore{}, "stats", "--json")
	require.NoError(t, err)

	var st rag.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 5, st.TotalChunks)
}

func TestChunksCommand(t *testing.T) {
	out, err := run(t, &fakeStore{}, "chunks", "fine")
	require.NoError(t, err)
	assert.Contains(t, out, "Machines can think.")

	_, err = run(t, &fakeStore{}, "chunks", "medium")
	assert.ErrorContains(t, err, "unknown granularity")
}

func TestResetRequiresConfirmation(t *testing.T) {
	store := &fakeStore{}
	_, err := run(t, store, "reset")
	assert.ErrorContains(t, err, "--yes")
	assert.False(t, store.deleted)

	out, err := run(t, store, "reset", "--yes")
	require.NoError(t, err)
	assert.True(t, store.deleted)
	assert.Contains(t, out, "All chunks deleted.")
}
