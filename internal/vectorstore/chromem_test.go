package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constEmbed(vec []float32) func(context.Context, string) ([]float32, error) {
	return func(context.Context, string) ([]float32, error) { return vec, nil }
}

func newTestIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	idx, err := NewChromemIndex("", false, constEmbed([]float32{1, 0, 0}))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func seed(t *testing.T, idx Index, collection string) {
	t.Helper()
	err := idx.Add(context.Background(), collection, []Record{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0}, Metadata: map[string]string{"n": "1"}},
		{ID: "b", Content: "beta", Embedding: []float32{0, 1, 0}, Metadata: map[string]string{"n": "2"}},
		{ID: "c", Content: "gamma", Embedding: []float32{0.9, 0.1, 0}, Metadata: map[string]string{"n": "3"}},
	})
	require.NoError(t, err)
}

func TestChromemQueryOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	seed(t, idx, "fine")

	matches, err := idx.Query(ctx, "fine", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "alpha", matches[0].Content)
	assert.Equal(t, "1", matches[0].Metadata["n"])
	assert.InDelta(t, 0, matches[0].Distance, 1e-5)
	assert.Equal(t, "c", matches[1].ID)
	assert.Equal(t, "b", matches[2].ID)
	assert.InDelta(t, 1, matches[2].Distance, 1e-5)

	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Distance, matches[i].Distance)
	}
}

func TestChromemQueryClampsK(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx, "fine")

	matches, err := idx.Query(context.Background(), "fine", []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "b", matches[0].ID)
}

func TestChromemEmptyCollection(t *testing.T) {
	idx := newTestIndex(t)

	matches, err := idx.Query(context.Background(), "coarse", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)

	records, err := idx.List(context.Background(), "coarse")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestChromemCollectionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	seed(t, idx, "fine")

	n, err := idx.Count(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = idx.Count(ctx, "coarse")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestChromemListAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	seed(t, idx, "fine")
	seed(t, idx, "coarse")

	records, err := idx.List(ctx, "fine")
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, idx.DeleteAll(ctx, "fine"))

	n, err := idx.Count(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = idx.Count(ctx, "coarse")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// The recreated collection accepts writes again.
	seed(t, idx, "fine")
	n, err = idx.Count(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestChromemPersistentReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := NewChromemIndex(dir, false, constEmbed([]float32{1, 0, 0}))
	require.NoError(t, err)
	seed(t, idx, "fine")

	reopened, err := NewChromemIndex(dir, false, constEmbed([]float32{1, 0, 0}))
	require.NoError(t, err)

	n, err := reopened.Count(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// countingEmbed records how often the index falls back to embedding text.
type countingEmbed struct {
	calls atomic.Int32
	err   error
}

func (c *countingEmbed) fn(context.Context, string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []float32{1, 0, 0}, nil
}

func TestChromemListDoesNotEmbed(t *testing.T) {
	emb := &countingEmbed{err: errors.New("provider down")}
	idx, err := NewChromemIndex("", false, emb.fn)
	require.NoError(t, err)
	seed(t, idx, "fine")

	records, err := idx.List(context.Background(), "fine")
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Zero(t, emb.calls.Load())
}

func TestChromemListAfterReopenLearnsDimension(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := NewChromemIndex(dir, false, constEmbed([]float32{1, 0, 0}))
	require.NoError(t, err)
	seed(t, idx, "fine")

	emb := &countingEmbed{}
	reopened, err := NewChromemIndex(dir, false, emb.fn)
	require.NoError(t, err)

	for range 2 {
		records, err := reopened.List(ctx, "fine")
		require.NoError(t, err)
		assert.Len(t, records, 3)
	}
	assert.Equal(t, int32(1), emb.calls.Load(), "only the first listing needs the embedding function")
}

func TestChromemDeleteAllRacingAdds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := NewChromemIndex(dir, false, constEmbed([]float32{1, 0, 0}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for n := 0; n < 25; n++ {
				err := idx.Add(ctx, "fine", []Record{{
					ID:        fmt.Sprintf("w%d-%d", w, n),
					Content:   "text",
					Embedding: []float32{1, 0, 0},
				}})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 0; n < 10; n++ {
			assert.NoError(t, idx.DeleteAll(ctx, "fine"))
		}
	}()
	wg.Wait()

	live, err := idx.Count(ctx, "fine")
	require.NoError(t, err)

	reopened, err := NewChromemIndex(dir, false, constEmbed([]float32{1, 0, 0}))
	require.NoError(t, err)
	persisted, err := reopened.Count(ctx, "fine")
	require.NoError(t, err)

	assert.Equal(t, live, persisted, "records on disk must match the live collection")
}
