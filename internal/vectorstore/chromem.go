package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

// ChromemIndex keeps collections in an embedded chromem-go database, in
// memory or persisted to a directory.
//
// chromem normalises vectors on insert, so embeddings read back through List
// are unit length rather than the raw values that were added.
type ChromemIndex struct {
	db    *chromem.DB
	embed chromem.EmbeddingFunc

	// mu is held for reading across every operation on a collection and for
	// writing while DeleteAll swaps it out, so no call can touch a dropped
	// collection. Reads and writes inside a collection are synchronised by
	// chromem itself.
	mu          sync.RWMutex
	collections map[string]*chromem.Collection

	dimsMu sync.Mutex
	dims   map[string]int // vector length seen per collection
}

// NewChromemIndex opens an index. An empty path keeps everything in memory.
// embed is only needed by List on a reopened collection whose vector length
// is not known yet; Add and Query always take precomputed vectors.
func NewChromemIndex(path string, compress bool, embed chromem.EmbeddingFunc) (*ChromemIndex, error) {
	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db at %s: %w", path, err)
		}
	}

	return &ChromemIndex{
		db:          db,
		embed:       embed,
		collections: make(map[string]*chromem.Collection),
		dims:        make(map[string]int),
	}, nil
}

// acquire returns the named collection with i.mu read-locked. The caller
// must call i.mu.RUnlock when done with it.
func (i *ChromemIndex) acquire(name string) (*chromem.Collection, error) {
	for {
		i.mu.RLock()
		if c, ok := i.collections[name]; ok {
			return c, nil
		}
		i.mu.RUnlock()

		if err := i.open(name); err != nil {
			return nil, err
		}
	}
}

func (i *ChromemIndex) open(name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.collections[name]; ok {
		return nil
	}

	c, err := i.db.GetOrCreateCollection(name, nil, i.embed)
	if err != nil {
		return fmt.Errorf("open collection %s: %w", name, err)
	}
	i.collections[name] = c
	return nil
}

func (i *ChromemIndex) dim(collection string) int {
	i.dimsMu.Lock()
	defer i.dimsMu.Unlock()
	return i.dims[collection]
}

func (i *ChromemIndex) setDim(collection string, n int) {
	if n == 0 {
		return
	}
	i.dimsMu.Lock()
	i.dims[collection] = n
	i.dimsMu.Unlock()
}

func (i *ChromemIndex) Add(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	metadatas := make([]map[string]string, len(records))
	contents := make([]string, len(records))
	for n, r := range records {
		ids[n] = r.ID
		embeddings[n] = r.Embedding
		metadatas[n] = r.Metadata
		contents[n] = r.Content
	}

	c, err := i.acquire(collection)
	if err != nil {
		return err
	}
	defer i.mu.RUnlock()

	if err := c.AddConcurrently(ctx, ids, embeddings, metadatas, contents, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add %d records to %s: %w", len(records), collection, err)
	}
	i.setDim(collection, len(embeddings[0]))
	return nil
}

func (i *ChromemIndex) Query(ctx context.Context, collection string, vector []float32, k int) ([]Match, error) {
	c, err := i.acquire(collection)
	if err != nil {
		return nil, err
	}
	defer i.mu.RUnlock()

	n := c.Count()
	if k > n {
		k = n
	}
	if k <= 0 {
		return []Match{}, nil
	}

	results, err := c.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	i.setDim(collection, len(vector))

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Record:   fromResult(r),
			Distance: 1 - float64(r.Similarity),
		})
	}
	return matches, nil
}

func (i *ChromemIndex) Count(_ context.Context, collection string) (int, error) {
	c, err := i.acquire(collection)
	if err != nil {
		return 0, err
	}
	defer i.mu.RUnlock()
	return c.Count(), nil
}

// List returns every record of a collection in no particular order.
//
// chromem has no enumeration API, so List runs a query for all n records
// with a unit vector of the collection's dimension. The dimension is learned
// from Add and Query; a collection reopened from disk that has seen neither
// falls back to embedding the collection name once through the index's
// embedding function.
func (i *ChromemIndex) List(ctx context.Context, collection string) ([]Record, error) {
	c, err := i.acquire(collection)
	if err != nil {
		return nil, err
	}
	defer i.mu.RUnlock()

	n := c.Count()
	if n == 0 {
		return []Record{}, nil
	}

	var results []chromem.Result
	if d := i.dim(collection); d > 0 {
		unit := make([]float32, d)
		unit[0] = 1
		results, err = c.QueryEmbedding(ctx, unit, n, nil, nil)
	} else {
		if i.embed == nil {
			return nil, fmt.Errorf("list %s: vector length unknown and index has no embedding function", collection)
		}
		results, err = c.Query(ctx, collection, n, nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	records := make([]Record, 0, len(results))
	for _, r := range results {
		records = append(records, fromResult(r))
	}
	if len(records) > 0 {
		i.setDim(collection, len(records[0].Embedding))
	}
	return records, nil
}

// DeleteAll drops the collection and recreates it empty.
func (i *ChromemIndex) DeleteAll(_ context.Context, collection string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	c, err := i.db.CreateCollection(collection, nil, i.embed)
	if err != nil {
		return fmt.Errorf("recreate collection %s: %w", collection, err)
	}
	i.collections[collection] = c

	i.dimsMu.Lock()
	delete(i.dims, collection)
	i.dimsMu.Unlock()
	return nil
}

func (i *ChromemIndex) Close() error {
	return nil
}

func fromResult(r chromem.Result) Record {
	return Record{
		ID:        r.ID,
		Content:   r.Content,
		Embedding: r.Embedding,
		Metadata:  r.Metadata,
	}
}
