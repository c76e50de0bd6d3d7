package vectorstore

import "context"

// Record is one stored chunk. IDs are random UUIDs assigned by the caller.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// Match is a Record returned by a similarity query. Distance is cosine
// distance: 0 for identical direction, up to 2 for opposite vectors.
type Match struct {
	Record
	Distance float64
}

// Index stores records in named collections. Collections are created on
// first use and are fully independent of each other.
type Index interface {
	Add(ctx context.Context, collection string, records []Record) error
	// Query returns up to k nearest records by ascending distance. k larger
	// than the collection is clamped; an empty collection yields no matches.
	Query(ctx context.Context, collection string, vector []float32, k int) ([]Match, error)
	Count(ctx context.Context, collection string) (int, error)
	List(ctx context.Context, collection string) ([]Record, error)
	DeleteAll(ctx context.Context, collection string) error
	Close() error
}
