package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgVectorStore keeps every collection in the paper_chunks table, keyed by
// the collection column. The schema is created by the SQL migrations.
type PgVectorStore struct {
	db *pgxpool.Pool
}

func NewPgVectorStore(db *pgxpool.Pool) *PgVectorStore {
	return &PgVectorStore{db: db}
}

// Add inserts all records in one transaction; either all land or none do.
func (s *PgVectorStore) Add(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for n, r := range records {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return fmt.Errorf("record %d: parse id %q: %w", n, r.ID, err)
		}

		metadata := r.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO paper_chunks (id, collection, content, embedding, metadata)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, collection, r.Content, pgvector.NewVector(r.Embedding), metadata,
		)
		if err != nil {
			return fmt.Errorf("insert record %d into %s: %w", n, collection, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgVectorStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, content, embedding, metadata, embedding <=> $2 AS distance
		 FROM paper_chunks
		 WHERE collection = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		collection, pgvector.NewVector(vector), k,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search in %s: %w", collection, err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var (
			m   Match
			id  uuid.UUID
			vec pgvector.Vector
		)
		if err := rows.Scan(&id, &m.Content, &vec, &m.Metadata, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.ID = id.String()
		m.Embedding = vec.Slice()
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read matches: %w", err)
	}
	return matches, nil
}

func (s *PgVectorStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		"SELECT count(*) FROM paper_chunks WHERE collection = $1", collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func (s *PgVectorStore) List(ctx context.Context, collection string) ([]Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, content, embedding, metadata
		 FROM paper_chunks
		 WHERE collection = $1
		 ORDER BY created_at, id`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			r   Record
			id  uuid.UUID
			vec pgvector.Vector
		)
		if err := rows.Scan(&id, &r.Content, &vec, &r.Metadata); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.ID = id.String()
		r.Embedding = vec.Slice()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

func (s *PgVectorStore) DeleteAll(ctx context.Context, collection string) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM paper_chunks WHERE collection = $1", collection); err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return nil
}

// Close is a no-op; the pool belongs to the caller.
func (s *PgVectorStore) Close() error {
	return nil
}
