// Package chromem backs the vector store with an embedded chromem-go
// database: one collection per tenant namespace, embeddings supplied by
// the caller. Used for local mode and tests.
package chromem

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/xFahim/DaamKoto/vector"
)

func NewChromemStore(cfg vector.Config) (vector.Store, error) {
	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		d, err := chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, err
		}

		db = d
	}

	return &chromemStore{
		db:   db,
		dims: make(map[string]int),
	}, nil
}

type chromemStore struct {
	db *chromem.DB

	mu sync.Mutex
	// Registered index dimensions. chromem has no index-level schema, so
	// the dimension guard lives here for the process lifetime.
	dims      map[string]int
	dimension int
}

func (s *chromemStore) EnsureIndex(ctx context.Context, name string, dimension int, metric string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.dims[name]
	if ok && existing != dimension {
		return fmt.Errorf("%w: index %q has dimension %d, want %d",
			vector.ErrDimensionMismatch, name, existing, dimension)
	}

	s.dims[name] = dimension
	s.dimension = dimension

	return nil
}

func (s *chromemStore) Upsert(ctx context.Context, namespace string, records []vector.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	collection, err := s.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return 0, err
	}

	committed := 0

	for _, record := range records {
		if s.dimension > 0 && len(record.Values) != s.dimension {
			return committed, fmt.Errorf("%w: record %q has %d values, want %d",
				vector.ErrDimensionMismatch, record.ID, len(record.Values), s.dimension)
		}

		doc := chromem.Document{
			ID:        record.ID,
			Metadata:  record.Metadata,
			Embedding: record.Values,
			Content:   record.Metadata["name"] + " " + record.Metadata["description"],
		}

		if err := collection.AddDocument(ctx, doc); err != nil {
			return committed, err
		}

		committed++
	}

	return committed, nil
}

func (s *chromemStore) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]vector.Match, error) {
	collection := s.db.GetCollection(namespace, nil)
	if collection == nil {
		// Unknown namespace behaves like an empty one.
		return []vector.Match{}, nil
	}

	count := collection.Count()
	if count == 0 {
		return []vector.Match{}, nil
	}

	if topK > count {
		topK = count
	}

	results, err := collection.QueryEmbedding(ctx, vec, topK, nil, nil)
	if err != nil {
		return nil, err
	}

	matches := make([]vector.Match, len(results))
	for i, result := range results {
		matches[i] = vector.Match{
			Metadata: result.Metadata,
			Score:    result.Similarity,
		}
	}

	return matches, nil
}

func (s *chromemStore) Close() error {
	return nil
}
