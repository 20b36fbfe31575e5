package vector

import (
	"context"
	"errors"
)

var (
	// ErrDimensionMismatch means the target index exists with a different
	// dimension than requested. Writing through it would silently corrupt
	// retrieval for every namespace, so callers must treat it as fatal.
	ErrDimensionMismatch = errors.New("index dimension mismatch")

	ErrIndexNotReady = errors.New("index not ready")
)

type Config struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"apiKey"`
	Index     string `yaml:"index"`
	Dimension int    `yaml:"dimension"`
	Metric    string `yaml:"metric"`
	BatchSize int    `yaml:"batchSize"`
	Cloud     string `yaml:"cloud"`
	Region    string `yaml:"region"`
	Path      string `yaml:"path"`
}

// Store is a namespaced nearest-neighbor store. A query against one
// namespace never returns vectors written under another.
type Store interface {
	// EnsureIndex creates the index if absent and waits until it is ready.
	// An existing index with a different dimension returns
	// ErrDimensionMismatch.
	EnsureIndex(ctx context.Context, name string, dimension int, metric string) error

	// Upsert writes records into the namespace in bounded batches and
	// returns the number committed. An empty list is a no-op.
	Upsert(ctx context.Context, namespace string, records []Record) (int, error)

	// Query returns up to topK matches ordered by descending score.
	// An empty or unknown namespace yields an empty slice, not an error.
	Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error)

	Close() error
}

type Record struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Match struct {
	Metadata map[string]string `json:"metadata"`
	Score    float32           `json:"score"`
}
