// Package pinecone backs the vector store with a Pinecone serverless
// index, one namespace per tenant.
package pinecone

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pinecone-io/go-pinecone/v2/pinecone"
	"github.com/sethvargo/go-retry"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xFahim/DaamKoto/vector"
)

// Index creation is asynchronous; writes are refused until the index
// reports ready or this wait runs out.
const (
	readyPollInterval = 2 * time.Second
	readyWaitMax      = 2 * time.Minute
)

func NewPineconeStore(cfg vector.Config) (vector.Store, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})

	if err != nil {
		return nil, err
	}

	return &pineconeStore{
		client: client,
		cfg:    cfg,
		conns:  make(map[string]*pinecone.IndexConnection),
	}, nil
}

type pineconeStore struct {
	client *pinecone.Client
	cfg    vector.Config

	mu    sync.Mutex
	host  string
	conns map[string]*pinecone.IndexConnection
}

func (s *pineconeStore) EnsureIndex(ctx context.Context, name string, dimension int, metric string) error {
	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return err
	}

	var existing *pinecone.Index
	for _, idx := range indexes {
		if idx.Name == name {
			existing = idx
			break
		}
	}

	if existing != nil {
		if int(existing.Dimension) != dimension {
			return fmt.Errorf("%w: index %q has dimension %d, want %d",
				vector.ErrDimensionMismatch, name, existing.Dimension, dimension)
		}
	} else {
		region := s.cfg.Region
		if region == "" {
			region = "us-east-1"
		}

		_, err := s.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      name,
			Dimension: int32(dimension),
			Metric:    indexMetric(metric),
			Cloud:     pinecone.Aws,
			Region:    region,
		})

		if err != nil {
			return err
		}
	}

	return s.waitReady(ctx, name)
}

func (s *pineconeStore) waitReady(ctx context.Context, name string) error {
	backoff := retry.WithMaxDuration(readyWaitMax, retry.NewConstant(readyPollInterval))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		idx, err := s.client.DescribeIndex(ctx, name)
		if err != nil {
			return retry.RetryableError(err)
		}

		if !idx.Status.Ready {
			return retry.RetryableError(vector.ErrIndexNotReady)
		}

		s.mu.Lock()
		s.host = idx.Host
		s.mu.Unlock()

		return nil
	})
}

func (s *pineconeStore) Upsert(ctx context.Context, namespace string, records []vector.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	conn, err := s.connection(ctx, namespace)
	if err != nil {
		return 0, err
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	committed := 0

	// Bounded batches keep request sizes sane and let a later failure
	// leave earlier commits intact.
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))

		vectors := make([]*pinecone.Vector, 0, end-start)
		for _, record := range records[start:end] {
			metadata, err := recordMetadata(record)
			if err != nil {
				return committed, err
			}

			vectors = append(vectors, &pinecone.Vector{
				Id:       record.ID,
				Values:   record.Values,
				Metadata: metadata,
			})
		}

		n, err := conn.UpsertVectors(ctx, vectors)
		committed += int(n)

		if err != nil {
			return committed, err
		}
	}

	return committed, nil
}

func (s *pineconeStore) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]vector.Match, error) {
	conn, err := s.connection(ctx, namespace)
	if err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vec,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})

	if err != nil {
		return nil, err
	}

	matches := make([]vector.Match, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		metadata := make(map[string]string)
		if match.Vector != nil && match.Vector.Metadata != nil {
			for key, value := range match.Vector.Metadata.AsMap() {
				metadata[key] = fmt.Sprint(value)
			}
		}

		matches = append(matches, vector.Match{
			Metadata: metadata,
			Score:    match.Score,
		})
	}

	return matches, nil
}

func (s *pineconeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for namespace, conn := range s.conns {
		conn.Close()
		delete(s.conns, namespace)
	}

	return nil
}

func (s *pineconeStore) connection(ctx context.Context, namespace string) (*pinecone.IndexConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn, ok := s.conns[namespace]; ok {
		return conn, nil
	}

	if s.host == "" {
		idx, err := s.client.DescribeIndex(ctx, s.cfg.Index)
		if err != nil {
			return nil, err
		}

		s.host = idx.Host
	}

	conn, err := s.client.Index(pinecone.NewIndexConnParams{
		Host:      s.host,
		Namespace: namespace,
	})

	if err != nil {
		return nil, err
	}

	s.conns[namespace] = conn
	return conn, nil
}

func recordMetadata(record vector.Record) (*pinecone.Metadata, error) {
	fields := make(map[string]any, len(record.Metadata))
	for key, value := range record.Metadata {
		fields[key] = value
	}

	return structpb.NewStruct(fields)
}

func indexMetric(metric string) pinecone.IndexMetric {
	switch strings.ToLower(metric) {
	case "euclidean":
		return pinecone.Euclidean
	case "dotproduct":
		return pinecone.Dotproduct
	default:
		return pinecone.Cosine
	}
}
