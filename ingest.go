package daamkoto

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xFahim/DaamKoto/vector"
)

// Ingest resolves each raw record through the fallback chains, embeds it,
// and upserts fixed-size batches into the tenant namespace. A record that
// fails to embed is skipped, never fatal; only an index configuration
// mismatch aborts the whole call. Every record gets a fresh id, so
// re-ingesting without clearing the namespace duplicates vectors.
func (svc *service) Ingest(ctx context.Context, pageID string, products []Product) (*IngestResult, error) {
	if pageID == "" {
		return nil, ErrInvalidPageID
	}

	if len(products) == 0 {
		return nil, ErrInvalidProducts
	}

	namespace := Namespace(pageID)

	log := svc.log.With(
		zap.String("action", "ingest"),
		zap.String("namespace", namespace),
	)

	if svc.cfg.Ingest.ManageIndex {
		err := svc.store.EnsureIndex(ctx, svc.cfg.Vector.Index, svc.cfg.Vector.Dimension, svc.cfg.Vector.Metric)
		if err != nil {
			log.Error(err.Error(), zap.String("step", "ensure_index"))
			return nil, err
		}
	}

	result := &IngestResult{Namespace: namespace}

	batchSize := svc.cfg.Ingest.BatchSize

	// Batches are upserted strictly in sequence so a failed batch's
	// members are known and prior commits survive.
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))
		batch := products[start:end]

		var records []vector.Record
		if svc.cfg.Ingest.EmbedImages {
			records = svc.embedImageBatch(ctx, pageID, batch, log)
		} else {
			records = svc.embedTextBatch(ctx, pageID, batch, log)
		}

		result.Skipped += len(batch) - len(records)

		if len(records) == 0 {
			continue
		}

		n, err := svc.store.Upsert(ctx, namespace, records)
		result.Accepted += n

		if err != nil {
			log.Error(err.Error(), zap.String("step", "upsert"))
			return result, fmt.Errorf("upsert batch: %w", err)
		}
	}

	log.Info("catalog ingested",
		zap.Int("accepted", result.Accepted),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// embedTextBatch embeds a batch concurrently. Embedding has no ordering
// dependency between records; per-record failures are logged and skipped.
func (svc *service) embedTextBatch(ctx context.Context, pageID string, batch []Product, log *zap.Logger) []vector.Record {
	slots := make([]*vector.Record, len(batch))

	g, ctx := errgroup.WithContext(ctx)

	for i, product := range batch {
		g.Go(func() error {
			record, err := svc.textRecord(ctx, pageID, product)
			if err != nil {
				log.Warn("skipping record",
					zap.String("name", product.Name()),
					zap.Error(err),
				)
				return nil
			}

			slots[i] = record
			return nil
		})
	}

	g.Wait()

	records := make([]vector.Record, 0, len(batch))
	for _, record := range slots {
		if record != nil {
			records = append(records, *record)
		}
	}

	return records
}

// embedImageBatch walks a batch sequentially with a fixed inter-item delay
// to respect the embedding backend's rate limits.
func (svc *service) embedImageBatch(ctx context.Context, pageID string, batch []Product, log *zap.Logger) []vector.Record {
	delay := svc.cfg.Ingest.ImageDelay.Duration()

	records := make([]vector.Record, 0, len(batch))

	for _, product := range batch {
		record, err := svc.imageRecord(ctx, pageID, product)
		if err != nil {
			log.Warn("skipping record",
				zap.String("name", product.Name()),
				zap.Error(err),
			)
		} else {
			records = append(records, *record)
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return records
			case <-time.After(delay):
			}
		}
	}

	return records
}

func (svc *service) textRecord(ctx context.Context, pageID string, product Product) (*vector.Record, error) {
	var (
		name       = product.Name()
		price      = product.Price()
		stock      = product.Stock()
		productURL = product.ProductURL()
		imageURL   = product.ImageURL()
	)

	description := fmt.Sprintf("URL: %s - Badge: %s", productURL, stock)

	text := strings.Join([]string{name, price, stock, description}, " ")

	values, err := svc.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	return &vector.Record{
		ID:     uuid.NewString(),
		Values: values,
		Metadata: map[string]string{
			"name":        name,
			"price":       price,
			"stock":       stock,
			"description": description,
			"page_id":     pageID,
			"url":         imageURL,
			"product_url": productURL,
		},
	}, nil
}

func (svc *service) imageRecord(ctx context.Context, pageID string, product Product) (*vector.Record, error) {
	imageURL := product.ImageURL()
	if imageURL == "" {
		return nil, fmt.Errorf("no image URL found")
	}

	var image []byte

	backoff := retry.WithMaxRetries(2, retry.NewConstant(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		data, err := svc.fetchImage(ctx, imageURL)
		if err != nil {
			return retry.RetryableError(err)
		}

		image = data
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}

	values, err := svc.embedder.EmbedImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}

	var (
		name       = product.Name()
		price      = product.Price()
		stock      = product.Stock()
		productURL = product.ProductURL()
	)

	if productURL == "" {
		productURL = imageURL
	}

	return &vector.Record{
		ID:     uuid.NewString(),
		Values: values,
		Metadata: map[string]string{
			"name":        name,
			"price":       price,
			"stock":       stock,
			"description": name + " - " + stock,
			"page_id":     pageID,
			"url":         imageURL,
			"product_url": productURL,
		},
	}, nil
}
