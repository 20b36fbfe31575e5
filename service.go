package daamkoto

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xFahim/DaamKoto/ai"
	"github.com/xFahim/DaamKoto/vector"
)

// Service defines the core logic of DaamKoto.
type Service interface {

	// Close releases the vector store and any other shared handles.
	Close() error

	// Answer runs the retrieval-augmented pipeline for one user query and
	// always produces a reply string. Backend failures are absorbed into
	// fixed fallback replies; only malformed input returns an error.
	Answer(ctx context.Context, query Query) (string, error)

	// SearchProducts retrieves the top matching catalog entries for a
	// query without invoking generation.
	SearchProducts(ctx context.Context, query Query, k ...int) ([]vector.Match, error)

	// Ingest converts raw catalog records into vectors and upserts them
	// into the tenant namespace.
	Ingest(ctx context.Context, pageID string, products []Product) (*IngestResult, error)
}

type ServiceMiddleware func(Service) Service

// NewService wires the three gateways into the query engine and the
// ingestion pipeline. The describer is optional; when present it turns
// caption-less photo queries into a searchable question.
func NewService(cfg Config, embedder ai.Embedder, generator ai.Generator, describer ai.Describer, store vector.Store) Service {
	cfg.ApplyDefaults()

	log := zap.L().With(
		zap.String("service", "daamkoto"),
	)

	return &service{
		cfg:       cfg,
		embedder:  embedder,
		generator: generator,
		describer: describer,
		store:     store,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type service struct {
	cfg       Config
	embedder  ai.Embedder
	generator ai.Generator
	describer ai.Describer
	store     vector.Store
	http      *http.Client
	log       *zap.Logger
}

func (svc *service) Close() error {
	if svc.store == nil {
		return nil
	}

	return svc.store.Close()
}

func (svc *service) Answer(ctx context.Context, query Query) (string, error) {
	if query.Text == "" && !query.HasImage() {
		return "", ErrMissingQueryInput
	}

	ctx, cancel := context.WithTimeout(ctx, svc.cfg.RAG.Timeout.Duration())
	defer cancel()

	log := svc.log.With(
		zap.String("action", "answer"),
		zap.String("page_id", query.PageID),
	)

	// Embed the query. The image wins for retrieval when both are present.
	image, err := svc.resolveImage(ctx, query)
	if err != nil {
		log.Error(err.Error(), zap.String("step", "fetch_image"))
		return ReplyEmbedFailed, nil
	}

	vec, err := svc.embedQuery(ctx, query.Text, image)
	if err != nil {
		log.Error(err.Error(), zap.String("step", "embed"))
		return ReplyEmbedFailed, nil
	}

	matches, err := svc.store.Query(ctx, query.Namespace(), vec, svc.cfg.RAG.TopK)
	if err != nil {
		log.Error(err.Error(), zap.String("step", "retrieve"))
		return ReplyCatalogDown, nil
	}

	productContext := BuildContext(matches)

	question := query.Text
	if question == "" && image != nil && svc.describer != nil {
		desc, err := svc.describer.DescribeImage(ctx, image)
		if err != nil {
			log.Warn(err.Error(), zap.String("step", "describe"))
		} else {
			question = strings.TrimSpace(desc)
		}
	}

	prompt := BuildPrompt(SelectPrompt(productContext, image != nil), question)

	reply, err := svc.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error(err.Error(), zap.String("step", "generate"))
		return ReplyGenerateFailed, nil
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		log.Error("generator returned empty text", zap.String("step", "generate"))
		return ReplyGenerateFailed, nil
	}

	log.Info("query answered", zap.Int("matches", len(matches)))
	return reply, nil
}

func (svc *service) SearchProducts(ctx context.Context, query Query, k ...int) ([]vector.Match, error) {
	if query.Text == "" && !query.HasImage() {
		return nil, ErrMissingQueryInput
	}

	n := svc.cfg.RAG.TopK
	if len(k) > 0 && k[0] > 0 {
		n = k[0]
	}

	ctx, cancel := context.WithTimeout(ctx, svc.cfg.RAG.Timeout.Duration())
	defer cancel()

	image, err := svc.resolveImage(ctx, query)
	if err != nil {
		return nil, err
	}

	vec, err := svc.embedQuery(ctx, query.Text, image)
	if err != nil {
		return nil, err
	}

	return svc.store.Query(ctx, query.Namespace(), vec, n)
}

func (svc *service) embedQuery(ctx context.Context, text string, image []byte) ([]float32, error) {
	if image != nil {
		return svc.embedder.EmbedImage(ctx, image)
	}

	return svc.embedder.EmbedText(ctx, text)
}

func (svc *service) resolveImage(ctx context.Context, query Query) ([]byte, error) {
	if len(query.Image) > 0 {
		return query.Image, nil
	}

	if query.ImageURL == "" {
		return nil, nil
	}

	return svc.fetchImage(ctx, query.ImageURL)
}

func (svc *service) fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := svc.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
