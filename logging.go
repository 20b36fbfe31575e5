package daamkoto

import (
	"context"

	"go.uber.org/zap"

	"github.com/xFahim/DaamKoto/vector"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "daamkoto"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) Answer(ctx context.Context, query Query) (string, error) {
	log := mw.log.With(
		zap.String("action", "answer"),
		zap.String("page_id", query.PageID),
		zap.Bool("image", query.HasImage()),
	)

	reply, err := mw.next.Answer(ctx, query)
	if err != nil {
		log.Error(err.Error())
		return "", err
	}

	log.Info("reply produced", zap.Int("length", len(reply)))
	return reply, nil
}

func (mw *loggingMiddleware) SearchProducts(ctx context.Context, query Query, k ...int) ([]vector.Match, error) {
	log := mw.log.With(
		zap.String("action", "search_products"),
		zap.String("page_id", query.PageID),
	)

	if len(k) > 0 && k[0] > 0 {
		log = log.With(
			zap.Int("k", k[0]),
		)
	}

	matches, err := mw.next.SearchProducts(ctx, query, k...)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("products searched", zap.Int("count", len(matches)))
	return matches, nil
}

func (mw *loggingMiddleware) Ingest(ctx context.Context, pageID string, products []Product) (*IngestResult, error) {
	log := mw.log.With(
		zap.String("action", "ingest"),
		zap.String("page_id", pageID),
		zap.Int("records", len(products)),
	)

	result, err := mw.next.Ingest(ctx, pageID, products)
	if err != nil {
		log.Error(err.Error())
		return result, err
	}

	log.Info("catalog ingested",
		zap.Int("accepted", result.Accepted),
		zap.Int("skipped", result.Skipped),
		zap.String("namespace", result.Namespace),
	)

	return result, nil
}
