package daamkoto

import (
	"context"
	"errors"

	"github.com/xFahim/DaamKoto/vector"
)

// ProxyMiddleware turns a remote EndpointSet (e.g. the NATS client-side
// endpoints) back into a Service.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return errors.New("method not implemented")
}

func (mw *proxyMiddleware) Answer(ctx context.Context, query Query) (string, error) {
	req := AnswerRequest{
		PageID:   query.PageID,
		Text:     query.Text,
		ImageURL: query.ImageURL,
	}

	resp, err := mw.endpoints.Answer(ctx, req)
	if err != nil {
		return "", err
	}

	answer, ok := resp.(AnswerResponse)
	if !ok {
		return "", errors.New("invalid response type")
	}

	return answer.Reply, nil
}

func (mw *proxyMiddleware) SearchProducts(ctx context.Context, query Query, k ...int) ([]vector.Match, error) {
	n := 0
	if len(k) > 0 {
		n = k[0]
	}

	req := SearchProductsRequest{
		PageID: query.PageID,
		Query:  query.Text,
		K:      n,
	}

	resp, err := mw.endpoints.SearchProducts(ctx, req)
	if err != nil {
		return nil, err
	}

	matches, ok := resp.([]vector.Match)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return matches, nil
}

func (mw *proxyMiddleware) Ingest(ctx context.Context, pageID string, products []Product) (*IngestResult, error) {
	req := IngestRequest{
		PageID:   pageID,
		Products: products,
	}

	resp, err := mw.endpoints.Ingest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, ok := resp.(*IngestResult)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return result, nil
}
