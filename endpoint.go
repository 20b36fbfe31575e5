package daamkoto

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	Answer         endpoint.Endpoint
	SearchProducts endpoint.Endpoint
	Ingest         endpoint.Endpoint
}

type AnswerRequest struct {
	PageID   string `json:"page_id"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type AnswerResponse struct {
	Reply string `json:"reply"`
}

func AnswerEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AnswerRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		query := Query{
			PageID:   req.PageID,
			Text:     req.Text,
			ImageURL: req.ImageURL,
		}

		reply, err := svc.Answer(ctx, query)
		if err != nil {
			return nil, err
		}

		return AnswerResponse{Reply: reply}, nil
	}
}

type SearchProductsRequest struct {
	PageID string `json:"page_id" form:"page_id"`
	Query  string `json:"query" form:"query"`
	K      int    `json:"k,omitempty" form:"k"`
}

func SearchProductsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(SearchProductsRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		query := Query{
			PageID: req.PageID,
			Text:   req.Query,
		}

		return svc.SearchProducts(ctx, query, req.K)
	}
}

type IngestRequest struct {
	PageID   string    `json:"page_id"`
	Products []Product `json:"products"`
}

func IngestEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IngestRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Ingest(ctx, req.PageID, req.Products)
	}
}
