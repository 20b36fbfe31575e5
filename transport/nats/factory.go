package nats

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"

	"github.com/xFahim/DaamKoto"
	"github.com/xFahim/DaamKoto/vector"
)

// Answer and ingest calls fan out to embedding, retrieval, and generation
// backends, so the request timeout is generous.
const requestTimeout = 90 * time.Second

func MakeEndpoints(nc *nats.Conn, prefix string) *daamkoto.EndpointSet {
	return &daamkoto.EndpointSet{
		Answer:         AnswerEndpoint(nc, prefix+".answer"),
		SearchProducts: SearchProductsEndpoint(nc, prefix+".search_products"),
		Ingest:         IngestEndpoint(nc, prefix+".ingest"),
	}
}

func AnswerEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(daamkoto.AnswerRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, requestTimeout)
		if err != nil {
			return nil, err
		}

		var answer daamkoto.AnswerResponse
		if err := json.Unmarshal(resp.Data, &answer); err != nil {
			return nil, err
		}

		return answer, nil
	}
}

func SearchProductsEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(daamkoto.SearchProductsRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, requestTimeout)
		if err != nil {
			return nil, err
		}

		var matches []vector.Match
		if err := json.Unmarshal(resp.Data, &matches); err != nil {
			return nil, err
		}

		return matches, nil
	}
}

func IngestEndpoint(nc *nats.Conn, topic string) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(daamkoto.IngestRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}

		data, err := json.Marshal(&req)
		if err != nil {
			return nil, err
		}

		resp, err := nc.Request(topic, data, requestTimeout)
		if err != nil {
			return nil, err
		}

		var result daamkoto.IngestResult
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return nil, err
		}

		return &result, nil
	}
}
