package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"

	"github.com/xFahim/DaamKoto"
	"github.com/xFahim/DaamKoto/vector"
)

type fakeService struct {
	matches   []vector.Match
	reply     string
	lastQuery daamkoto.Query
	lastK     int
}

func (svc *fakeService) Close() error {
	return nil
}

func (svc *fakeService) Answer(ctx context.Context, query daamkoto.Query) (string, error) {
	svc.lastQuery = query
	return svc.reply, nil
}

func (svc *fakeService) SearchProducts(ctx context.Context, query daamkoto.Query, k ...int) ([]vector.Match, error) {
	svc.lastQuery = query

	if len(k) > 0 {
		svc.lastK = k[0]
	}

	return svc.matches, nil
}

func (svc *fakeService) Ingest(ctx context.Context, pageID string, products []daamkoto.Product) (*daamkoto.IngestResult, error) {
	return &daamkoto.IngestResult{}, nil
}

func TestListToolsEndpoint(t *testing.T) {
	assert := assert.New(t)

	input := []byte(`{
	  "jsonrpc": "2.0",
	  "id": 1,
	  "method": "tools/list"
	}`)

	var req JSONRPCRequest
	if err := json.Unmarshal(input, &req); err != nil {
		assert.Fail(err.Error())
		return
	}

	endpoint := ListToolsEndpoint(&fakeService{})

	resp, ok := endpoint(context.Background(), req).(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("invalid response type")
		return
	}

	result, ok := resp.Result.(*mcp.ListToolsResult)
	if !ok {
		assert.Fail("invalid result type")
		return
	}

	if !assert.Len(result.Tools, 2) {
		return
	}

	assert.Equal("search_products", result.Tools[0].Name)
	assert.Equal("ask_assistant", result.Tools[1].Name)
}

func TestCallToolSearchProducts(t *testing.T) {
	assert := assert.New(t)

	input := []byte(`{
	  "jsonrpc": "2.0",
	  "id": 2,
	  "method": "tools/call",
	  "params": {
	    "name": "search_products",
	    "arguments": {
	      "page_id": "goodybro",
	      "query": "red t-shirt",
	      "k": 2
	    }
	  }
	}`)

	var req JSONRPCRequest
	if err := json.Unmarshal(input, &req); err != nil {
		assert.Fail(err.Error())
		return
	}

	svc := &fakeService{
		matches: []vector.Match{
			{
				Metadata: map[string]string{"name": "Red Tee", "price": "$10"},
				Score:    0.9,
			},
		},
	}

	endpoint := CallToolEndpoint(svc)

	resp, ok := endpoint(context.Background(), req).(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("invalid response type")
		return
	}

	assert.Equal("goodybro", svc.lastQuery.PageID)
	assert.Equal("red t-shirt", svc.lastQuery.Text)
	assert.Equal(2, svc.lastK)

	result, ok := resp.Result.(*mcp.CallToolResult)
	if !ok {
		assert.Fail("invalid result type")
		return
	}

	if !assert.Len(result.Content, 1) {
		return
	}

	content, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		assert.Fail("invalid content type")
		return
	}

	var matches []vector.Match
	if err := json.Unmarshal([]byte(content.Text), &matches); err != nil {
		assert.Fail(err.Error())
		return
	}

	if !assert.Len(matches, 1) {
		return
	}

	assert.Equal("Red Tee", matches[0].Metadata["name"])
}

func TestCallToolAskAssistant(t *testing.T) {
	assert := assert.New(t)

	input := []byte(`{
	  "jsonrpc": "2.0",
	  "id": 3,
	  "method": "tools/call",
	  "params": {
	    "name": "ask_assistant",
	    "arguments": {
	      "page_id": "goodybro",
	      "question": "do you have red t-shirts?"
	    }
	  }
	}`)

	var req JSONRPCRequest
	if err := json.Unmarshal(input, &req); err != nil {
		assert.Fail(err.Error())
		return
	}

	svc := &fakeService{reply: "Sure! The Red Tee is $10."}

	endpoint := CallToolEndpoint(svc)

	resp, ok := endpoint(context.Background(), req).(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("invalid response type")
		return
	}

	assert.Equal("goodybro", svc.lastQuery.PageID)
	assert.Equal("do you have red t-shirts?", svc.lastQuery.Text)

	result, ok := resp.Result.(*mcp.CallToolResult)
	if !ok {
		assert.Fail("invalid result type")
		return
	}

	if !assert.Len(result.Content, 1) {
		return
	}

	content, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		assert.Fail("invalid content type")
		return
	}

	assert.Equal("Sure! The Red Tee is $10.", content.Text)
}

func TestCallToolUnknownTool(t *testing.T) {
	assert := assert.New(t)

	input := []byte(`{
	  "jsonrpc": "2.0",
	  "id": 4,
	  "method": "tools/call",
	  "params": {
	    "name": "get_weather",
	    "arguments": {}
	  }
	}`)

	var req JSONRPCRequest
	if err := json.Unmarshal(input, &req); err != nil {
		assert.Fail(err.Error())
		return
	}

	endpoint := CallToolEndpoint(&fakeService{})

	resp, ok := endpoint(context.Background(), req).(mcp.JSONRPCError)
	if !ok {
		assert.Fail("invalid response type")
		return
	}

	assert.Equal(mcp.INVALID_PARAMS, resp.Error.Code)
}
