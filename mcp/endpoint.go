// Package mcp exposes the assistant as MCP tools so agent runtimes can
// search a store's catalog or ask for a grounded answer.
package mcp

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xFahim/DaamKoto"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func errorResponse(id any, code int, message string) mcp.JSONRPCError {
	return mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(id),
		Error: struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data,omitempty"`
		}{
			Code:    code,
			Message: message,
		},
	}
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

const MCPSERVER_INSTRUCTIONS string = `DaamKoto answers shopping questions against a per-store product catalog, providing:

1. **Semantic Search**: Find catalog products from a natural language description
2. **Grounded Answers**: Conversational replies backed by retrieved products only
3. **Multi-Store**: Every call is scoped to one store via page_id

Available tools:
- search_products: retrieve the top matching products for a query
- ask_assistant: get a customer-ready reply grounded in the catalog

The assistant never invents products that are not in the store's catalog.`

// Tools lists the static tool surface.
func Tools() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool("search_products",
			mcp.WithDescription("Search a store's product catalog by semantic similarity."),
			mcp.WithString("page_id",
				mcp.Required(),
				mcp.Description("Store page ID; scopes the search to that store's catalog."),
			),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Natural language description of the product to look for."),
			),
			mcp.WithNumber("k",
				mcp.Description("Number of matches to return (default 3)."),
			),
		),
		mcp.NewTool("ask_assistant",
			mcp.WithDescription("Ask the sales assistant a question about a store's products."),
			mcp.WithString("page_id",
				mcp.Required(),
				mcp.Description("Store page ID; scopes the answer to that store's catalog."),
			),
			mcp.WithString("question",
				mcp.Description("The customer's question."),
			),
			mcp.WithString("image_url",
				mcp.Description("URL of a product photo to search by."),
			),
		),
	}
}

func InitializeEndpoint(svc daamkoto.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "daamkoto",
				Version: "1.0.0",
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc daamkoto.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{}, // empty response
		}
	}
}

func ListToolsEndpoint(svc daamkoto.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		result := &mcp.ListToolsResult{
			Tools: Tools(),
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func CallToolEndpoint(svc daamkoto.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		args, _ := params.Arguments.(map[string]any)

		var (
			text string
			err  error
		)

		switch params.Name {
		case "search_products":
			text, err = searchProducts(ctx, svc, args)

		case "ask_assistant":
			text, err = askAssistant(ctx, svc, args)

		default:
			return errorResponse(req.ID, mcp.INVALID_PARAMS, "unknown tool: "+params.Name)
		}

		if err != nil {
			return errorResponse(req.ID, mcp.INTERNAL_ERROR, err.Error())
		}

		result := mcp.NewToolResultText(text)

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func searchProducts(ctx context.Context, svc daamkoto.Service, args map[string]any) (string, error) {
	query := daamkoto.Query{
		PageID: stringArg(args, "page_id"),
		Text:   stringArg(args, "query"),
	}

	k := 0
	if n, ok := args["k"].(float64); ok {
		k = int(n)
	}

	matches, err := svc.SearchProducts(ctx, query, k)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(matches)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func askAssistant(ctx context.Context, svc daamkoto.Service, args map[string]any) (string, error) {
	query := daamkoto.Query{
		PageID:   stringArg(args, "page_id"),
		Text:     stringArg(args, "question"),
		ImageURL: stringArg(args, "image_url"),
	}

	return svc.Answer(ctx, query)
}

func stringArg(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return value
}
