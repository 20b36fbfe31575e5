// The daamkoto_mcp_server binary bridges a local MCP client (stdio) to a
// running DaamKoto service over NATS.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/xFahim/DaamKoto"

	mcpE "github.com/xFahim/DaamKoto/mcp"
	natsT "github.com/xFahim/DaamKoto/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "daamkoto_mcp_server",
		Usage: "DaamKoto MCP server over stdio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "nats",
				Usage:    "NATS server URL",
				Sources:  cli.EnvVars("NATS_URL"),
				Required: true,
			},
			&cli.StringFlag{
				Name:  "creds",
				Usage: "Path to NATS user credentials",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "NATS subject prefix of the DaamKoto service",
				Value: "daamkoto",
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []nats.Option{
		nats.Name("DaamKoto MCP Server"),
	}

	if creds := cmd.String("creds"); creds != "" {
		opts = append(opts, nats.UserCredentials(creds))
	}

	nc, err := nats.Connect(cmd.String("nats"), opts...)
	if err != nil {
		return err
	}
	defer nc.Drain()

	endpoints := natsT.MakeEndpoints(nc, cmd.String("prefix"))

	svc := daamkoto.ProxyMiddleware(endpoints)(nil)

	server := NewStdioMCPServer()
	server.AddEndpoint(mcp.MethodInitialize, mcpE.InitializeEndpoint(svc))
	server.AddEndpoint(mcp.MethodPing, mcpE.PingEndpoint(svc))
	server.AddEndpoint(mcp.MethodToolsList, mcpE.ListToolsEndpoint(svc))
	server.AddEndpoint(mcp.MethodToolsCall, mcpE.CallToolEndpoint(svc))

	return server.Listen(ctx)
}

type StdioMCPServer interface {
	AddEndpoint(method mcp.MCPMethod, endpoint mcpE.MCPEndpoint)
	Listen(ctx context.Context) error
}

func NewStdioMCPServer() StdioMCPServer {
	return &stdioMCPServer{
		endpoints: make(map[mcp.MCPMethod]mcpE.MCPEndpoint),
	}
}

type stdioMCPServer struct {
	endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint
}

func (s *stdioMCPServer) AddEndpoint(method mcp.MCPMethod, endpoint mcpE.MCPEndpoint) {
	s.endpoints[method] = endpoint
}

func (s *stdioMCPServer) Listen(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)

	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(lines)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errs:
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err

		case line, ok := <-lines:
			if !ok {
				return nil
			}

			if line == "" {
				continue
			}

			var req mcpE.JSONRPCRequest
			if err := json.Unmarshal([]byte(line), &req); err != nil {
				continue
			}

			// Notifications carry no ID and get no response.
			if req.ID.IsNil() {
				continue
			}

			var resp mcp.JSONRPCMessage

			endpoint, ok := s.endpoints[req.Method]
			if !ok {
				resp = mcp.JSONRPCError{
					JSONRPC: mcp.JSONRPC_VERSION,
					ID:      req.ID,
					Error: struct {
						Code    int    `json:"code"`
						Message string `json:"message"`
						Data    any    `json:"data,omitempty"`
					}{
						Code:    mcp.METHOD_NOT_FOUND,
						Message: "method not found",
					},
				}
			} else {
				resp = endpoint(ctx, req)
			}

			bs, err := json.Marshal(resp)
			if err != nil {
				continue
			}

			fmt.Fprintf(os.Stdout, "%s\n", bs)
		}
	}
}
