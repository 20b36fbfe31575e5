package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xFahim/DaamKoto"
	"github.com/xFahim/DaamKoto/ai"
	"github.com/xFahim/DaamKoto/ai/gemini"
	"github.com/xFahim/DaamKoto/ai/vertex"
	"github.com/xFahim/DaamKoto/messenger"
	"github.com/xFahim/DaamKoto/persistence/chromem"
	"github.com/xFahim/DaamKoto/persistence/pinecone"
	"github.com/xFahim/DaamKoto/vector"

	mcpE "github.com/xFahim/DaamKoto/mcp"
	httpT "github.com/xFahim/DaamKoto/transport/http"
	natsT "github.com/xFahim/DaamKoto/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "daamkoto",
		Usage: "DaamKoto conversational commerce service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the DaamKoto service directory",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL (empty disables the NATS transport)",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.BoolFlag{
				Name:  "http",
				Usage: "Enable HTTP transport",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8080",
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
	path := cmd.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(homeDir, ".daamkoto")
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		return err
	}
	defer f.Close()

	var cfg daamkoto.Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return err
	}

	cfg.ApplyDefaults()

	if cfg.Vector.Path == "" {
		cfg.Vector.Path = filepath.Join(path, "vectors")
	}

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc = daamkoto.LoggingMiddleware(log)(svc)

	endpoints := daamkoto.EndpointSet{
		Answer:         daamkoto.AnswerEndpoint(svc),
		SearchProducts: daamkoto.SearchProductsEndpoint(svc),
		Ingest:         daamkoto.IngestEndpoint(svc),
	}

	// Add NATS Transport
	if natsURL := cmd.String("nats"); natsURL != "" {
		opts := []nats.Option{
			nats.Name("DaamKoto Server"),
		}

		creds := filepath.Join(path, "user.creds")
		if _, err := os.Stat(creds); err == nil {
			opts = append(opts, nats.UserCredentials(creds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "daamkoto",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		root := srv.AddGroup("daamkoto")
		if err := natsT.AddEndpoints(root, endpoints); err != nil {
			return err
		}
	}

	if cmd.Bool("http") {
		r := gin.Default()

		sender := messenger.NewSender(cfg.Messenger)
		httpT.AddRouters(r, endpoints, cfg.Messenger, sender)

		mcpEndpoints := make(map[mcp.MCPMethod]mcpE.MCPEndpoint)
		mcpEndpoints[mcp.MethodInitialize] = mcpE.InitializeEndpoint(svc)
		mcpEndpoints[mcp.MethodPing] = mcpE.PingEndpoint(svc)
		mcpEndpoints[mcp.MethodToolsList] = mcpE.ListToolsEndpoint(svc)
		mcpEndpoints[mcp.MethodToolsCall] = mcpE.CallToolEndpoint(svc)
		httpT.AddStreamableRouters(r, mcpEndpoints)

		go r.Run(cmd.String("http-addr"))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}

func buildService(ctx context.Context, cfg daamkoto.Config) (daamkoto.Service, error) {
	genAI, err := gemini.NewGeminiAI(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}

	var embedder ai.Embedder = genAI
	if cfg.AI.Provider == "vertex" {
		embedder, err = vertex.NewVertexEmbedder(ctx, cfg.AI)
		if err != nil {
			return nil, err
		}
	}

	var store vector.Store
	if cfg.Vector.Provider == "pinecone" {
		store, err = pinecone.NewPineconeStore(cfg.Vector)
	} else {
		store, err = chromem.NewChromemStore(cfg.Vector)
	}

	if err != nil {
		return nil, err
	}

	return daamkoto.NewService(cfg, embedder, genAI, genAI, store), nil
}
