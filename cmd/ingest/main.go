// The ingest binary runs the catalog ingestion pipeline offline against a
// products JSON file.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xFahim/DaamKoto"
	"github.com/xFahim/DaamKoto/ai"
	"github.com/xFahim/DaamKoto/ai/gemini"
	"github.com/xFahim/DaamKoto/ai/vertex"
	"github.com/xFahim/DaamKoto/persistence/chromem"
	"github.com/xFahim/DaamKoto/persistence/pinecone"
	"github.com/xFahim/DaamKoto/vector"
)

func main() {
	cmd := &cli.Command{
		Name:  "ingest",
		Usage: "Ingest a product catalog into the vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the DaamKoto service directory",
			},
			&cli.StringFlag{
				Name:     "page",
				Usage:    "Store page ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path to the products JSON file",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "images",
				Usage: "Embed product images instead of text",
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

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)

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

	// The offline pipeline owns the index lifecycle.
	cfg.Ingest.ManageIndex = true

	if cmd.Bool("images") {
		cfg.Ingest.EmbedImages = true
	}

	if cfg.Vector.Path == "" {
		cfg.Vector.Path = filepath.Join(path, "vectors")
	}

	data, err := os.ReadFile(cmd.String("file"))
	if err != nil {
		return err
	}

	var products []daamkoto.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return err
	}

	logger.Info("catalog loaded",
		zap.String("file", cmd.String("file")),
		zap.Int("records", len(products)),
	)

	svc, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc = daamkoto.LoggingMiddleware(logger)(svc)

	result, err := svc.Ingest(ctx, cmd.String("page"), products)
	if err != nil {
		return err
	}

	logger.Info("ingestion complete",
		zap.Int("accepted", result.Accepted),
		zap.Int("skipped", result.Skipped),
		zap.String("namespace", result.Namespace),
	)

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
