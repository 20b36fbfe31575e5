// Package gemini implements the embedding, generation, and image
// description gateways on the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/xFahim/DaamKoto/ai"
)

const (
	defaultEmbedModel    = "text-embedding-004"
	defaultGenerateModel = "gemini-2.5-flash"
)

const describePrompt = "Analyze this product image. Describe the item, main color, material, " +
	"and style in 3-4 keywords so I can search my inventory for it. " +
	"Format: 'Product: [Type] | Color: [Color]'."

func NewGeminiAI(ctx context.Context, cfg ai.Config) (*GeminiAI, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})

	if err != nil {
		return nil, err
	}

	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}

	generateModel := cfg.GenerateModel
	if generateModel == "" {
		generateModel = defaultGenerateModel
	}

	return &GeminiAI{
		client:        client,
		embedModel:    embedModel,
		generateModel: generateModel,
		maxTextChars:  cfg.MaxTextChars,
	}, nil
}

type GeminiAI struct {
	client        *genai.Client
	embedModel    string
	generateModel string
	maxTextChars  int
}

func (g *GeminiAI) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ai.ErrEmptyInput
	}

	text = ai.Truncate(text, g.maxTextChars)

	resp, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, err
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("empty embedding response")
	}

	return resp.Embeddings[0].Values, nil
}

// EmbedImage always fails: Gemini's embedding models are text-only.
// Image queries need the vertex multimodal embedder.
func (g *GeminiAI) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	return nil, ai.ErrUnsupportedInput
}

func (g *GeminiAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.generateModel, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty generation response")
	}

	return text, nil
}

func (g *GeminiAI) DescribeImage(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ai.ErrEmptyInput
	}

	parts := []*genai.Part{
		genai.NewPartFromText(describePrompt),
		genai.NewPartFromBytes(image, "image/jpeg"),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.generateModel, contents, nil)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty description response")
	}

	return text, nil
}
