package ai

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedInput means the configured embedding model cannot
	// handle the given modality (e.g. an image against a text-only model).
	ErrUnsupportedInput = errors.New("unsupported embedding input")

	ErrEmptyInput = errors.New("empty embedding input")
)

type Config struct {
	Provider        string `yaml:"provider"`
	APIKey          string `yaml:"apiKey"`
	EmbedModel      string `yaml:"embedModel"`
	GenerateModel   string `yaml:"generateModel"`
	MaxTextChars    int    `yaml:"maxTextChars"`
	Project         string `yaml:"project"`
	Location        string `yaml:"location"`
	CredentialsJSON string `yaml:"credentialsJSON"`
}

// Embedder converts text or image bytes into a fixed-dimension vector.
// Text and image embeddings from one Embedder share a vector space.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
}

// Generator is a single-shot prompt-to-text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Describer turns a product photo into a short searchable description.
type Describer interface {
	DescribeImage(ctx context.Context, image []byte) (string, error)
}

// Truncate keeps the first n characters of s. Embedding backends cap
// input length; truncation is silent and prefix-preserving.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
