// Package vertex implements the multimodal embedding gateway on the
// Vertex AI multimodalembedding model. Text and image embeddings share a
// 1408-dimension space, which is what makes photo queries comparable
// against an image-embedded catalog.
//
// The GenAI SDK does not expose this :predict endpoint, so the call is
// made over REST with OAuth2 service-account credentials.
package vertex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/xFahim/DaamKoto/ai"
)

const (
	defaultModel    = "multimodalembedding@001"
	defaultLocation = "us-central1"

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

func NewVertexEmbedder(ctx context.Context, cfg ai.Config) (*VertexEmbedder, error) {
	if cfg.CredentialsJSON == "" {
		return nil, errors.New("vertex: missing service account credentials")
	}

	creds, err := google.CredentialsFromJSON(ctx, []byte(cfg.CredentialsJSON), cloudPlatformScope)
	if err != nil {
		return nil, err
	}

	project := cfg.Project
	if project == "" {
		project = creds.ProjectID
	}

	if project == "" {
		return nil, errors.New("vertex: missing project ID")
	}

	location := cfg.Location
	if location == "" {
		location = defaultLocation
	}

	model := cfg.EmbedModel
	if model == "" {
		model = defaultModel
	}

	endpoint := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		location, project, location, model,
	)

	client := oauth2.NewClient(ctx, creds.TokenSource)
	client.Timeout = 30 * time.Second

	return &VertexEmbedder{
		client:       client,
		endpoint:     endpoint,
		maxTextChars: cfg.MaxTextChars,
	}, nil
}

type VertexEmbedder struct {
	client       *http.Client
	endpoint     string
	maxTextChars int
}

type predictRequest struct {
	Instances []instance `json:"instances"`
}

type instance struct {
	Text  string        `json:"text,omitempty"`
	Image *imagePayload `json:"image,omitempty"`
}

type imagePayload struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

type prediction struct {
	TextEmbedding  []float32 `json:"textEmbedding"`
	ImageEmbedding []float32 `json:"imageEmbedding"`
}

func (v *VertexEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ai.ErrEmptyInput
	}

	text = ai.Truncate(text, v.maxTextChars)

	pred, err := v.predict(ctx, instance{Text: text})
	if err != nil {
		return nil, err
	}

	if len(pred.TextEmbedding) == 0 {
		return nil, errors.New("empty text embedding")
	}

	return pred.TextEmbedding, nil
}

func (v *VertexEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	if len(image) == 0 {
		return nil, ai.ErrEmptyInput
	}

	pred, err := v.predict(ctx, instance{
		Image: &imagePayload{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(image),
		},
	})

	if err != nil {
		return nil, err
	}

	if len(pred.ImageEmbedding) == 0 {
		return nil, errors.New("empty image embedding")
	}

	return pred.ImageEmbedding, nil
}

func (v *VertexEmbedder) predict(ctx context.Context, inst instance) (*prediction, error) {
	payload := predictRequest{
		Instances: []instance{inst},
	}

	data, err := json.Marshal(&payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("vertex predict: status %d: %s", resp.StatusCode, body)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if len(result.Predictions) == 0 {
		return nil, errors.New("empty prediction response")
	}

	return &result.Predictions[0], nil
}
