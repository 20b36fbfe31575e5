package daamkoto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestConfigYAMLUnmarshal(t *testing.T) {
	assert := assert.New(t)

	input := `ai:
  provider: gemini
  embedModel: text-embedding-004
vector:
  provider: chromem
  index: products
  dimension: 768
rag:
  topK: 5
  timeout: 45s
ingest:
  batchSize: 20
  imageDelay: 1s`

	var cfg Config
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("gemini", cfg.AI.Provider)
	assert.Equal("products", cfg.Vector.Index)
	assert.Equal(768, cfg.Vector.Dimension)
	assert.Equal(5, cfg.RAG.TopK)
	assert.Equal(45*time.Second, cfg.RAG.Timeout.Duration())
	assert.Equal(20, cfg.Ingest.BatchSize)
	assert.Equal(time.Second, cfg.Ingest.ImageDelay.Duration())
}

func TestConfigApplyDefaults(t *testing.T) {
	assert := assert.New(t)

	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(DefaultTopK, cfg.RAG.TopK)
	assert.Equal(30*time.Second, cfg.RAG.Timeout.Duration())
	assert.Equal(DefaultBatchSize, cfg.Ingest.BatchSize)
	assert.Equal(DefaultBatchSize, cfg.Vector.BatchSize)
	assert.Equal(DefaultMaxQueryChars, cfg.AI.MaxTextChars)
}

func TestDurationJSONRoundTrip(t *testing.T) {
	assert := assert.New(t)

	var d Duration
	if err := json.Unmarshal([]byte(`"90s"`), &d); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(90*time.Second, d.Duration())

	data, err := json.Marshal(d)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(`"1m30s"`, string(data))
}

func TestProductResolveFallbacks(t *testing.T) {
	assert := assert.New(t)

	product := Product{
		"Product Name": "Red Tee",
		"name":         "ignored",
		"price":        "$10",
		"src":          "//cdn.example.com/red-tee.jpg",
	}

	assert.Equal("Red Tee", product.Name(), "Product Name wins over name")
	assert.Equal("$10", product.Price())
	assert.Equal("In Stock", product.Stock(), "badge absent falls back to In Stock")
	assert.Equal("", product.ProductURL())
	assert.Equal("https://cdn.example.com/red-tee.jpg", product.ImageURL(), "protocol-relative URL gets https")
}

func TestProductResolveDefaults(t *testing.T) {
	assert := assert.New(t)

	product := Product{
		"name":  "   ",
		"price": 10.5,
	}

	assert.Equal("Unknown Product", product.Name(), "blank values do not resolve")
	assert.Equal("10.5", product.Price(), "non-string values are stringified")
	assert.Equal("Unknown Price", Product{}.Price())
}

func TestNamespace(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("store_goodybro", Namespace("goodybro"))

	query := Query{PageID: "goodybro", Text: "red t-shirt"}
	assert.Equal("store_goodybro", query.Namespace())
	assert.False(query.HasImage())

	query.ImageURL = "https://example.com/a.jpg"
	assert.True(query.HasImage())
}
