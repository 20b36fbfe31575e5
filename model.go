package daamkoto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xFahim/DaamKoto/ai"
	"github.com/xFahim/DaamKoto/messenger"
	"github.com/xFahim/DaamKoto/vector"
)

var (
	ErrMissingQueryInput = errors.New("query requires text or an image")
	ErrInvalidPageID     = errors.New("invalid page ID")
	ErrInvalidProducts   = errors.New("products must be a non-empty list")
)

// Fixed user-facing replies. The engine maps every absorbed failure to one
// of these; conversational surfaces always receive some text.
const (
	ReplyEmbedFailed = "Sorry, I couldn't process the input to search for products. " +
		"Please try again with a clearer description or photo."

	ReplyCatalogDown = "Sorry, I'm having trouble accessing the product catalog right now. " +
		"Please try again later."

	ReplyGenerateFailed = "I apologize, but I'm having trouble processing your request right now. " +
		"Please try again later or rephrase your question."
)

const (
	DefaultTopK          = 3
	DefaultMaxQueryChars = 2000
	DefaultBatchSize     = 10
)

type Config struct {
	AI        ai.Config        `yaml:"ai"`
	Vector    vector.Config    `yaml:"vector"`
	Messenger messenger.Config `yaml:"messenger"`
	RAG       RAGConfig        `yaml:"rag"`
	Ingest    IngestConfig     `yaml:"ingest"`
}

type RAGConfig struct {
	TopK    int      `yaml:"topK"`
	Timeout Duration `yaml:"timeout"`
}

type IngestConfig struct {
	BatchSize   int      `yaml:"batchSize"`
	EmbedImages bool     `yaml:"embedImages"`
	ImageDelay  Duration `yaml:"imageDelay"`
	ManageIndex bool     `yaml:"manageIndex"`
}

// ApplyDefaults fills the zero-valued knobs with the deployment defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = DefaultTopK
	}

	if cfg.RAG.Timeout <= 0 {
		cfg.RAG.Timeout = Duration(30 * time.Second)
	}

	if cfg.Ingest.BatchSize <= 0 {
		cfg.Ingest.BatchSize = DefaultBatchSize
	}

	if cfg.Vector.BatchSize <= 0 {
		cfg.Vector.BatchSize = DefaultBatchSize
	}

	if cfg.AI.MaxTextChars <= 0 {
		cfg.AI.MaxTextChars = DefaultMaxQueryChars
	}
}

type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	str := d.Duration().String()
	return json.Marshal(str)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() ([]byte, error) {
	str := d.Duration().String()
	return yaml.Marshal(str)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}

// Query is one inbound question. Image takes precedence over text for
// retrieval; the text is still shown to the generator as the question.
type Query struct {
	PageID   string `json:"page_id"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Image    []byte `json:"-"`
}

func (q Query) HasImage() bool {
	return len(q.Image) > 0 || q.ImageURL != ""
}

func (q Query) Namespace() string {
	return Namespace(q.PageID)
}

// Namespace is the tenant partition key inside the vector index.
func Namespace(pageID string) string {
	return "store_" + pageID
}

// Product is a raw catalog record. Source catalogs carry no fixed schema,
// so every field of interest resolves through an ordered fallback chain.
type Product map[string]any

// Resolve returns the first non-empty value among keys, or def.
func (p Product) Resolve(keys []string, def string) string {
	for _, key := range keys {
		v, ok := p[key]
		if !ok || v == nil {
			continue
		}

		var str string
		switch value := v.(type) {
		case string:
			str = value
		default:
			str = fmt.Sprint(value)
		}

		str = strings.TrimSpace(str)
		if str != "" {
			return str
		}
	}

	return def
}

func (p Product) Name() string {
	return p.Resolve([]string{"Product Name", "name"}, "Unknown Product")
}

func (p Product) Price() string {
	return p.Resolve([]string{"price-item", "price"}, "Unknown Price")
}

func (p Product) Stock() string {
	return p.Resolve([]string{"badge"}, "In Stock")
}

func (p Product) ProductURL() string {
	return p.Resolve([]string{"product url", "product_url"}, "")
}

func (p Product) ImageURL() string {
	url := p.Resolve([]string{"motion-reduce src", "image_url", "src"}, "")
	if strings.HasPrefix(url, "//") {
		url = "https:" + url
	}

	return url
}

type IngestResult struct {
	Accepted  int    `json:"accepted"`
	Skipped   int    `json:"skipped"`
	Namespace string `json:"namespace"`
}
