package daamkoto

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/xFahim/DaamKoto/vector"
)

type fakeEmbedder struct {
	vec        []float32
	textErr    error
	imageErr   error
	failOn     string
	textCalls  int
	imageCalls int
	lastText   string
}

func (e *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.textCalls++
	e.lastText = text

	if e.textErr != nil {
		return nil, e.textErr
	}

	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("embedding rejected")
	}

	return e.vec, nil
}

func (e *fakeEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	e.imageCalls++

	if e.imageErr != nil {
		return nil, e.imageErr
	}

	return e.vec, nil
}

type fakeGenerator struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)

	if g.err != nil {
		return "", g.err
	}

	return g.reply, nil
}

type fakeStore struct {
	matches     []vector.Match
	ensureErr   error
	upsertErr   error
	queryErr    error
	records     map[string][]vector.Record
	upsertCalls int
	queryCalls  int
	namespace   string
	topK        int
}

func (s *fakeStore) EnsureIndex(ctx context.Context, name string, dimension int, metric string) error {
	return s.ensureErr
}

func (s *fakeStore) Upsert(ctx context.Context, namespace string, records []vector.Record) (int, error) {
	s.upsertCalls++

	if s.upsertErr != nil {
		return 0, s.upsertErr
	}

	if s.records == nil {
		s.records = make(map[string][]vector.Record)
	}

	s.records[namespace] = append(s.records[namespace], records...)
	return len(records), nil
}

func (s *fakeStore) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]vector.Match, error) {
	s.queryCalls++
	s.namespace = namespace
	s.topK = topK

	if s.queryErr != nil {
		return nil, s.queryErr
	}

	return s.matches, nil
}

func (s *fakeStore) Close() error {
	return nil
}

type serviceTestSuite struct {
	suite.Suite
	ctx       context.Context
	embedder  *fakeEmbedder
	generator *fakeGenerator
	store     *fakeStore
	svc       Service
}

func (suite *serviceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.embedder = &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	suite.generator = &fakeGenerator{reply: "Sure! The Red Tee is $10."}
	suite.store = &fakeStore{
		matches: []vector.Match{
			{
				Metadata: map[string]string{
					"name":        "Red Tee",
					"price":       "$10",
					"stock":       "In Stock",
					"description": "URL: https://shop.example.com/red-tee - Badge: In Stock",
					"product_url": "https://shop.example.com/red-tee",
				},
				Score: 0.9,
			},
		},
	}

	var cfg Config
	suite.svc = NewService(cfg, suite.embedder, suite.generator, nil, suite.store)
}

func (suite *serviceTestSuite) TestAnswer() {
	query := Query{PageID: "goodybro", Text: "red t-shirt"}

	reply, err := suite.svc.Answer(suite.ctx, query)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("Sure! The Red Tee is $10.", reply)
	suite.Equal("store_goodybro", suite.store.namespace)
	suite.Equal(DefaultTopK, suite.store.topK)

	if !suite.Len(suite.generator.prompts, 1) {
		return
	}

	prompt := suite.generator.prompts[0]
	suite.Contains(prompt, "Name: Red Tee, Price: $10")
	suite.Contains(prompt, "User: red t-shirt")
}

func (suite *serviceTestSuite) TestAnswerMissingInput() {
	_, err := suite.svc.Answer(suite.ctx, Query{PageID: "goodybro"})
	suite.ErrorIs(err, ErrMissingQueryInput)

	suite.Zero(suite.embedder.textCalls)
	suite.Zero(suite.store.queryCalls)
}

func (suite *serviceTestSuite) TestAnswerEmbedFailure() {
	suite.embedder.textErr = errors.New("quota exceeded")

	query := Query{PageID: "goodybro", Text: "red t-shirt"}

	reply, err := suite.svc.Answer(suite.ctx, query)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(ReplyEmbedFailed, reply)
	suite.Zero(suite.store.queryCalls, "retrieval must not run after an embedding failure")
	suite.Zero(suite.generator.calls, "generation must not run after an embedding failure")
}

func (suite *serviceTestSuite) TestAnswerCatalogDown() {
	suite.store.queryErr = errors.New("index unavailable")

	query := Query{PageID: "goodybro", Text: "red t-shirt"}

	reply, err := suite.svc.Answer(suite.ctx, query)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(ReplyCatalogDown, reply)
	suite.Zero(suite.generator.calls)
}

func (suite *serviceTestSuite) TestAnswerNoMatches() {
	suite.store.matches = []vector.Match{}
	suite.generator.reply = "I couldn't find anything like that in our catalog."

	query := Query{PageID: "goodybro", Text: "submarine"}

	reply, err := suite.svc.Answer(suite.ctx, query)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("I couldn't find anything like that in our catalog.", reply)

	if !suite.Len(suite.generator.prompts, 1) {
		return
	}

	// Retrieval misses still go through generation, on the no-context prompt.
	suite.Contains(suite.generator.prompts[0], "No matching products were found")
}

func (suite *serviceTestSuite) TestAnswerGenerateFailure() {
	suite.generator.err = errors.New("model overloaded")

	query := Query{PageID: "goodybro", Text: "red t-shirt"}

	reply, err := suite.svc.Answer(suite.ctx, query)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(ReplyGenerateFailed, reply)
}

func (suite *serviceTestSuite) TestAnswerEmptyGeneration() {
	suite.generator.reply = "   "

	query := Query{PageID: "goodybro", Text: "red t-shirt"}

	reply, err := suite.svc.Answer(suite.ctx, query)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(ReplyGenerateFailed, reply)
}

func (suite *serviceTestSuite) TestAnswerWithImage() {
	query := Query{PageID: "goodybro", Image: []byte{0xFF, 0xD8}}

	reply, err := suite.svc.Answer(suite.ctx, query)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("Sure! The Red Tee is $10.", reply)
	suite.Equal(1, suite.embedder.imageCalls, "image wins for retrieval")
	suite.Zero(suite.embedder.textCalls)

	if !suite.Len(suite.generator.prompts, 1) {
		return
	}

	prompt := suite.generator.prompts[0]
	suite.Contains(prompt, "sent a photo")
	suite.Contains(prompt, "User: Find this product")
}

func (suite *serviceTestSuite) TestSearchProducts() {
	query := Query{PageID: "goodybro", Text: "red t-shirt"}

	matches, err := suite.svc.SearchProducts(suite.ctx, query, 7)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(matches, 1)
	suite.Equal(7, suite.store.topK)
	suite.Zero(suite.generator.calls, "search must not invoke generation")
}

func (suite *serviceTestSuite) TestSearchProductsPropagatesErrors() {
	suite.store.queryErr = errors.New("index unavailable")

	query := Query{PageID: "goodybro", Text: "red t-shirt"}

	_, err := suite.svc.SearchProducts(suite.ctx, query)
	suite.Error(err, "the API surface propagates backend errors")
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(serviceTestSuite))
}
