package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/yungbote/examify-backend/internal/clients/pinecone"
	"github.com/yungbote/examify-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
	tasks    []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, taskHint string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.tasks = append(f.tasks, taskHint)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeChatClient struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeChatClient) GenerateText(ctx context.Context, system string, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.response, f.err
}

type fakeEmbeddingClient struct {
	vec       []float32
	err       error
	calls     int
	lastTexts []string
	lastTask  string
}

func (f *fakeEmbeddingClient) EmbedTexts(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.calls++
	f.lastTexts = texts
	f.lastTask = taskType
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

type fakeEmbedder struct {
	vec      []float32
	err      error
	failFor  map[string]bool
	provider string
	calls    int
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string, taskHint string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failFor[text] {
		return nil, fmt.Errorf("embedding failed for %q", text)
	}
	return f.vec, nil
}

func (f *fakeEmbedder) EmbedMany(ctx context.Context, texts []string, taskHint string) [][]float32 {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := f.EmbedText(ctx, t, taskHint)
		if err != nil {
			continue
		}
		out = append(out, vec)
	}
	return out
}

func (f *fakeEmbedder) Provider() string {
	if f.provider == "" {
		return "openai"
	}
	return f.provider
}

type fakeIndex struct {
	mu        sync.Mutex
	neighbors []Neighbor
	upserted  []ChunkVector
	deleted   []string
	upsertErr error
	deleteErr error
}

func (f *fakeIndex) UpsertChunks(ctx context.Context, items []ChunkVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, items...)
	return nil
}

func (f *fakeIndex) QueryNearest(ctx context.Context, vec []float32, k int) []Neighbor {
	if len(f.neighbors) > k {
		return f.neighbors[:k]
	}
	return f.neighbors
}

func (f *fakeIndex) DeleteIDs(ctx context.Context, vectorIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, vectorIDs...)
	return nil
}

type fakeVectorStore struct {
	upserted []pinecone.Vector
	matches  []pinecone.Match
	queryErr error
	deleted  []string
}

func (f *fakeVectorStore) Upsert(ctx context.Context, namespace string, vectors []pinecone.Vector) error {
	f.upserted = append(f.upserted, vectors...)
	return nil
}

func (f *fakeVectorStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]pinecone.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

type fakeGrader struct {
	mu     sync.Mutex
	points map[string]float64
	calls  []GradeInput
}

func (f *fakeGrader) GradeAnswer(ctx context.Context, input GradeInput) *GradeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, input)
	result := &GradeResult{Feedback: "feedback for " + input.QuestionType}
	if input.QuestionType == "multiple_choice" {
		return result
	}
	if p, ok := f.points[input.QuestionType]; ok {
		result.PointsAwarded = &p
	}
	return result
}

type fakeGenerator struct {
	questions []GeneratedQuestion
	err       error
}

func (f *fakeGenerator) Generate(ctx context.Context, sourceText string, count int, allowedTypes []string) ([]GeneratedQuestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) OCRImageBytes(ctx context.Context, img []byte) (string, error) {
	return f.text, f.err
}

type fakeCache struct {
	store map[string][]float32
	gets  int
	sets  int
}

func (f *fakeCache) key(provider, taskType, text string) string {
	return provider + "|" + taskType + "|" + text
}

func (f *fakeCache) Get(ctx context.Context, provider, taskType, text string) ([]float32, bool) {
	f.gets++
	vec, ok := f.store[f.key(provider, taskType, text)]
	return vec, ok
}

func (f *fakeCache) Set(ctx context.Context, provider, taskType, text string, vec []float32) {
	f.sets++
	if f.store == nil {
		f.store = map[string][]float32{}
	}
	f.store[f.key(provider, taskType, text)] = vec
}

func (f *fakeCache) Close() error { return nil }
