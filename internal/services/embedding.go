package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/examify-backend/internal/clients/gemini"
	"github.com/yungbote/examify-backend/internal/clients/redis"
	"github.com/yungbote/examify-backend/internal/logger"
)

// EmbeddingClient is the provider-side contract for embeddings. taskType is
// meaningful for providers with asymmetric query/document embeddings.
type EmbeddingClient interface {
	EmbedTexts(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

type EmbeddingService interface {
	// EmbedText embeds a single text or fails with an *AIError.
	EmbedText(ctx context.Context, text string, taskHint string) ([]float32, error)
	// EmbedMany embeds best-effort: blank inputs are skipped and failed items
	// are omitted with a warning, so output length may be less than input
	// length.
	EmbedMany(ctx context.Context, texts []string, taskHint string) [][]float32
	Provider() string
}

type embeddingService struct {
	log      *logger.Logger
	provider string
	client   EmbeddingClient
	cache    redis.EmbeddingCache
}

// NewEmbeddingService resolves the preferred provider once, at construction.
// cache may be nil to disable query-embedding memoization.
func NewEmbeddingService(log *logger.Logger, provider string, openaiClient EmbeddingClient, geminiClient EmbeddingClient, cache redis.EmbeddingCache) (EmbeddingService, error) {
	serviceLog := log.With("service", "EmbeddingService")

	var client EmbeddingClient
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		client = openaiClient
	case "google":
		client = geminiClient
	default:
		return nil, fmt.Errorf("invalid embedding provider %q", provider)
	}
	if client == nil {
		return nil, fmt.Errorf("embedding provider %q selected but its client is not configured", provider)
	}

	return &embeddingService{
		log:      serviceLog,
		provider: strings.ToLower(strings.TrimSpace(provider)),
		client:   client,
		cache:    cache,
	}, nil
}

func (s *embeddingService) Provider() string { return s.provider }

func (s *embeddingService) EmbedText(ctx context.Context, text string, taskHint string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewParseError("no text to embed", nil)
	}
	taskType := taskTypeFor(taskHint)

	if s.cache != nil {
		if vec, ok := s.cache.Get(ctx, s.provider, taskType, text); ok {
			s.log.Debug("Embedding cache hit", "task_type", taskType)
			return vec, nil
		}
	}

	vecs, err := s.client.EmbedTexts(ctx, []string{text}, taskType)
	if err != nil {
		s.log.Error("Embedding call failed", "provider", s.provider, "error", err)
		return nil, NewUpstreamError(fmt.Sprintf("embedding %s call failed", s.provider), err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, NewUpstreamError("embedding provider returned no vector", nil)
	}

	if s.cache != nil {
		s.cache.Set(ctx, s.provider, taskType, text, vecs[0])
	}
	return vecs[0], nil
}

func (s *embeddingService) EmbedMany(ctx context.Context, texts []string, taskHint string) [][]float32 {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			s.log.Warn("Skipping empty text in EmbedMany")
			continue
		}
		vec, err := s.EmbedText(ctx, t, taskHint)
		if err != nil {
			s.log.Warn("Skipping text due to embedding error", "error", err, "text_prefix", prefix(t, 100))
			continue
		}
		out = append(out, vec)
	}
	return out
}

// taskTypeFor maps pipeline task hints to embedding task types. Queries embed
// asymmetrically from documents where the provider supports it.
func taskTypeFor(taskHint string) string {
	switch taskHint {
	case TaskRAGQuery, "query":
		return gemini.TaskTypeRetrievalQuery
	default:
		return gemini.TaskTypeRetrievalDocument
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
