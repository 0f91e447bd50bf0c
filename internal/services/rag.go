package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/types"
	"github.com/yungbote/examify-backend/internal/utils"
)

const ragNoResultsAnswer = "Could not find relevant information for your query."

const ragContextDelimiter = "\n\n---\n\n"

// RAGResult carries the generated answer and the vector ids of the chunks
// that grounded it, so feedback can be attached to specific context.
type RAGResult struct {
	Answer           string
	ContextVectorIDs []string
}

type RAGService interface {
	// Answer retrieves the nearest chunks for the query and asks the LLM to
	// answer from them. When retrieval yields nothing usable it returns a
	// fixed fallback answer with no error and makes no LLM call.
	Answer(ctx context.Context, query string) (*RAGResult, error)
	// AnswerImage runs OCR on the image and answers the recognized text like
	// a regular query.
	AnswerImage(ctx context.Context, img []byte) (*RAGResult, error)
}

type ragService struct {
	log       *logger.Logger
	chunkRepo repos.DocumentChunkRepo
	embedder  EmbeddingService
	index     VectorIndexService
	llm       LLMService
	ocr       OCRClient
	topK      int
}

// NewRAGService wires retrieval-augmented answering. ocr may be nil; image
// queries then fail with a config error.
func NewRAGService(
	log *logger.Logger,
	chunkRepo repos.DocumentChunkRepo,
	embedder EmbeddingService,
	index VectorIndexService,
	llm LLMService,
	ocr OCRClient,
) RAGService {
	serviceLog := log.With("service", "RAGService")
	return &ragService{
		log:       serviceLog,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		index:     index,
		llm:       llm,
		ocr:       ocr,
		topK:      utils.GetEnvAsInt("RAG_TOP_K", 3, log),
	}
}

func (s *ragService) Answer(ctx context.Context, query string) (*RAGResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewParseError("empty query", nil)
	}

	queryVec, err := s.embedder.EmbedText(ctx, query, TaskRAGQuery)
	if err != nil {
		s.log.Error("Failed to embed RAG query", "error", err)
		return nil, AsAIError(err)
	}

	neighbors := s.index.QueryNearest(ctx, queryVec, s.topK)
	if len(neighbors) == 0 {
		s.log.Info("RAG query found no neighbors")
		return &RAGResult{Answer: ragNoResultsAnswer}, nil
	}

	vectorIDs := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		vectorIDs = append(vectorIDs, n.VectorID)
	}
	chunks, err := s.chunkRepo.GetByVectorIDs(ctx, nil, vectorIDs)
	if err != nil {
		s.log.Error("Failed to load chunks for RAG query", "error", err)
		return nil, fmt.Errorf("load context chunks: %w", err)
	}

	// Preserve index order and drop neighbors whose chunk row is missing.
	// Stale index entries must never surface in the answer context.
	byVectorID := make(map[string]*types.DocumentChunk, len(chunks))
	for _, c := range chunks {
		byVectorID[c.VectorID] = c
	}
	ordered := make([]*types.DocumentChunk, 0, len(neighbors))
	for _, n := range neighbors {
		c, ok := byVectorID[n.VectorID]
		if !ok {
			s.log.Warn("Skipping orphaned vector id with no chunk row", "vector_id", n.VectorID)
			continue
		}
		ordered = append(ordered, c)
	}
	if len(ordered) == 0 {
		s.log.Warn("All RAG neighbors were orphaned")
		return &RAGResult{Answer: ragNoResultsAnswer}, nil
	}

	contextTexts := make([]string, 0, len(ordered))
	usedVectorIDs := make([]string, 0, len(ordered))
	for _, c := range ordered {
		contextTexts = append(contextTexts, c.ChunkText)
		usedVectorIDs = append(usedVectorIDs, c.VectorID)
	}
	prompt := fmt.Sprintf(
		"Answer the following question based on the provided context.\nQuestion: %s\n\nContext:\n%s\n\nAnswer:",
		query, strings.Join(contextTexts, ragContextDelimiter),
	)

	answer, err := s.llm.Generate(ctx, prompt, TaskRAGQuery)
	if err != nil {
		s.log.Error("RAG generation failed", "error", err)
		return nil, AsAIError(err)
	}

	return &RAGResult{Answer: answer, ContextVectorIDs: usedVectorIDs}, nil
}

func (s *ragService) AnswerImage(ctx context.Context, img []byte) (*RAGResult, error) {
	if s.ocr == nil {
		return nil, NewConfigError("OCR client is not configured")
	}
	if len(img) == 0 {
		return nil, NewParseError("empty image", nil)
	}

	text, err := s.ocr.OCRImageBytes(ctx, img)
	if err != nil {
		s.log.Error("OCR failed for image query", "error", err)
		return nil, NewUpstreamError("OCR failed", err)
	}
	if strings.TrimSpace(text) == "" {
		s.log.Info("Image query contained no recognizable text")
		return &RAGResult{Answer: ragNoResultsAnswer}, nil
	}
	return s.Answer(ctx, text)
}
