package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/utils"
)

type StudyService interface {
	// SummarizeMaterial produces a concise summary of the whole material.
	SummarizeMaterial(ctx context.Context, materialID uuid.UUID) (string, error)
	// ExplainProblem walks through the given problem step by step.
	ExplainProblem(ctx context.Context, problemText string) (string, error)
}

type studyService struct {
	log       *logger.Logger
	chunkRepo repos.DocumentChunkRepo
	llm       LLMService
	maxChars  int
}

func NewStudyService(log *logger.Logger, chunkRepo repos.DocumentChunkRepo, llm LLMService) StudyService {
	serviceLog := log.With("service", "StudyService")
	return &studyService{
		log:       serviceLog,
		chunkRepo: chunkRepo,
		llm:       llm,
		maxChars:  utils.GetEnvAsInt("STUDY_CONTEXT_MAX_CHARS", 24000, log),
	}
}

func (s *studyService) SummarizeMaterial(ctx context.Context, materialID uuid.UUID) (string, error) {
	text, err := s.materialText(ctx, materialID)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf("Summarize the following study material concisely:\n\n%s", text)
	return s.llm.Generate(ctx, prompt, TaskSummarize)
}

func (s *studyService) ExplainProblem(ctx context.Context, problemText string) (string, error) {
	if strings.TrimSpace(problemText) == "" {
		return "", NewParseError("empty problem text", nil)
	}
	prompt := fmt.Sprintf("Explain the following step-by-step:\n\n%s", problemText)
	return s.llm.Generate(ctx, prompt, TaskExplainComplex)
}

// materialText rebuilds the material text from its chunks in sequence order,
// truncated to keep the prompt within the provider's context limits.
func (s *studyService) materialText(ctx context.Context, materialID uuid.UUID) (string, error) {
	chunks, err := s.chunkRepo.GetByStudyMaterialID(ctx, nil, materialID)
	if err != nil {
		return "", fmt.Errorf("load material chunks: %w", err)
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("study material %s has no text", materialID)
	}

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.ChunkText)
		if b.Len() >= s.maxChars {
			s.log.Warn("Material text truncated for prompt", "material_id", materialID, "chunks_used", i+1, "chunks_total", len(chunks))
			break
		}
	}
	text := b.String()
	if len(text) > s.maxChars {
		text = text[:s.maxChars]
	}
	return text, nil
}
