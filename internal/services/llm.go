package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/examify-backend/internal/logger"
)

// Task hints select the system instruction sent alongside a prompt.
const (
	TaskSummarize         = "summarize"
	TaskExplainComplex    = "explain_complex"
	TaskGenerateQuestions = "generate_questions"
	TaskRAGQuery          = "rag_query"
	TaskGradeAnswer       = "grade_answer"
	TaskGeneralQuery      = "general_query"
)

// ChatClient is the provider-side contract for text generation. Both the
// OpenAI and Gemini clients satisfy it.
type ChatClient interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type LLMService interface {
	Generate(ctx context.Context, prompt string, taskHint string) (string, error)
}

type llmService struct {
	log      *logger.Logger
	provider string
	chat     ChatClient
}

// NewLLMService resolves the preferred provider once, at construction; calls
// never consult configuration again.
func NewLLMService(log *logger.Logger, provider string, openaiClient ChatClient, geminiClient ChatClient) (LLMService, error) {
	serviceLog := log.With("service", "LLMService")

	var chat ChatClient
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		chat = openaiClient
	case "google":
		chat = geminiClient
	default:
		return nil, fmt.Errorf("invalid LLM provider %q", provider)
	}
	if chat == nil {
		return nil, fmt.Errorf("LLM provider %q selected but its client is not configured", provider)
	}

	return &llmService{
		log:      serviceLog,
		provider: strings.ToLower(strings.TrimSpace(provider)),
		chat:     chat,
	}, nil
}

func (s *llmService) Generate(ctx context.Context, prompt string, taskHint string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", NewParseError("empty prompt", nil)
	}

	s.log.Info("Getting LLM response", "provider", s.provider, "task", taskHint)

	text, err := s.chat.GenerateText(ctx, systemInstructionFor(taskHint), prompt)
	if err != nil {
		s.log.Error("LLM call failed", "provider", s.provider, "task", taskHint, "error", err)
		return "", NewUpstreamError(fmt.Sprintf("LLM %s call failed", s.provider), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.log.Warn("LLM response was empty", "provider", s.provider, "task", taskHint)
		return "", NewParseError("LLM response was empty", nil)
	}
	return text, nil
}

func systemInstructionFor(taskHint string) string {
	switch taskHint {
	case TaskSummarize:
		return "You are an AI assistant skilled in summarizing texts concisely."
	case TaskExplainComplex:
		return "You are an AI assistant skilled in explaining complex topics clearly and step-by-step."
	case TaskGenerateQuestions:
		return "You are an AI assistant skilled in generating relevant exam questions from a given text."
	case TaskRAGQuery:
		return "You are an AI assistant answering questions based on provided context."
	case TaskGradeAnswer:
		return "You are an AI grading assistant evaluating student answers fairly and consistently."
	default:
		return fmt.Sprintf("You are an AI assistant performing a %s task.", taskHint)
	}
}
