package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/types"
)

// GeneratedQuestion is one validated question parsed from model output.
// SourceChunkID records which chunk the source text came from, when the
// caller generates per chunk.
type GeneratedQuestion struct {
	QuestionText  string         `json:"question_text"`
	QuestionType  string         `json:"question_type"`
	Options       map[string]any `json:"options,omitempty"`
	Points        float64        `json:"points,omitempty"`
	SourceChunkID *uuid.UUID     `json:"-"`
}

// GenerationError reports that no valid questions could be parsed and carries
// the raw model output for inspection.
type GenerationError struct {
	Reason    string
	RawOutput string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("question generation failed: %s", e.Reason)
}

type QuestionGenService interface {
	// Generate asks the LLM for count questions grounded in sourceText and
	// returns the subset that passed validation. allowedTypes restricts the
	// question types requested and accepted; empty means all. It fails with a
	// *GenerationError when nothing valid could be parsed.
	Generate(ctx context.Context, sourceText string, count int, allowedTypes []string) ([]GeneratedQuestion, error)
}

type questionGenService struct {
	log *logger.Logger
	llm LLMService
}

func NewQuestionGenService(log *logger.Logger, llm LLMService) QuestionGenService {
	return &questionGenService{log: log.With("service", "QuestionGenService"), llm: llm}
}

func (s *questionGenService) Generate(ctx context.Context, sourceText string, count int, allowedTypes []string) ([]GeneratedQuestion, error) {
	if strings.TrimSpace(sourceText) == "" {
		return nil, NewParseError("no source text for question generation", nil)
	}
	if count <= 0 {
		count = 5
	}
	if len(allowedTypes) == 0 {
		allowedTypes = []string{
			types.QuestionTypeMultipleChoice,
			types.QuestionTypeShortAnswer,
			types.QuestionTypeEssay,
		}
	}

	prompt := buildGenerationPrompt(sourceText, count, allowedTypes)
	raw, err := s.llm.Generate(ctx, prompt, TaskGenerateQuestions)
	if err != nil {
		return nil, AsAIError(err)
	}

	questions, err := extractJSONQuestions(raw, allowedTypes)
	if err != nil {
		s.log.Error("Question generation output unusable", "error", err)
		return nil, &GenerationError{Reason: err.Error(), RawOutput: raw}
	}

	s.log.Info("Generated questions", "requested", count, "valid", len(questions))
	return questions, nil
}

func buildGenerationPrompt(sourceText string, count int, allowedTypes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d exam questions from the following text.\n\n", count)
	fmt.Fprintf(&b, "Text:\n%s\n\n", sourceText)
	b.WriteString("Respond with a JSON array only. Each element must have \"question_text\" and \"question_type\" ")
	fmt.Fprintf(&b, "(one of %s). ", strings.Join(quoteAll(allowedTypes), ", "))
	b.WriteString("Multiple choice questions must include an \"options\" object mapping choice keys to text ")
	b.WriteString("plus a \"correct\" key naming the correct choice.")
	return b.String()
}

func quoteAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strconv.Quote(v))
	}
	return out
}

// extractJSONQuestions recovers validated questions from model output. Three
// attempts in order: the fence-stripped text as-is, the widest [...] span,
// then the widest {...} span wrapped as a single-element array. Invalid
// elements are dropped; zero valid elements is an error.
func extractJSONQuestions(raw string, allowedTypes []string) ([]GeneratedQuestion, error) {
	elements, err := extractJSONElements(raw)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}

	questions := make([]GeneratedQuestion, 0, len(elements))
	for _, el := range elements {
		q, err := validateQuestionElement(el, allowed)
		if err != nil {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no valid questions in model output")
	}
	return questions, nil
}

func extractJSONElements(raw string) ([]json.RawMessage, error) {
	cleaned := stripCodeFence(raw)

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &elements); err == nil {
		return elements, nil
	}

	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &elements); err == nil {
			return elements, nil
		}
	}

	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		var single json.RawMessage
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &single); err == nil {
			return []json.RawMessage{single}, nil
		}
	}

	return nil, fmt.Errorf("no parseable JSON found in model output")
}

func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

func validateQuestionElement(el json.RawMessage, allowed map[string]bool) (GeneratedQuestion, error) {
	var q GeneratedQuestion
	if err := json.Unmarshal(el, &q); err != nil {
		return GeneratedQuestion{}, fmt.Errorf("element is not an object: %w", err)
	}
	if strings.TrimSpace(q.QuestionText) == "" {
		return GeneratedQuestion{}, fmt.Errorf("missing question_text")
	}
	if strings.TrimSpace(q.QuestionType) == "" {
		return GeneratedQuestion{}, fmt.Errorf("missing question_type")
	}
	if !allowed[q.QuestionType] {
		return GeneratedQuestion{}, fmt.Errorf("question_type %q not allowed", q.QuestionType)
	}
	if q.QuestionType == types.QuestionTypeMultipleChoice {
		if len(q.Options) == 0 {
			return GeneratedQuestion{}, fmt.Errorf("multiple choice question has no options")
		}
		if _, ok := q.Options["correct"]; !ok {
			return GeneratedQuestion{}, fmt.Errorf("multiple choice question has no correct key")
		}
	}
	return q, nil
}
