package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/types"
)

const (
	gradingFeedbackFallback       = "Grading complete. Please review the awarded points."
	gradingChoiceFeedbackFallback = "Feedback for your choice."
	gradingUnparsedFeedback       = "AI feedback could not be fully parsed or was not provided."
	gradingPointsUndetermined     = " Points could not be determined by AI."
	gradingNoAnswerFeedback       = "No answer provided by the user."
)

const awardedPointsPrefix = "awarded points:"

// GradeInput carries everything the grader needs about one answer.
// ContextText is the source material the question was generated from, when
// known.
type GradeInput struct {
	QuestionText string
	QuestionType string
	AnswerText   string
	MaxPoints    float64
	Options      map[string]any
	ContextText  string
}

// GradeResult is the outcome of grading a single answer. PointsAwarded is nil
// when the AI could not determine a score for an open-ended question and
// always nil for multiple choice, which is scored locally.
type GradeResult struct {
	Feedback      string
	PointsAwarded *float64
}

type GradingService interface {
	// GradeAnswer never fails outright; AI errors degrade to a result whose
	// feedback explains the failure.
	GradeAnswer(ctx context.Context, input GradeInput) *GradeResult
}

type gradingService struct {
	log *logger.Logger
	llm LLMService
}

func NewGradingService(log *logger.Logger, llm LLMService) GradingService {
	return &gradingService{log: log.With("service", "GradingService"), llm: llm}
}

func (s *gradingService) GradeAnswer(ctx context.Context, input GradeInput) *GradeResult {
	if strings.TrimSpace(input.AnswerText) == "" {
		zero := 0.0
		return &GradeResult{Feedback: gradingNoAnswerFeedback, PointsAwarded: &zero}
	}

	raw, err := s.llm.Generate(ctx, buildGradingPrompt(input), TaskGradeAnswer)
	if err != nil {
		s.log.Error("Grading LLM call failed", "question_type", input.QuestionType, "error", err)
		zero := 0.0
		return &GradeResult{
			Feedback:      fmt.Sprintf("Automated grading failed due to an AI service error: %v", err),
			PointsAwarded: &zero,
		}
	}

	feedback, points := s.parseGradingOutput(raw, input.MaxPoints)

	openEnded := input.QuestionType == types.QuestionTypeShortAnswer ||
		input.QuestionType == types.QuestionTypeEssay

	if feedback == "" {
		switch {
		case input.QuestionType == types.QuestionTypeMultipleChoice:
			feedback = gradingChoiceFeedbackFallback
		case points != nil:
			feedback = gradingFeedbackFallback
		default:
			feedback = gradingUnparsedFeedback
		}
	}
	if openEnded && points == nil {
		feedback += gradingPointsUndetermined
	}
	if !openEnded {
		points = nil
	}

	return &GradeResult{Feedback: feedback, PointsAwarded: points}
}

// buildGradingPrompt branches on question type: multiple choice asks for
// explanatory feedback only (points are computed locally), open-ended
// questions ask for the "Awarded Points: X" score line.
func buildGradingPrompt(input GradeInput) string {
	var b strings.Builder
	b.WriteString("Grade the following student answer.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", input.QuestionText)
	if strings.TrimSpace(input.ContextText) != "" {
		fmt.Fprintf(&b, "Source material:\n%s\n", input.ContextText)
	}

	if input.QuestionType == types.QuestionTypeMultipleChoice {
		if opts := renderOptionList(input.Options); opts != "" {
			fmt.Fprintf(&b, "Options:\n%s\n", opts)
		}
		fmt.Fprintf(&b, "Student's selected answer: %s\n\n", input.AnswerText)
		b.WriteString("Provide concise explanatory feedback on the student's choice. Do not award any points.")
		return b.String()
	}

	fmt.Fprintf(&b, "Maximum points: %g\n", input.MaxPoints)
	fmt.Fprintf(&b, "Student answer: %s\n\n", input.AnswerText)
	b.WriteString("Provide concise feedback for the student. ")
	fmt.Fprintf(&b, "On a separate line, state the score exactly as 'Awarded Points: X' where X is between 0 and %g.", input.MaxPoints)
	return b.String()
}

// renderOptionList formats choice options as "key) text" lines in key order.
// The answer key and any explanation never reach the grading model.
func renderOptionList(options map[string]any) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		if k == "correct" || k == "explanation" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s) %v", k, options[k]))
	}
	return strings.Join(lines, "\n")
}

// parseGradingOutput removes every "Awarded Points:" line from the model
// output. The last line with a parsable value wins and is clamped to
// [0, maxPoints]; lines with unparsable values are logged and dropped.
func (s *gradingService) parseGradingOutput(raw string, maxPoints float64) (string, *float64) {
	var points *float64
	feedbackLines := make([]string, 0, 8)

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(trimmed), awardedPointsPrefix) {
			feedbackLines = append(feedbackLines, line)
			continue
		}
		value := strings.TrimSpace(trimmed[len(awardedPointsPrefix):])
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			s.log.Warn("Unparsable awarded points value in grading output", "value", value)
			continue
		}
		if parsed < 0 {
			parsed = 0
		}
		if parsed > maxPoints {
			parsed = maxPoints
		}
		points = &parsed
	}

	return strings.TrimSpace(strings.Join(feedbackLines, "\n")), points
}
