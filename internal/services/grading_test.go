package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/yungbote/examify-backend/internal/types"
)

func newTestGrader(t *testing.T, llm LLMService) GradingService {
	t.Helper()
	return NewGradingService(testLogger(t), llm)
}

func TestGradeAnswerBlankAnswerSkipsLLM(t *testing.T) {
	llm := &fakeLLM{response: "should not be called"}
	grader := newTestGrader(t, llm)

	result := grader.GradeAnswer(context.Background(), GradeInput{
		QuestionText: "What is DNS?",
		QuestionType: types.QuestionTypeShortAnswer,
		AnswerText:   "   \n\t ",
		MaxPoints:    5,
	})

	if llm.calls != 0 {
		t.Fatalf("expected no LLM calls for blank answer, got %d", llm.calls)
	}
	if result.Feedback != "No answer provided by the user." {
		t.Fatalf("feedback = %q", result.Feedback)
	}
	if result.PointsAwarded == nil || *result.PointsAwarded != 0 {
		t.Fatalf("points = %v, want 0", result.PointsAwarded)
	}
}

func TestGradeAnswerParsesAndClampsPoints(t *testing.T) {
	cases := []struct {
		name       string
		response   string
		maxPoints  float64
		wantPoints float64
	}{
		{"plain", "Good answer.\nAwarded Points: 4", 5, 4},
		{"case insensitive", "Solid.\nAWARDED POINTS: 3.5", 5, 3.5},
		{"leading whitespace", "Fine.\n   awarded points: 2", 5, 2},
		{"clamp high", "Over the top.\nAwarded Points: 999", 5, 5},
		{"clamp negative", "Harsh.\nAwarded Points: -3", 5, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &fakeLLM{response: tc.response}
			grader := newTestGrader(t, llm)

			result := grader.GradeAnswer(context.Background(), GradeInput{
				QuestionText: "Explain caching.",
				QuestionType: types.QuestionTypeShortAnswer,
				AnswerText:   "Caching stores results.",
				MaxPoints:    tc.maxPoints,
			})

			if result.PointsAwarded == nil {
				t.Fatalf("points not parsed from %q", tc.response)
			}
			if *result.PointsAwarded != tc.wantPoints {
				t.Fatalf("points = %v, want %v", *result.PointsAwarded, tc.wantPoints)
			}
			if strings.Contains(strings.ToLower(result.Feedback), "awarded points") {
				t.Fatalf("score line leaked into feedback: %q", result.Feedback)
			}
		})
	}
}

func TestGradeAnswerUnparsablePointsDropsLine(t *testing.T) {
	llm := &fakeLLM{response: "Nice try.\nAwarded Points: lots"}
	grader := newTestGrader(t, llm)

	result := grader.GradeAnswer(context.Background(), GradeInput{
		QuestionText: "Explain caching.",
		QuestionType: types.QuestionTypeEssay,
		AnswerText:   "Caching stores results.",
		MaxPoints:    10,
	})

	if result.PointsAwarded != nil {
		t.Fatalf("points = %v, want nil", *result.PointsAwarded)
	}
	if strings.Contains(strings.ToLower(result.Feedback), "awarded points") {
		t.Fatalf("score line leaked into feedback: %q", result.Feedback)
	}
	if !strings.HasPrefix(result.Feedback, "Nice try.") {
		t.Fatalf("feedback text lost: %q", result.Feedback)
	}
	if !strings.HasSuffix(result.Feedback, " Points could not be determined by AI.") {
		t.Fatalf("missing undetermined-points suffix: %q", result.Feedback)
	}
}

func TestGradeAnswerExcludesEveryScoreLineAndLastValueWins(t *testing.T) {
	llm := &fakeLLM{response: "Good work.\nAwarded Points: lots\nAwarded Points: 3\nAwarded Points: 4"}
	grader := newTestGrader(t, llm)

	result := grader.GradeAnswer(context.Background(), GradeInput{
		QuestionText: "Explain caching.",
		QuestionType: types.QuestionTypeShortAnswer,
		AnswerText:   "Caching stores results.",
		MaxPoints:    5,
	})

	if result.PointsAwarded == nil || *result.PointsAwarded != 4 {
		t.Fatalf("points = %v, want 4 (last parsable value)", result.PointsAwarded)
	}
	if result.Feedback != "Good work." {
		t.Fatalf("feedback = %q, want only the non-score line", result.Feedback)
	}
}

func TestGradeAnswerOnlyScoreLineGetsFallbackFeedback(t *testing.T) {
	llm := &fakeLLM{response: "Awarded Points: 3"}
	grader := newTestGrader(t, llm)

	result := grader.GradeAnswer(context.Background(), GradeInput{
		QuestionText: "Explain caching.",
		QuestionType: types.QuestionTypeShortAnswer,
		AnswerText:   "Caching stores results.",
		MaxPoints:    5,
	})

	if result.Feedback != "Grading complete. Please review the awarded points." {
		t.Fatalf("feedback = %q", result.Feedback)
	}
	if result.PointsAwarded == nil || *result.PointsAwarded != 3 {
		t.Fatalf("points = %v, want 3", result.PointsAwarded)
	}
}

func TestGradeAnswerMultipleChoiceNeverReturnsPoints(t *testing.T) {
	llm := &fakeLLM{response: "Correct choice.\nAwarded Points: 5"}
	grader := newTestGrader(t, llm)

	result := grader.GradeAnswer(context.Background(), GradeInput{
		QuestionText: "Pick one.",
		QuestionType: types.QuestionTypeMultipleChoice,
		AnswerText:   "Paris",
		MaxPoints:    5,
		Options:      map[string]any{"A": "Paris", "B": "London", "correct": "A"},
	})

	if result.PointsAwarded != nil {
		t.Fatalf("multiple choice points = %v, want nil", *result.PointsAwarded)
	}
	if result.Feedback != "Correct choice." {
		t.Fatalf("feedback = %q", result.Feedback)
	}
}

func TestGradingPromptMultipleChoiceShape(t *testing.T) {
	llm := &fakeLLM{response: "Correct choice."}
	grader := newTestGrader(t, llm)

	grader.GradeAnswer(context.Background(), GradeInput{
		QuestionText: "What is the capital of France?",
		QuestionType: types.QuestionTypeMultipleChoice,
		AnswerText:   "Paris",
		MaxPoints:    5,
		Options: map[string]any{
			"A":           "Paris",
			"B":           "London",
			"correct":     "A",
			"explanation": "Paris has been the capital since 987.",
		},
	})

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "A) Paris\nB) London") {
		t.Fatalf("options not rendered as key) text lines: %q", prompt)
	}
	if strings.Contains(prompt, "correct") || strings.Contains(prompt, "987") {
		t.Fatalf("answer key or explanation leaked into prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "Student's selected answer: Paris") {
		t.Fatalf("selected answer missing from prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "Do not award any points.") {
		t.Fatalf("feedback-only instruction missing: %q", prompt)
	}
	if strings.Contains(prompt, "Awarded Points") {
		t.Fatalf("score instruction should not appear for multiple choice: %q", prompt)
	}
}

func TestGradingPromptOpenEndedAsksForScoreLine(t *testing.T) {
	llm := &fakeLLM{response: "Fine.\nAwarded Points: 2"}
	grader := newTestGrader(t, llm)

	grader.GradeAnswer(context.Background(), GradeInput{
		QuestionText: "Explain caching.",
		QuestionType: types.QuestionTypeEssay,
		AnswerText:   "Caching stores results.",
		MaxPoints:    10,
	})

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "'Awarded Points: X' where X is between 0 and 10") {
		t.Fatalf("score instruction missing: %q", prompt)
	}
	if !strings.Contains(prompt, "Maximum points: 10") {
		t.Fatalf("maximum points missing: %q", prompt)
	}
}

func TestGradeAnswerLLMFailureDegrades(t *testing.T) {
	llm := &fakeLLM{err: fmt.Errorf("rate limited")}
	grader := newTestGrader(t, llm)

	result := grader.GradeAnswer(context.Background(), GradeInput{
		QuestionText: "Explain caching.",
		QuestionType: types.QuestionTypeEssay,
		AnswerText:   "Caching stores results.",
		MaxPoints:    10,
	})

	if !strings.HasPrefix(result.Feedback, "Automated grading failed due to an AI service error:") {
		t.Fatalf("feedback = %q", result.Feedback)
	}
	if result.PointsAwarded == nil || *result.PointsAwarded != 0 {
		t.Fatalf("points = %v, want 0", result.PointsAwarded)
	}
}
