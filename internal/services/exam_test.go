package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/repos/testutil"
	"github.com/yungbote/examify-backend/internal/types"
)

func newTestExamService(t *testing.T, tx *gorm.DB, generator QuestionGenService, grader GradingService) ExamService {
	t.Helper()
	log := testutil.Logger(t)
	return NewExamService(
		testLogger(t),
		tx,
		repos.NewExamRepo(tx, log),
		repos.NewExamQuestionRepo(tx, log),
		repos.NewExamAttemptRepo(tx, log),
		repos.NewExamAnswerRepo(tx, log),
		repos.NewDocumentChunkRepo(tx, log),
		generator,
		grader,
	)
}

func TestSubmitAnswersGradesAndCompletesAttempt(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	exam := testutil.SeedExam(t, ctx, tx, "networking final")
	mcq := testutil.SeedExamQuestion(t, ctx, tx, exam.ID, types.QuestionTypeMultipleChoice, 10, 0,
		map[string]string{"A": "Paris", "B": "London", "correct": "A"})
	essay := testutil.SeedExamQuestion(t, ctx, tx, exam.ID, types.QuestionTypeEssay, 20, 1, nil)
	userID := uuid.New()
	attempt := testutil.SeedExamAttempt(t, ctx, tx, exam.ID, userID)

	grader := &fakeGrader{points: map[string]float64{types.QuestionTypeEssay: 18}}
	svc := newTestExamService(t, tx, &fakeGenerator{}, grader)

	result, err := svc.SubmitAnswers(ctx, attempt.ID, userID, []SubmittedAnswer{
		{QuestionID: mcq.ID, SelectedChoiceKey: "A"},
		{QuestionID: essay.ID, AnswerText: "TCP provides reliable delivery."},
	})
	if err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}

	if result.Score != 28 {
		t.Fatalf("score = %v, want 28 (10 local + 18 graded)", result.Score)
	}
	if result.Attempt.Status != types.AttemptStatusCompleted {
		t.Fatalf("attempt status = %q", result.Attempt.Status)
	}
	if result.Attempt.EndTime == nil {
		t.Fatal("end time not set")
	}

	var stored types.ExamAttempt
	if err := tx.WithContext(ctx).First(&stored, "id = ?", attempt.ID).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if stored.Status != types.AttemptStatusCompleted || stored.Score == nil || *stored.Score != 28 {
		t.Fatalf("persisted attempt = status %q score %v", stored.Status, stored.Score)
	}

	var answers []types.ExamAnswer
	if err := tx.WithContext(ctx).Where("attempt_id = ?", attempt.ID).Find(&answers).Error; err != nil {
		t.Fatalf("load answers: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("got %d answer rows, want 2", len(answers))
	}
	for _, a := range answers {
		switch a.QuestionID {
		case mcq.ID:
			if a.IsCorrect == nil || !*a.IsCorrect {
				t.Fatalf("mcq is_correct = %v, want true", a.IsCorrect)
			}
			if a.PointsAwarded == nil || *a.PointsAwarded != 10 {
				t.Fatalf("mcq points = %v, want 10", a.PointsAwarded)
			}
		case essay.ID:
			if a.PointsAwarded == nil || *a.PointsAwarded != 18 {
				t.Fatalf("essay points = %v, want 18", a.PointsAwarded)
			}
			if a.IsCorrect == nil || !*a.IsCorrect {
				t.Fatalf("essay is_correct = %v, want true (18 >= 10)", a.IsCorrect)
			}
		default:
			t.Fatalf("unexpected answer row for question %s", a.QuestionID)
		}
	}
}

func TestSubmitAnswersWrongChoiceScoresZero(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	exam := testutil.SeedExam(t, ctx, tx, "quiz")
	mcq := testutil.SeedExamQuestion(t, ctx, tx, exam.ID, types.QuestionTypeMultipleChoice, 10, 0,
		map[string]string{"A": "Paris", "B": "London", "correct": "A"})
	userID := uuid.New()
	attempt := testutil.SeedExamAttempt(t, ctx, tx, exam.ID, userID)

	grader := &fakeGrader{}
	svc := newTestExamService(t, tx, &fakeGenerator{}, grader)

	result, err := svc.SubmitAnswers(ctx, attempt.ID, userID, []SubmittedAnswer{
		{QuestionID: mcq.ID, SelectedChoiceKey: "B"},
	})
	if err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}
	if result.Score != 0 {
		t.Fatalf("score = %v, want 0", result.Score)
	}
	if result.Answers[0].IsCorrect == nil || *result.Answers[0].IsCorrect {
		t.Fatalf("is_correct = %v, want false", result.Answers[0].IsCorrect)
	}

	// The grader saw the selected option text, not the raw key.
	if len(grader.calls) != 1 || grader.calls[0].AnswerText != "London" {
		t.Fatalf("grader input = %+v, want option text London", grader.calls)
	}
}

func TestSubmitAnswersSkipsUnknownQuestions(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	exam := testutil.SeedExam(t, ctx, tx, "quiz")
	mcq := testutil.SeedExamQuestion(t, ctx, tx, exam.ID, types.QuestionTypeMultipleChoice, 5, 0,
		map[string]string{"A": "yes", "B": "no", "correct": "A"})
	userID := uuid.New()
	attempt := testutil.SeedExamAttempt(t, ctx, tx, exam.ID, userID)

	svc := newTestExamService(t, tx, &fakeGenerator{}, &fakeGrader{})

	result, err := svc.SubmitAnswers(ctx, attempt.ID, userID, []SubmittedAnswer{
		{QuestionID: uuid.New(), AnswerText: "stray"},
		{QuestionID: mcq.ID, SelectedChoiceKey: "A"},
	})
	if err != nil {
		t.Fatalf("SubmitAnswers: %v", err)
	}
	if len(result.Answers) != 1 {
		t.Fatalf("got %d answers, want 1 (unknown question skipped)", len(result.Answers))
	}
}

func TestSubmitAnswersRejectsCompletedAttempt(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	exam := testutil.SeedExam(t, ctx, tx, "quiz")
	q := testutil.SeedExamQuestion(t, ctx, tx, exam.ID, types.QuestionTypeShortAnswer, 5, 0, nil)
	userID := uuid.New()
	attempt := testutil.SeedExamAttempt(t, ctx, tx, exam.ID, userID)
	if err := tx.Model(&types.ExamAttempt{}).Where("id = ?", attempt.ID).
		UpdateColumn("status", types.AttemptStatusCompleted).Error; err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	svc := newTestExamService(t, tx, &fakeGenerator{}, &fakeGrader{})
	_, err := svc.SubmitAnswers(ctx, attempt.ID, userID, []SubmittedAnswer{{QuestionID: q.ID, AnswerText: "x"}})
	if err == nil {
		t.Fatal("expected error for completed attempt")
	}
}

func TestSubmitAnswersRejectsWrongUser(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	exam := testutil.SeedExam(t, ctx, tx, "quiz")
	q := testutil.SeedExamQuestion(t, ctx, tx, exam.ID, types.QuestionTypeShortAnswer, 5, 0, nil)
	attempt := testutil.SeedExamAttempt(t, ctx, tx, exam.ID, uuid.New())

	svc := newTestExamService(t, tx, &fakeGenerator{}, &fakeGrader{})
	_, err := svc.SubmitAnswers(ctx, attempt.ID, uuid.New(), []SubmittedAnswer{{QuestionID: q.ID, AnswerText: "x"}})
	if err == nil {
		t.Fatal("expected error for foreign attempt")
	}
}

func TestStartAndAbandonAttempt(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	exam := testutil.SeedExam(t, ctx, tx, "quiz")
	userID := uuid.New()

	svc := newTestExamService(t, tx, &fakeGenerator{}, &fakeGrader{})

	attempt, err := svc.StartAttempt(ctx, exam.ID, userID)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if attempt.Status != types.AttemptStatusInProgress {
		t.Fatalf("status = %q", attempt.Status)
	}
	if attempt.StartTime.IsZero() {
		t.Fatal("start time not set")
	}

	if err := svc.AbandonAttempt(ctx, attempt.ID, userID); err != nil {
		t.Fatalf("AbandonAttempt: %v", err)
	}
	var stored types.ExamAttempt
	if err := tx.First(&stored, "id = ?", attempt.ID).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if stored.Status != types.AttemptStatusAbandoned {
		t.Fatalf("status = %q, want abandoned", stored.Status)
	}

	if err := svc.AbandonAttempt(ctx, attempt.ID, userID); err == nil {
		t.Fatal("expected error abandoning a non-in-progress attempt")
	}
}

func TestCreateExamFromGeneratedEnforcesCorrectKey(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	svc := newTestExamService(t, tx, &fakeGenerator{}, &fakeGrader{})

	_, _, err := svc.CreateExamFromGenerated(ctx, &types.Exam{Title: "bad", CreatorID: uuid.New()}, []GeneratedQuestion{
		{
			QuestionText: "Pick one.",
			QuestionType: types.QuestionTypeMultipleChoice,
			Options:      map[string]any{"A": "x", "B": "y", "correct": "Z"},
		},
	})
	if err == nil {
		t.Fatal("expected error for correct key outside options")
	}
}

func TestCreateExamFromMaterialPersistsQuestionsInOrder(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	material := testutil.SeedStudyMaterial(t, ctx, tx, "notes")
	testutil.SeedDocumentChunk(t, ctx, tx, material.ID, 0, "chunk text")

	generator := &fakeGenerator{questions: []GeneratedQuestion{
		{QuestionText: "First?", QuestionType: types.QuestionTypeShortAnswer, Points: 5},
		{QuestionText: "Second?", QuestionType: types.QuestionTypeEssay},
	}}
	svc := newTestExamService(t, tx, generator, &fakeGrader{})

	exam, questions, err := svc.CreateExamFromMaterial(ctx, material.ID, uuid.New(), "generated exam", 2)
	if err != nil {
		t.Fatalf("CreateExamFromMaterial: %v", err)
	}
	if exam.ID == uuid.Nil {
		t.Fatal("exam id not assigned")
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if questions[0].Order != 0 || questions[1].Order != 1 {
		t.Fatalf("orders = %d, %d", questions[0].Order, questions[1].Order)
	}
	if questions[0].Points != 5 {
		t.Fatalf("points = %v, want 5", questions[0].Points)
	}
	if questions[1].Points != 1 {
		t.Fatalf("default points = %v, want 1", questions[1].Points)
	}
}
