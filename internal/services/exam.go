package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/types"
	"github.com/yungbote/examify-backend/internal/utils"
)

// SubmittedAnswer is one answer in a submitted attempt. SelectedChoiceKey is
// set for multiple choice, AnswerText for open-ended questions.
type SubmittedAnswer struct {
	QuestionID        uuid.UUID
	AnswerText        string
	SelectedChoiceKey string
}

type SubmitResult struct {
	Attempt *types.ExamAttempt
	Answers []*types.ExamAnswer
	Score   float64
}

type ExamService interface {
	// CreateExamFromMaterial generates questions from the material's chunks
	// and persists the exam with its questions.
	CreateExamFromMaterial(ctx context.Context, materialID uuid.UUID, creatorID uuid.UUID, title string, numQuestions int) (*types.Exam, []*types.ExamQuestion, error)
	// CreateExamFromGenerated persists already-generated questions under a new
	// exam. Multiple choice questions whose correct key is not among the
	// options are rejected.
	CreateExamFromGenerated(ctx context.Context, exam *types.Exam, generated []GeneratedQuestion) (*types.Exam, []*types.ExamQuestion, error)
	GetExam(ctx context.Context, examID uuid.UUID) (*types.Exam, []*types.ExamQuestion, error)
	StartAttempt(ctx context.Context, examID uuid.UUID, userID uuid.UUID) (*types.ExamAttempt, error)
	AbandonAttempt(ctx context.Context, attemptID uuid.UUID, userID uuid.UUID) error
	// SubmitAnswers grades every submitted answer, totals the score and marks
	// the attempt completed. Multiple choice is scored locally; open-ended
	// questions go through the AI grader with bounded parallelism.
	SubmitAnswers(ctx context.Context, attemptID uuid.UUID, userID uuid.UUID, submissions []SubmittedAnswer) (*SubmitResult, error)
}

type examService struct {
	log          *logger.Logger
	db           *gorm.DB
	examRepo     repos.ExamRepo
	questionRepo repos.ExamQuestionRepo
	attemptRepo  repos.ExamAttemptRepo
	answerRepo   repos.ExamAnswerRepo
	chunkRepo    repos.DocumentChunkRepo
	generator    QuestionGenService
	grader       GradingService
	concurrency  int
}

func NewExamService(
	log *logger.Logger,
	db *gorm.DB,
	examRepo repos.ExamRepo,
	questionRepo repos.ExamQuestionRepo,
	attemptRepo repos.ExamAttemptRepo,
	answerRepo repos.ExamAnswerRepo,
	chunkRepo repos.DocumentChunkRepo,
	generator QuestionGenService,
	grader GradingService,
) ExamService {
	serviceLog := log.With("service", "ExamService")
	return &examService{
		log:          serviceLog,
		db:           db,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		chunkRepo:    chunkRepo,
		generator:    generator,
		grader:       grader,
		concurrency:  utils.GetEnvAsInt("GRADE_CONCURRENCY", 4, log),
	}
}

func (s *examService) CreateExamFromMaterial(ctx context.Context, materialID uuid.UUID, creatorID uuid.UUID, title string, numQuestions int) (*types.Exam, []*types.ExamQuestion, error) {
	chunks, err := s.chunkRepo.GetByStudyMaterialID(ctx, nil, materialID)
	if err != nil {
		return nil, nil, fmt.Errorf("load material chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("study material %s has no chunks to generate from", materialID)
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.ChunkText)
	}
	generated, err := s.generator.Generate(ctx, strings.Join(texts, "\n\n"), numQuestions, nil)
	if err != nil {
		return nil, nil, err
	}

	exam := &types.Exam{Title: title, CreatorID: creatorID}
	return s.CreateExamFromGenerated(ctx, exam, generated)
}

func (s *examService) CreateExamFromGenerated(ctx context.Context, exam *types.Exam, generated []GeneratedQuestion) (*types.Exam, []*types.ExamQuestion, error) {
	if exam == nil {
		return nil, nil, fmt.Errorf("exam required")
	}
	if len(generated) == 0 {
		return nil, nil, fmt.Errorf("no questions to persist")
	}

	questions := make([]*types.ExamQuestion, 0, len(generated))
	for i, g := range generated {
		if g.QuestionType == types.QuestionTypeMultipleChoice {
			if err := checkCorrectKey(g.Options); err != nil {
				return nil, nil, fmt.Errorf("question %d: %w", i, err)
			}
		}
		q := &types.ExamQuestion{
			QuestionText:  g.QuestionText,
			QuestionType:  g.QuestionType,
			SourceChunkID: g.SourceChunkID,
			Order:         i,
			Points:        g.Points,
		}
		if q.Points <= 0 {
			q.Points = 1
		}
		if len(g.Options) > 0 {
			raw, err := json.Marshal(g.Options)
			if err != nil {
				return nil, nil, fmt.Errorf("encode options for question %d: %w", i, err)
			}
			q.Options = datatypes.JSON(raw)
		}
		questions = append(questions, q)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.examRepo.Create(ctx, tx, exam); err != nil {
			return err
		}
		for _, q := range questions {
			q.ExamID = exam.ID
		}
		_, err := s.questionRepo.Create(ctx, tx, questions)
		return err
	})
	if err != nil {
		s.log.Error("Failed to persist exam", "title", exam.Title, "error", err)
		return nil, nil, err
	}

	s.log.Info("Exam created", "exam_id", exam.ID, "questions", len(questions))
	return exam, questions, nil
}

func (s *examService) GetExam(ctx context.Context, examID uuid.UUID) (*types.Exam, []*types.ExamQuestion, error) {
	exam, err := s.examRepo.GetByID(ctx, nil, examID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.questionRepo.GetByExamID(ctx, nil, examID)
	if err != nil {
		return nil, nil, err
	}
	return exam, questions, nil
}

func (s *examService) StartAttempt(ctx context.Context, examID uuid.UUID, userID uuid.UUID) (*types.ExamAttempt, error) {
	if _, err := s.examRepo.GetByID(ctx, nil, examID); err != nil {
		return nil, fmt.Errorf("exam %s: %w", examID, err)
	}
	attempt := &types.ExamAttempt{
		ExamID: examID,
		UserID: userID,
		Status: types.AttemptStatusInProgress,
	}
	return s.attemptRepo.Create(ctx, nil, attempt)
}

func (s *examService) AbandonAttempt(ctx context.Context, attemptID uuid.UUID, userID uuid.UUID) error {
	attempt, err := s.attemptRepo.GetByID(ctx, nil, attemptID)
	if err != nil {
		return fmt.Errorf("attempt %s: %w", attemptID, err)
	}
	if attempt.UserID != userID {
		return fmt.Errorf("attempt %s does not belong to user %s", attemptID, userID)
	}
	if attempt.Status != types.AttemptStatusInProgress {
		return fmt.Errorf("attempt %s is %s, not in progress", attemptID, attempt.Status)
	}
	return s.attemptRepo.UpdateStatus(ctx, nil, attemptID, types.AttemptStatusAbandoned)
}

func (s *examService) SubmitAnswers(ctx context.Context, attemptID uuid.UUID, userID uuid.UUID, submissions []SubmittedAnswer) (*SubmitResult, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, nil, attemptID)
	if err != nil {
		return nil, fmt.Errorf("attempt %s: %w", attemptID, err)
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("attempt %s does not belong to user %s", attemptID, userID)
	}
	if attempt.Status != types.AttemptStatusInProgress {
		return nil, fmt.Errorf("attempt %s is %s, not in progress", attemptID, attempt.Status)
	}

	questions, err := s.questionRepo.GetByExamID(ctx, nil, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("load exam questions: %w", err)
	}
	questionsByID := make(map[uuid.UUID]*types.ExamQuestion, len(questions))
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	valid := make([]gradable, 0, len(submissions))
	for _, sub := range submissions {
		question, ok := questionsByID[sub.QuestionID]
		if !ok {
			s.log.Warn("Submission references question not in this exam", "attempt_id", attemptID, "question_id", sub.QuestionID)
			continue
		}
		valid = append(valid, gradable{question: question, sub: sub})
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid answers in submission")
	}

	contextByChunk, err := s.loadSourceChunkTexts(ctx, valid)
	if err != nil {
		return nil, err
	}

	answers := make([]*types.ExamAnswer, len(valid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, v := range valid {
		i, v := i, v
		g.Go(func() error {
			answers[i] = s.gradeSubmission(gctx, v.question, v.sub, contextByChunk)
			answers[i].AttemptID = attemptID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var score float64
	for _, a := range answers {
		if a.PointsAwarded != nil {
			score += *a.PointsAwarded
		}
	}

	endTime := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.answerRepo.Create(ctx, tx, answers); err != nil {
			return err
		}
		return s.attemptRepo.Complete(ctx, tx, attemptID, score, endTime)
	})
	if err != nil {
		s.log.Error("Failed to persist submitted attempt", "attempt_id", attemptID, "error", err)
		return nil, err
	}

	attempt.Status = types.AttemptStatusCompleted
	attempt.Score = &score
	attempt.EndTime = &endTime

	s.log.Info("Attempt submitted", "attempt_id", attemptID, "answers", len(answers), "score", score)
	return &SubmitResult{Attempt: attempt, Answers: answers, Score: score}, nil
}

// gradeSubmission scores one answer. Multiple choice correctness and points
// come from the stored options, never the model; the grader only contributes
// feedback there. Open-ended questions take both feedback and points from the
// grader.
func (s *examService) gradeSubmission(ctx context.Context, question *types.ExamQuestion, sub SubmittedAnswer, contextByChunk map[uuid.UUID]string) *types.ExamAnswer {
	answer := &types.ExamAnswer{
		QuestionID:        question.ID,
		AnswerText:        sub.AnswerText,
		SelectedChoiceKey: sub.SelectedChoiceKey,
	}

	options := decodeOptions(question.Options)
	input := GradeInput{
		QuestionText: question.QuestionText,
		QuestionType: question.QuestionType,
		AnswerText:   sub.AnswerText,
		MaxPoints:    question.Points,
		Options:      options,
	}
	if question.SourceChunkID != nil {
		input.ContextText = contextByChunk[*question.SourceChunkID]
	}

	if question.QuestionType == types.QuestionTypeMultipleChoice {
		correctKey, _ := options["correct"].(string)
		isCorrect := sub.SelectedChoiceKey != "" && sub.SelectedChoiceKey == correctKey
		points := 0.0
		if isCorrect {
			points = question.Points
		}
		answer.IsCorrect = &isCorrect
		answer.PointsAwarded = &points

		// Grade the choice text when available so the feedback reads like a
		// response to the answer, not to an opaque key.
		input.AnswerText = sub.SelectedChoiceKey
		if text, ok := options[sub.SelectedChoiceKey].(string); ok {
			input.AnswerText = text
		}
		result := s.grader.GradeAnswer(ctx, input)
		answer.Feedback = result.Feedback
		return answer
	}

	result := s.grader.GradeAnswer(ctx, input)
	answer.Feedback = result.Feedback
	answer.PointsAwarded = result.PointsAwarded
	if result.PointsAwarded != nil {
		isCorrect := *result.PointsAwarded >= question.Points/2
		answer.IsCorrect = &isCorrect
	}
	return answer
}

type gradable struct {
	question *types.ExamQuestion
	sub      SubmittedAnswer
}

// loadSourceChunkTexts fetches the chunks the answered questions were
// generated from, keyed by chunk id, for grading context.
func (s *examService) loadSourceChunkTexts(ctx context.Context, valid []gradable) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(valid))
	seen := make(map[uuid.UUID]bool, len(valid))
	for _, v := range valid {
		if v.question.SourceChunkID == nil || seen[*v.question.SourceChunkID] {
			continue
		}
		seen[*v.question.SourceChunkID] = true
		ids = append(ids, *v.question.SourceChunkID)
	}
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	chunks, err := s.chunkRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load source chunks: %w", err)
	}
	for _, c := range chunks {
		out[c.ID] = c.ChunkText
	}
	return out, nil
}

func checkCorrectKey(options map[string]any) error {
	correct, ok := options["correct"].(string)
	if !ok || strings.TrimSpace(correct) == "" {
		return fmt.Errorf("multiple choice question has no correct key")
	}
	if _, ok := options[correct]; !ok {
		return fmt.Errorf("correct key %q is not among the options", correct)
	}
	return nil
}

func decodeOptions(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var options map[string]any
	if err := json.Unmarshal(raw, &options); err != nil {
		return map[string]any{}
	}
	return options
}
