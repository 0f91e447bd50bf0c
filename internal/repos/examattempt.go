package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/types"
)

type ExamAttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *types.ExamAttempt) (*types.ExamAttempt, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ExamAttempt, error)
	Complete(ctx context.Context, tx *gorm.DB, id uuid.UUID, score float64, endTime time.Time) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error
}

type examAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExamAttemptRepo(db *gorm.DB, baseLog *logger.Logger) ExamAttemptRepo {
	repoLog := baseLog.With("repo", "ExamAttemptRepo")
	return &examAttemptRepo{db: db, log: repoLog}
}

func (r *examAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *types.ExamAttempt) (*types.ExamAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *examAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ExamAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.ExamAttempt
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *examAttemptRepo) Complete(ctx context.Context, tx *gorm.DB, id uuid.UUID, score float64, endTime time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ExamAttempt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   types.AttemptStatusCompleted,
			"score":    score,
			"end_time": endTime,
		}).Error
}

func (r *examAttemptRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.ExamAttempt{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

type ExamAnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, answers []*types.ExamAnswer) ([]*types.ExamAnswer, error)
	GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.ExamAnswer, error)
}

type examAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExamAnswerRepo(db *gorm.DB, baseLog *logger.Logger) ExamAnswerRepo {
	repoLog := baseLog.With("repo", "ExamAnswerRepo")
	return &examAnswerRepo{db: db, log: repoLog}
}

func (r *examAnswerRepo) Create(ctx context.Context, tx *gorm.DB, answers []*types.ExamAnswer) ([]*types.ExamAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(answers) == 0 {
		return []*types.ExamAnswer{}, nil
	}
	if err := transaction.WithContext(ctx).Create(answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *examAnswerRepo) GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) ([]*types.ExamAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ExamAnswer
	if err := transaction.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
