package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/types"
)

type ExamRepo interface {
	Create(ctx context.Context, tx *gorm.DB, exam *types.Exam) (*types.Exam, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Exam, error)
}

type examRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExamRepo(db *gorm.DB, baseLog *logger.Logger) ExamRepo {
	repoLog := baseLog.With("repo", "ExamRepo")
	return &examRepo{db: db, log: repoLog}
}

func (r *examRepo) Create(ctx context.Context, tx *gorm.DB, exam *types.Exam) (*types.Exam, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(exam).Error; err != nil {
		return nil, err
	}
	return exam, nil
}

func (r *examRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Exam, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Exam
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

type ExamQuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, questions []*types.ExamQuestion) ([]*types.ExamQuestion, error)
	GetByExamID(ctx context.Context, tx *gorm.DB, examID uuid.UUID) ([]*types.ExamQuestion, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ExamQuestion, error)
}

type examQuestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExamQuestionRepo(db *gorm.DB, baseLog *logger.Logger) ExamQuestionRepo {
	repoLog := baseLog.With("repo", "ExamQuestionRepo")
	return &examQuestionRepo{db: db, log: repoLog}
}

func (r *examQuestionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.ExamQuestion) ([]*types.ExamQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return []*types.ExamQuestion{}, nil
	}
	if err := transaction.WithContext(ctx).Create(questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *examQuestionRepo) GetByExamID(ctx context.Context, tx *gorm.DB, examID uuid.UUID) ([]*types.ExamQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ExamQuestion
	if err := transaction.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("question_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *examQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ExamQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ExamQuestion
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
