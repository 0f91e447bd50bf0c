package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/types"
)

type StudyMaterialRepo interface {
	Create(ctx context.Context, tx *gorm.DB, material *types.StudyMaterial) (*types.StudyMaterial, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StudyMaterial, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type studyMaterialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyMaterialRepo(db *gorm.DB, baseLog *logger.Logger) StudyMaterialRepo {
	repoLog := baseLog.With("repo", "StudyMaterialRepo")
	return &studyMaterialRepo{db: db, log: repoLog}
}

func (r *studyMaterialRepo) Create(ctx context.Context, tx *gorm.DB, material *types.StudyMaterial) (*types.StudyMaterial, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(material).Error; err != nil {
		return nil, err
	}
	return material, nil
}

func (r *studyMaterialRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StudyMaterial, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.StudyMaterial
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *studyMaterialRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.StudyMaterial{}).Error
}
