package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/types"
)

type AIFeedbackRepo interface {
	Create(ctx context.Context, tx *gorm.DB, feedback *types.AIFeedback) (*types.AIFeedback, error)
}

type aiFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAIFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) AIFeedbackRepo {
	repoLog := baseLog.With("repo", "AIFeedbackRepo")
	return &aiFeedbackRepo{db: db, log: repoLog}
}

// Create persists the feedback row and its context-chunk join rows in one call.
func (r *aiFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback *types.AIFeedback) (*types.AIFeedback, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	// Context chunk rows already exist; only the join rows get written.
	if err := transaction.WithContext(ctx).Omit("ContextChunks.*").Create(feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}
