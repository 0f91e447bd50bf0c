package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/types"
)

// FeedbackInput describes one user rating of an AI interaction. Context
// chunks are referenced by the vector ids the RAG result reported.
type FeedbackInput struct {
	UserID           *uuid.UUID
	SessionID        uuid.UUID
	QueryText        string
	AIResponseText   string
	Rating           *int
	FeedbackComment  string
	InteractionType  string
	AILowConfidence  bool
	ContextVectorIDs []string
}

type FeedbackService interface {
	// Record persists the feedback and, when it signals trouble (a rating of
	// 2 or lower, or low model confidence), flags the context chunks for
	// review.
	Record(ctx context.Context, input FeedbackInput) (*types.AIFeedback, error)
}

type feedbackService struct {
	log          *logger.Logger
	db           *gorm.DB
	feedbackRepo repos.AIFeedbackRepo
	chunkRepo    repos.DocumentChunkRepo
}

func NewFeedbackService(log *logger.Logger, db *gorm.DB, feedbackRepo repos.AIFeedbackRepo, chunkRepo repos.DocumentChunkRepo) FeedbackService {
	return &feedbackService{
		log:          log.With("service", "FeedbackService"),
		db:           db,
		feedbackRepo: feedbackRepo,
		chunkRepo:    chunkRepo,
	}
}

func (s *feedbackService) Record(ctx context.Context, input FeedbackInput) (*types.AIFeedback, error) {
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", *input.Rating)
	}

	var chunks []*types.DocumentChunk
	if len(input.ContextVectorIDs) > 0 {
		loaded, err := s.chunkRepo.GetByVectorIDs(ctx, nil, input.ContextVectorIDs)
		if err != nil {
			return nil, fmt.Errorf("load context chunks: %w", err)
		}
		chunks = loaded
		if len(chunks) < len(input.ContextVectorIDs) {
			s.log.Warn("Some context vector ids were not found", "requested", len(input.ContextVectorIDs), "found", len(chunks))
		}
	}

	feedback := &types.AIFeedback{
		UserID:          input.UserID,
		SessionID:       input.SessionID,
		QueryText:       input.QueryText,
		AIResponseText:  input.AIResponseText,
		Rating:          input.Rating,
		FeedbackComment: input.FeedbackComment,
		InteractionType: input.InteractionType,
		AILowConfidence: input.AILowConfidence,
		ContextChunks:   chunks,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.feedbackRepo.Create(ctx, tx, feedback); err != nil {
			return err
		}
		if !needsReview(input) || len(chunks) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(chunks))
		for _, c := range chunks {
			ids = append(ids, c.ID)
		}
		flagged, err := s.chunkRepo.IncrementReviewFlags(ctx, tx, ids)
		if err != nil {
			return err
		}
		s.log.Info("Flagged context chunks for review", "session_id", input.SessionID, "flagged", flagged)
		return nil
	})
	if err != nil {
		s.log.Error("Failed to record feedback", "session_id", input.SessionID, "error", err)
		return nil, err
	}
	return feedback, nil
}

func needsReview(input FeedbackInput) bool {
	if input.AILowConfidence {
		return true
	}
	return input.Rating != nil && *input.Rating <= 2
}
