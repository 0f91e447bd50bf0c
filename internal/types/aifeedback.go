package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AIFeedback struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          *uuid.UUID       `gorm:"type:uuid;index" json:"user_id,omitempty"`
	SessionID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"session_id"`
	QueryText       string           `gorm:"column:query_text" json:"query_text"`
	AIResponseText  string           `gorm:"column:ai_response_text" json:"ai_response_text"`
	Rating          *int             `gorm:"column:rating" json:"rating,omitempty"`
	FeedbackComment string           `gorm:"column:feedback_comment" json:"feedback_comment"`
	InteractionType string           `gorm:"column:interaction_type;index" json:"interaction_type"`
	AILowConfidence bool             `gorm:"column:ai_low_confidence;not null;default:false" json:"ai_low_confidence"`
	ContextChunks   []*DocumentChunk `gorm:"many2many:ai_feedback_context_chunks" json:"context_chunks,omitempty"`
	CreatedAt       time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"not null" json:"updated_at"`
}

func (AIFeedback) TableName() string { return "ai_feedback" }

func (f *AIFeedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.SessionID == uuid.Nil {
		f.SessionID = uuid.New()
	}
	return nil
}
