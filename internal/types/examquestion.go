package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeShortAnswer    = "short_answer"
	QuestionTypeEssay          = "essay"
)

type ExamQuestion struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"exam_id"`
	Exam          *Exam          `gorm:"constraint:OnDelete:CASCADE;foreignKey:ExamID;references:ID" json:"exam,omitempty"`
	QuestionText  string         `gorm:"column:question_text;not null" json:"question_text"`
	QuestionType  string         `gorm:"column:question_type;not null" json:"question_type"`
	Options       datatypes.JSON `gorm:"column:options" json:"options,omitempty"`
	SourceChunkID *uuid.UUID     `gorm:"type:uuid;index" json:"source_chunk_id,omitempty"`
	SourceChunk   *DocumentChunk `gorm:"constraint:OnDelete:SET NULL;foreignKey:SourceChunkID;references:ID" json:"source_chunk,omitempty"`
	Order         int            `gorm:"column:question_order;not null;default:0" json:"order"`
	Points        float64        `gorm:"column:points;not null;default:1" json:"points"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (ExamQuestion) TableName() string { return "exam_question" }

func (q *ExamQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
