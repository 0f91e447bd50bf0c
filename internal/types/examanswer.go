package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamAnswer struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"attempt_id"`
	Attempt           *ExamAttempt  `gorm:"constraint:OnDelete:CASCADE;foreignKey:AttemptID;references:ID" json:"attempt,omitempty"`
	QuestionID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"question_id"`
	Question          *ExamQuestion `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	AnswerText        string        `gorm:"column:answer_text" json:"answer_text"`
	SelectedChoiceKey string        `gorm:"column:selected_choice_key" json:"selected_choice_key"`
	IsCorrect         *bool         `gorm:"column:is_correct" json:"is_correct,omitempty"`
	PointsAwarded     *float64      `gorm:"column:points_awarded" json:"points_awarded,omitempty"`
	Feedback          string        `gorm:"column:feedback" json:"feedback"`
	CreatedAt         time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null" json:"updated_at"`
}

func (ExamAnswer) TableName() string { return "exam_answer" }

func (a *ExamAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
