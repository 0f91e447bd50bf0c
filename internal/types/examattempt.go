package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
	AttemptStatusAbandoned  = "abandoned"
)

type ExamAttempt struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"exam_id"`
	Exam      *Exam      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ExamID;references:ID" json:"exam,omitempty"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Status    string     `gorm:"column:status;not null;default:in_progress" json:"status"`
	Score     *float64   `gorm:"column:score" json:"score,omitempty"`
	StartTime time.Time  `gorm:"column:start_time;not null" json:"start_time"`
	EndTime   *time.Time `gorm:"column:end_time" json:"end_time,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (ExamAttempt) TableName() string { return "exam_attempt" }

func (a *ExamAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.StartTime.IsZero() {
		a.StartTime = time.Now().UTC()
	}
	return nil
}
