package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudyMaterial struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	Description  string         `gorm:"column:description" json:"description"`
	UploadedByID uuid.UUID      `gorm:"type:uuid;not null;index" json:"uploaded_by_id"`
	CourseID     *uuid.UUID     `gorm:"type:uuid;index" json:"course_id,omitempty"`
	FileName     string         `gorm:"column:file_name" json:"file_name"`
	DeclaredType string         `gorm:"column:declared_type" json:"declared_type"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudyMaterial) TableName() string { return "study_material" }

func (m *StudyMaterial) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
