package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentChunk struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudyMaterialID     uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:ux_chunk_material_seq" json:"study_material_id"`
	StudyMaterial       *StudyMaterial `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudyMaterialID;references:ID" json:"study_material,omitempty"`
	ChunkSequenceNumber int            `gorm:"column:chunk_sequence_number;not null;uniqueIndex:ux_chunk_material_seq" json:"chunk_sequence_number"`
	ChunkText           string         `gorm:"column:chunk_text;not null" json:"chunk_text"`
	VectorID            string         `gorm:"column:vector_id;not null;uniqueIndex" json:"vector_id"`
	EmbeddingProvider   string         `gorm:"column:embedding_provider" json:"embedding_provider"`
	ReviewFlagsCount    int            `gorm:"column:review_flags_count;not null;default:0" json:"review_flags_count"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null" json:"updated_at"`
}

func (DocumentChunk) TableName() string { return "document_chunk" }

func (c *DocumentChunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
