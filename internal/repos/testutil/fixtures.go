package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/types"
)

func SeedStudyMaterial(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.StudyMaterial {
	tb.Helper()
	m := &types.StudyMaterial{
		ID:           uuid.New(),
		Title:        title,
		UploadedByID: uuid.New(),
		FileName:     "notes.pdf",
		DeclaredType: "pdf",
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed study material: %v", err)
	}
	return m
}

func SeedDocumentChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, materialID uuid.UUID, seq int, text string) *types.DocumentChunk {
	tb.Helper()
	c := &types.DocumentChunk{
		ID:                  uuid.New(),
		StudyMaterialID:     materialID,
		ChunkSequenceNumber: seq,
		ChunkText:           text,
		VectorID:            uuid.NewString(),
		EmbeddingProvider:   "openai",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed document chunk: %v", err)
	}
	return c
}

func SeedExam(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Exam {
	tb.Helper()
	e := &types.Exam{
		ID:        uuid.New(),
		Title:     title,
		CreatorID: uuid.New(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed exam: %v", err)
	}
	return e
}

func SeedExamQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, examID uuid.UUID, qType string, points float64, order int, options map[string]string) *types.ExamQuestion {
	tb.Helper()
	q := &types.ExamQuestion{
		ID:           uuid.New(),
		ExamID:       examID,
		QuestionText: "question " + qType,
		QuestionType: qType,
		Order:        order,
		Points:       points,
	}
	if options != nil {
		raw, err := json.Marshal(options)
		if err != nil {
			tb.Fatalf("marshal options: %v", err)
		}
		q.Options = datatypes.JSON(raw)
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed exam question: %v", err)
	}
	return q
}

func SeedExamAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, examID, userID uuid.UUID) *types.ExamAttempt {
	tb.Helper()
	a := &types.ExamAttempt{
		ID:        uuid.New(),
		ExamID:    examID,
		UserID:    userID,
		Status:    types.AttemptStatusInProgress,
		StartTime: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed exam attempt: %v", err)
	}
	return a
}

func PtrInt(v int) *int { return &v }
