package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/repos/testutil"
	"github.com/yungbote/examify-backend/internal/types"
)

func newTestFeedbackService(t *testing.T, tx *gorm.DB) FeedbackService {
	t.Helper()
	log := testutil.Logger(t)
	return NewFeedbackService(testLogger(t), tx, repos.NewAIFeedbackRepo(tx, log), repos.NewDocumentChunkRepo(tx, log))
}

func reviewFlags(t *testing.T, tx *gorm.DB, chunkID uuid.UUID) int {
	t.Helper()
	var c types.DocumentChunk
	if err := tx.First(&c, "id = ?", chunkID).Error; err != nil {
		t.Fatalf("load chunk: %v", err)
	}
	return c.ReviewFlagsCount
}

func TestRecordLowRatingFlagsContextChunks(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	material := testutil.SeedStudyMaterial(t, ctx, tx, "notes")
	c1 := testutil.SeedDocumentChunk(t, ctx, tx, material.ID, 0, "first")
	c2 := testutil.SeedDocumentChunk(t, ctx, tx, material.ID, 1, "second")

	svc := newTestFeedbackService(t, tx)

	feedback, err := svc.Record(ctx, FeedbackInput{
		SessionID:        uuid.New(),
		QueryText:        "what is DNS",
		AIResponseText:   "wrong answer",
		Rating:           testutil.PtrInt(1),
		InteractionType:  "rag_query",
		ContextVectorIDs: []string{c1.VectorID, c2.VectorID},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if feedback.ID == uuid.Nil {
		t.Fatal("feedback id not assigned")
	}

	if got := reviewFlags(t, tx, c1.ID); got != 1 {
		t.Fatalf("chunk1 review flags = %d, want 1", got)
	}
	if got := reviewFlags(t, tx, c2.ID); got != 1 {
		t.Fatalf("chunk2 review flags = %d, want 1", got)
	}
}

func TestRecordGoodRatingDoesNotFlag(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	material := testutil.SeedStudyMaterial(t, ctx, tx, "notes")
	c1 := testutil.SeedDocumentChunk(t, ctx, tx, material.ID, 0, "first")

	svc := newTestFeedbackService(t, tx)

	if _, err := svc.Record(ctx, FeedbackInput{
		SessionID:        uuid.New(),
		Rating:           testutil.PtrInt(5),
		InteractionType:  "rag_query",
		ContextVectorIDs: []string{c1.VectorID},
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if got := reviewFlags(t, tx, c1.ID); got != 0 {
		t.Fatalf("review flags = %d, want 0", got)
	}
}

func TestRecordLowConfidenceFlagsWithoutRating(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	material := testutil.SeedStudyMaterial(t, ctx, tx, "notes")
	c1 := testutil.SeedDocumentChunk(t, ctx, tx, material.ID, 0, "first")

	svc := newTestFeedbackService(t, tx)

	if _, err := svc.Record(ctx, FeedbackInput{
		SessionID:        uuid.New(),
		InteractionType:  "rag_query",
		AILowConfidence:  true,
		ContextVectorIDs: []string{c1.VectorID},
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if got := reviewFlags(t, tx, c1.ID); got != 1 {
		t.Fatalf("review flags = %d, want 1", got)
	}
}

func TestRecordRejectsOutOfRangeRating(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newTestFeedbackService(t, tx)

	if _, err := svc.Record(context.Background(), FeedbackInput{
		SessionID: uuid.New(),
		Rating:    testutil.PtrInt(6),
	}); err == nil {
		t.Fatal("expected error for rating out of range")
	}
}

func TestRecordUnknownVectorIDsAreIgnored(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	material := testutil.SeedStudyMaterial(t, ctx, tx, "notes")
	c1 := testutil.SeedDocumentChunk(t, ctx, tx, material.ID, 0, "first")

	svc := newTestFeedbackService(t, tx)

	feedback, err := svc.Record(ctx, FeedbackInput{
		SessionID:        uuid.New(),
		Rating:           testutil.PtrInt(1),
		ContextVectorIDs: []string{c1.VectorID, "no-such-vector"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(feedback.ContextChunks) != 1 {
		t.Fatalf("linked %d chunks, want 1", len(feedback.ContextChunks))
	}
	if got := reviewFlags(t, tx, c1.ID); got != 1 {
		t.Fatalf("review flags = %d, want 1", got)
	}
}
