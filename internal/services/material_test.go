package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/repos/testutil"
	"github.com/yungbote/examify-backend/internal/types"
)

func TestIngestMaterialStoresChunksAndUpserts(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	index := &fakeIndex{}
	svc := NewMaterialService(
		testLogger(t), tx,
		repos.NewStudyMaterialRepo(tx, log),
		repos.NewDocumentChunkRepo(tx, log),
		&fakeEmbedder{vec: []float32{0.1, 0.2}},
		index,
		nil,
	)

	material := &types.StudyMaterial{
		Title:        "lecture notes",
		UploadedByID: uuid.New(),
		FileName:     "notes.txt",
		DeclaredType: "txt",
	}
	count, err := svc.IngestMaterial(ctx, material, []byte("TCP provides reliable ordered delivery of a byte stream."))
	if err != nil {
		t.Fatalf("IngestMaterial: %v", err)
	}
	if count != 1 {
		t.Fatalf("chunk count = %d, want 1", count)
	}

	var chunks []types.DocumentChunk
	if err := tx.Where("study_material_id = ?", material.ID).Find(&chunks).Error; err != nil {
		t.Fatalf("load chunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunk rows, want 1", len(chunks))
	}
	if chunks[0].ChunkSequenceNumber != 0 {
		t.Fatalf("sequence = %d, want 0", chunks[0].ChunkSequenceNumber)
	}
	if chunks[0].VectorID == "" {
		t.Fatal("vector id not assigned")
	}
	if chunks[0].EmbeddingProvider != "openai" {
		t.Fatalf("embedding provider = %q", chunks[0].EmbeddingProvider)
	}

	if len(index.upserted) != 1 || index.upserted[0].VectorID != chunks[0].VectorID {
		t.Fatalf("index upserted = %+v", index.upserted)
	}
}

func TestIngestMaterialAllEmbeddingsFailed(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	svc := NewMaterialService(
		testLogger(t), tx,
		repos.NewStudyMaterialRepo(tx, log),
		repos.NewDocumentChunkRepo(tx, log),
		&fakeEmbedder{err: NewUpstreamError("provider down", nil)},
		&fakeIndex{},
		nil,
	)

	material := &types.StudyMaterial{Title: "notes", FileName: "notes.txt", DeclaredType: "txt"}
	_, err := svc.IngestMaterial(ctx, material, []byte("some text"))
	if err == nil {
		t.Fatal("expected error when every embedding fails")
	}
}

func TestIngestMaterialEmptyTextStoresNothing(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	index := &fakeIndex{}
	svc := NewMaterialService(
		testLogger(t), tx,
		repos.NewStudyMaterialRepo(tx, log),
		repos.NewDocumentChunkRepo(tx, log),
		&fakeEmbedder{vec: []float32{1}},
		index,
		nil,
	)

	material := &types.StudyMaterial{Title: "empty", FileName: "empty.txt", DeclaredType: "txt"}
	count, err := svc.IngestMaterial(ctx, material, nil)
	if err != nil {
		t.Fatalf("IngestMaterial: %v", err)
	}
	if count != 0 {
		t.Fatalf("chunk count = %d, want 0", count)
	}
	if len(index.upserted) != 0 {
		t.Fatalf("index should be untouched, got %d upserts", len(index.upserted))
	}
}

func TestDeleteMaterialRemovesChunksAndVectors(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	material := testutil.SeedStudyMaterial(t, ctx, tx, "doomed")
	c1 := testutil.SeedDocumentChunk(t, ctx, tx, material.ID, 0, "first")
	c2 := testutil.SeedDocumentChunk(t, ctx, tx, material.ID, 1, "second")

	index := &fakeIndex{}
	svc := NewMaterialService(
		testLogger(t), tx,
		repos.NewStudyMaterialRepo(tx, log),
		repos.NewDocumentChunkRepo(tx, log),
		&fakeEmbedder{vec: []float32{1}},
		index,
		nil,
	)

	if err := svc.DeleteMaterial(ctx, material.ID); err != nil {
		t.Fatalf("DeleteMaterial: %v", err)
	}

	if len(index.deleted) != 2 {
		t.Fatalf("deleted vector ids = %v, want both", index.deleted)
	}
	found := map[string]bool{}
	for _, id := range index.deleted {
		found[id] = true
	}
	if !found[c1.VectorID] || !found[c2.VectorID] {
		t.Fatalf("deleted = %v, want %v and %v", index.deleted, c1.VectorID, c2.VectorID)
	}

	var chunkCount int64
	if err := tx.Model(&types.DocumentChunk{}).Where("study_material_id = ?", material.ID).Count(&chunkCount).Error; err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if chunkCount != 0 {
		t.Fatalf("chunk rows left = %d", chunkCount)
	}
}
