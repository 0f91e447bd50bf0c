package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/examify-backend/internal/ingestion/extractor"
	"github.com/yungbote/examify-backend/internal/logger"
	"github.com/yungbote/examify-backend/internal/repos"
	"github.com/yungbote/examify-backend/internal/types"
	"github.com/yungbote/examify-backend/internal/utils"
)

// OCRClient extracts text from image bytes.
type OCRClient interface {
	OCRImageBytes(ctx context.Context, img []byte) (string, error)
}

type MaterialService interface {
	// IngestMaterial extracts text from the uploaded file, chunks it, embeds
	// the chunks, persists them and submits the vectors to the index. Returns
	// the number of chunks stored.
	IngestMaterial(ctx context.Context, material *types.StudyMaterial, data []byte) (int, error)
	GetMaterial(ctx context.Context, id uuid.UUID) (*types.StudyMaterial, error)
	// DeleteMaterial removes the material, its chunks and their index entries.
	DeleteMaterial(ctx context.Context, id uuid.UUID) error
}

type materialService struct {
	log          *logger.Logger
	db           *gorm.DB
	materialRepo repos.StudyMaterialRepo
	chunkRepo    repos.DocumentChunkRepo
	embedder     EmbeddingService
	index        VectorIndexService
	ocr          OCRClient

	chunkSize    int
	chunkOverlap int
	concurrency  int
}

// NewMaterialService wires the ingestion pipeline. ocr may be nil; image
// uploads then fail extraction and ingest with zero chunks.
func NewMaterialService(
	log *logger.Logger,
	db *gorm.DB,
	materialRepo repos.StudyMaterialRepo,
	chunkRepo repos.DocumentChunkRepo,
	embedder EmbeddingService,
	index VectorIndexService,
	ocr OCRClient,
) MaterialService {
	serviceLog := log.With("service", "MaterialService")
	return &materialService{
		log:          serviceLog,
		db:           db,
		materialRepo: materialRepo,
		chunkRepo:    chunkRepo,
		embedder:     embedder,
		index:        index,
		ocr:          ocr,
		chunkSize:    utils.GetEnvAsInt("CHUNK_SIZE", extractor.DefaultChunkSize, log),
		chunkOverlap: utils.GetEnvAsInt("CHUNK_OVERLAP", extractor.DefaultChunkOverlap, log),
		concurrency:  utils.GetEnvAsInt("EMBED_CONCURRENCY", 4, log),
	}
}

func (s *materialService) IngestMaterial(ctx context.Context, material *types.StudyMaterial, data []byte) (int, error) {
	if material == nil {
		return 0, fmt.Errorf("material required")
	}

	stored, err := s.materialRepo.Create(ctx, nil, material)
	if err != nil {
		s.log.Error("Failed to create study material", "title", material.Title, "error", err)
		return 0, fmt.Errorf("create study material: %w", err)
	}

	text := s.extractText(ctx, stored, data)
	chunkTexts := extractor.SplitWords(text, s.chunkSize, s.chunkOverlap)
	if len(chunkTexts) == 0 {
		s.log.Warn("No text chunks produced from material", "material_id", stored.ID, "file_name", stored.FileName)
		return 0, nil
	}
	s.log.Info("Material chunked", "material_id", stored.ID, "chunks", len(chunkTexts))

	// Sequence numbers come from chunk order, assigned before the concurrent
	// embedding fan-out so ordering never depends on goroutine scheduling.
	chunks := make([]*types.DocumentChunk, len(chunkTexts))
	for i, ct := range chunkTexts {
		chunks[i] = &types.DocumentChunk{
			StudyMaterialID:     stored.ID,
			ChunkSequenceNumber: i,
			ChunkText:           ct,
			VectorID:            uuid.NewString(),
			EmbeddingProvider:   s.embedder.Provider(),
		}
	}

	vectors := make([][]float32, len(chunks))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			vec, err := s.embedder.EmbedText(gctx, chunk.ChunkText, "document")
			if err != nil {
				s.log.Warn("Skipping chunk due to embedding failure", "material_id", stored.ID, "sequence", chunk.ChunkSequenceNumber, "error", err)
				return nil
			}
			mu.Lock()
			vectors[i] = vec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	kept := make([]*types.DocumentChunk, 0, len(chunks))
	items := make([]ChunkVector, 0, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) == 0 {
			continue
		}
		kept = append(kept, chunk)
		items = append(items, ChunkVector{VectorID: chunk.VectorID, Values: vectors[i]})
	}
	if len(kept) == 0 {
		s.log.Error("All chunk embeddings failed", "material_id", stored.ID)
		return 0, NewUpstreamError("all chunk embeddings failed", nil)
	}

	if _, err := s.chunkRepo.Create(ctx, nil, kept); err != nil {
		s.log.Error("Failed to persist document chunks", "material_id", stored.ID, "error", err)
		return 0, fmt.Errorf("persist chunks: %w", err)
	}

	// Chunks stay in the database even if indexing fails; the caller can
	// re-index later without re-embedding from scratch.
	if err := s.index.UpsertChunks(ctx, items); err != nil {
		s.log.Error("Vector index upsert failed after chunks were stored", "material_id", stored.ID, "error", err)
		return len(kept), err
	}

	s.log.Info("Material ingested", "material_id", stored.ID, "chunks", len(kept))
	return len(kept), nil
}

func (s *materialService) GetMaterial(ctx context.Context, id uuid.UUID) (*types.StudyMaterial, error) {
	return s.materialRepo.GetByID(ctx, nil, id)
}

func (s *materialService) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	chunks, err := s.chunkRepo.GetByStudyMaterialID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("load chunks for delete: %w", err)
	}

	vectorIDs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.VectorID != "" {
			vectorIDs = append(vectorIDs, c.VectorID)
		}
	}
	// Index cleanup is best effort; orphaned vectors are filtered at query
	// time when their chunk rows are gone.
	if err := s.index.DeleteIDs(ctx, vectorIDs); err != nil {
		s.log.Warn("Failed to delete vectors from index", "material_id", id, "count", len(vectorIDs), "error", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.chunkRepo.DeleteByStudyMaterialID(ctx, tx, id); err != nil {
			return err
		}
		return s.materialRepo.Delete(ctx, tx, id)
	})
}

func (s *materialService) extractText(ctx context.Context, material *types.StudyMaterial, data []byte) string {
	kind := extractor.ClassifyKind(material.FileName, material.DeclaredType, head(data, 8))
	if kind == "image" {
		if s.ocr == nil {
			s.log.Warn("Image upload but OCR client is not configured", "material_id", material.ID)
			return ""
		}
		text, err := s.ocr.OCRImageBytes(ctx, data)
		if err != nil {
			s.log.Error("OCR failed", "material_id", material.ID, "error", err)
			return ""
		}
		return text
	}
	return extractor.ExtractText(s.log, material.FileName, material.DeclaredType, data)
}

func head(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	return data[:n]
}
