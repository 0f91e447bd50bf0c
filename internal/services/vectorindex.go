package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/examify-backend/internal/clients/pinecone"
	"github.com/yungbote/examify-backend/internal/logger"
)

// ChunkVector pairs an opaque vector id with its embedding.
type ChunkVector struct {
	VectorID string
	Values   []float32
}

// Neighbor is a nearest-neighbor result, closest first.
type Neighbor struct {
	VectorID string
	Distance float64
}

type VectorIndexService interface {
	// UpsertChunks filters out items with missing vectors and fails, without
	// partial submission, if nothing valid remains.
	UpsertChunks(ctx context.Context, items []ChunkVector) error
	// QueryNearest returns up to k neighbors ordered nearest first. An
	// unreachable or misconfigured index degrades to an empty list, never an
	// error, so callers treat "no results" and "service down" identically.
	QueryNearest(ctx context.Context, vec []float32, k int) []Neighbor
	DeleteIDs(ctx context.Context, vectorIDs []string) error
}

type vectorIndexService struct {
	log       *logger.Logger
	store     pinecone.VectorStore
	namespace string
}

func NewVectorIndexService(log *logger.Logger, store pinecone.VectorStore) (VectorIndexService, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store required")
	}
	return &vectorIndexService{
		log:       log.With("service", "VectorIndexService"),
		store:     store,
		namespace: strings.TrimSpace(os.Getenv("VECTOR_NAMESPACE")),
	}, nil
}

func (s *vectorIndexService) UpsertChunks(ctx context.Context, items []ChunkVector) error {
	vectors := make([]pinecone.Vector, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.VectorID) == "" || len(item.Values) == 0 {
			s.log.Warn("Skipping chunk in upsert due to missing id or vector", "vector_id", item.VectorID)
			continue
		}
		vectors = append(vectors, pinecone.Vector{ID: item.VectorID, Values: item.Values})
	}
	if len(vectors) == 0 {
		s.log.Warn("No valid datapoints to upsert")
		return fmt.Errorf("no valid datapoints to upsert")
	}

	s.log.Info("Upserting datapoints", "count", len(vectors))
	if err := s.store.Upsert(ctx, s.namespace, vectors); err != nil {
		s.log.Error("Vector upsert failed", "count", len(vectors), "error", err)
		return NewUpstreamError("vector upsert failed", err)
	}
	return nil
}

func (s *vectorIndexService) QueryNearest(ctx context.Context, vec []float32, k int) []Neighbor {
	if len(vec) == 0 {
		s.log.Warn("QueryNearest called with empty vector")
		return []Neighbor{}
	}
	if k <= 0 {
		k = 5
	}

	matches, err := s.store.QueryMatches(ctx, s.namespace, vec, k)
	if err != nil {
		s.log.Error("Vector query failed, returning no neighbors", "error", err)
		return []Neighbor{}
	}

	out := make([]Neighbor, 0, len(matches))
	for _, m := range matches {
		out = append(out, Neighbor{VectorID: m.ID, Distance: m.Score})
	}
	return out
}

func (s *vectorIndexService) DeleteIDs(ctx context.Context, vectorIDs []string) error {
	if len(vectorIDs) == 0 {
		return nil
	}
	if err := s.store.DeleteIDs(ctx, s.namespace, vectorIDs); err != nil {
		return NewUpstreamError("vector delete failed", err)
	}
	return nil
}
