package services

import (
	"context"
	"fmt"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

// DefaultSearchLimit is the default number of results to return.
const DefaultSearchLimit = 10

// QueryService handles semantic event search.
type QueryService struct {
	embedder ports.Embedder
	vectorDB ports.VectorDB
}

// NewQueryService creates a new query service.
func NewQueryService(embedder ports.Embedder, vectorDB ports.VectorDB) *QueryService {
	return &QueryService{
		embedder: embedder,
		vectorDB: vectorDB,
	}
}

// Search finds events semantically similar to the query.
func (s *QueryService) Search(ctx context.Context, query string, limit int) ([]entities.Event, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	events, err := s.vectorDB.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching events: %w", err)
	}

	return events, nil
}
