package ports

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

// VectorDB defines the interface for the semantic event index.
type VectorDB interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// DeleteCollection removes the collection and all indexed events.
	DeleteCollection(ctx context.Context) error

	// Save indexes an event with its embedding.
	Save(ctx context.Context, event entities.Event, embedding []float32) error

	// Search performs a semantic search and returns similar events.
	Search(ctx context.Context, embedding []float32, limit int) ([]entities.Event, error)

	// Delete removes an event from the index by its ID.
	Delete(ctx context.Context, id string) error

	// Count returns the number of indexed events.
	Count(ctx context.Context) (uint64, error)
}
