package mocks

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

// VectorDB is a mock implementation of ports.VectorDB.
type VectorDB struct {
	Events     map[string]entities.Event
	Embeddings map[string][]float32

	Err       error
	SaveErr   error
	SearchHit []entities.Event // returned by Search when set
}

// NewVectorDB creates a new mock VectorDB.
func NewVectorDB() *VectorDB {
	return &VectorDB{
		Events:     make(map[string]entities.Event),
		Embeddings: make(map[string][]float32),
	}
}

// EnsureCollection creates the collection if it doesn't exist.
func (m *VectorDB) EnsureCollection(_ context.Context, _ uint64) error { return m.Err }

// DeleteCollection removes the collection.
func (m *VectorDB) DeleteCollection(_ context.Context) error { return m.Err }

// Save indexes an event with its embedding.
func (m *VectorDB) Save(_ context.Context, event entities.Event, embedding []float32) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.Err != nil {
		return m.Err
	}
	m.Events[event.ID] = event
	m.Embeddings[event.ID] = embedding
	return nil
}

// Search returns the configured hits.
func (m *VectorDB) Search(_ context.Context, _ []float32, limit int) ([]entities.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	hits := m.SearchHit
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Delete removes an event from the index.
func (m *VectorDB) Delete(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Events, id)
	delete(m.Embeddings, id)
	return nil
}

// Count returns the number of indexed events.
func (m *VectorDB) Count(_ context.Context) (uint64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return uint64(len(m.Events)), nil
}
