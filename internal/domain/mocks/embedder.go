package mocks

import "context"

// Embedder is a mock implementation of ports.Embedder.
type Embedder struct {
	Embedding []float32
	Err       error
}

// NewEmbedder creates a mock embedder returning a fixed vector.
func NewEmbedder() *Embedder {
	return &Embedder{Embedding: []float32{0.1, 0.2, 0.3}}
}

// Embed generates a vector embedding for the given text.
func (m *Embedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Embedding, nil
}

// EmbedBatch generates vector embeddings for multiple texts.
func (m *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.Embedding
	}
	return result, nil
}
