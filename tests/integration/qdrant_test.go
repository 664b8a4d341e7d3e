package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/canon-core/internal/domain/entities"
	embedder "github.com/ersonp/canon-core/internal/infrastructure/embedder/openai"
)

// fakeEmbedding builds a deterministic vector of the right dimension. The
// seed biases one component so different events are separable by cosine
// distance.
func fakeEmbedding(seed int) []float32 {
	vec := make([]float32, embedder.VectorSize)
	for i := range vec {
		vec[i] = 0.001
	}
	vec[seed%embedder.VectorSize] = 1.0
	return vec
}

func newTestEvent(name string) entities.Event {
	now := time.Now().UTC().Truncate(time.Second)
	return entities.Event{
		ID:           uuid.NewString(),
		WorldID:      "testworld",
		ContinuityID: uuid.NewString(),
		Name:         name,
		Description:  "integration test event",
		Tags:         []string{"test", "integration"},
		Outcomes:     "[]",
		InWorldTime:  "3E-412-01-14",
		CreatedAt:    now,
		ModifiedAt:   now,
	}
}

func TestQdrant_SaveAndSearch(t *testing.T) {
	requireQdrant(t)

	ctx := context.Background()

	event := newTestEvent("Coronation of Aldric")
	require.NoError(t, testVector.Save(ctx, event, fakeEmbedding(1)))
	defer func() { _ = testVector.Delete(ctx, event.ID) }()

	results, err := testVector.Search(ctx, fakeEmbedding(1), 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := results[0]
	assert.Equal(t, event.ID, found.ID)
	assert.Equal(t, event.Name, found.Name)
	assert.Equal(t, event.WorldID, found.WorldID)
	assert.Equal(t, event.InWorldTime, found.InWorldTime)
	assert.ElementsMatch(t, event.Tags, found.Tags)
	assert.WithinDuration(t, event.CreatedAt, found.CreatedAt, time.Second)
}

func TestQdrant_DeleteAndCount(t *testing.T) {
	requireQdrant(t)

	ctx := context.Background()

	before, err := testVector.Count(ctx)
	require.NoError(t, err)

	event := newTestEvent("Fall of Highspire")
	require.NoError(t, testVector.Save(ctx, event, fakeEmbedding(2)))

	after, err := testVector.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	require.NoError(t, testVector.Delete(ctx, event.ID))

	final, err := testVector.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, final)
}
