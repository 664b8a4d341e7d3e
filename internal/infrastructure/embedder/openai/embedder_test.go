package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/canon-core/internal/infrastructure/config"
)

func TestNewEmbedder(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		emb, err := NewEmbedder(config.EmbedderConfig{APIKey: "test-key"})
		require.NoError(t, err)
		assert.NotNil(t, emb)
	})

	t.Run("custom model", func(t *testing.T) {
		emb, err := NewEmbedder(config.EmbedderConfig{APIKey: "test-key", Model: "text-embedding-3-large"})
		require.NoError(t, err)
		assert.NotNil(t, emb)
	})

	t.Run("missing API key", func(t *testing.T) {
		_, err := NewEmbedder(config.EmbedderConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})
}
