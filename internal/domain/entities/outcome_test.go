package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcomes(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ParseOutcomes(""))
	})

	t.Run("non-JSON garbage", func(t *testing.T) {
		assert.Empty(t, ParseOutcomes("not json at all {{{"))
	})

	t.Run("JSON object instead of array", func(t *testing.T) {
		assert.Empty(t, ParseOutcomes(`{"entityID":"king-1","field":"title","toValue":"King"}`))
	})

	t.Run("JSON scalar", func(t *testing.T) {
		assert.Empty(t, ParseOutcomes(`42`))
		assert.Empty(t, ParseOutcomes(`"outcomes"`))
	})

	t.Run("valid array", func(t *testing.T) {
		outcomes := ParseOutcomes(`[
			{"entityID":"king-1","field":"title","toValue":"King"},
			{"entityID":"king-1","field":"title","fromValue":"King","toValue":"Former King","description":"abdicated"}
		]`)
		require.Len(t, outcomes, 2)
		assert.Equal(t, "king-1", outcomes[0].EntityID)
		assert.Equal(t, "title", outcomes[0].Field)
		assert.Equal(t, "King", outcomes[0].ToValue)
		assert.Equal(t, "King", outcomes[1].FromValue)
		assert.Equal(t, "Former King", outcomes[1].ToValue)
		assert.Equal(t, "abdicated", outcomes[1].Description)
	})

	t.Run("mixed valid and invalid elements keeps valid subset", func(t *testing.T) {
		outcomes := ParseOutcomes(`[
			{"entityID":"e-1","field":"title","toValue":"King"},
			42,
			"nope",
			{"entityID":"e-2","field":"rank"},
			{"entityID":7,"field":"title","toValue":"King"},
			{"entityID":"e-3","field":"allegiance","toValue":"Empire"},
			null
		]`)
		require.Len(t, outcomes, 2)
		assert.Equal(t, "e-1", outcomes[0].EntityID)
		assert.Equal(t, "e-3", outcomes[1].EntityID)
	})

	t.Run("non-string optional fields are dropped from the element", func(t *testing.T) {
		outcomes := ParseOutcomes(`[{"entityID":"e-1","field":"age","toValue":"31","fromValue":30}]`)
		require.Len(t, outcomes, 1)
		assert.Empty(t, outcomes[0].FromValue)
		assert.Equal(t, "31", outcomes[0].ToValue)
	})
}

func TestSerializeOutcomes(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		assert.Equal(t, "[]", SerializeOutcomes(nil))
		assert.Equal(t, "[]", SerializeOutcomes([]EventOutcome{}))
	})

	t.Run("round-trips with ParseOutcomes", func(t *testing.T) {
		original := []EventOutcome{
			{EntityID: "king-1", Field: "title", ToValue: "King"},
			{EntityID: "king-1", Field: "title", FromValue: "King", ToValue: "Former King", Description: "abdicated"},
			{EntityID: "city-3", Field: "ruler", ToValue: "House Varen"},
		}

		parsed := ParseOutcomes(SerializeOutcomes(original))
		assert.Equal(t, original, parsed)
	})

	t.Run("preserves order", func(t *testing.T) {
		original := []EventOutcome{
			{EntityID: "a", Field: "f", ToValue: "1"},
			{EntityID: "b", Field: "f", ToValue: "2"},
			{EntityID: "c", Field: "f", ToValue: "3"},
		}

		parsed := ParseOutcomes(SerializeOutcomes(original))
		require.Len(t, parsed, 3)
		assert.Equal(t, "a", parsed[0].EntityID)
		assert.Equal(t, "b", parsed[1].EntityID)
		assert.Equal(t, "c", parsed[2].EntityID)
	})
}
