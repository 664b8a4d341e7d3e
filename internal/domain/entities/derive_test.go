package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestDerivedValue(t *testing.T) {
	t.Run("multiple outcomes in one event", func(t *testing.T) {
		events := []Event{{
			ID:           "ev-1",
			ContinuityID: "c-1",
			InWorldTime:  "Y10",
			Outcomes: SerializeOutcomes([]EventOutcome{
				{EntityID: "e-1", Field: "title", ToValue: "King"},
				{EntityID: "e-1", Field: "title", ToValue: "High King"},
			}),
		}}

		// Same event, same InWorldTime: the later outcome in the list wins.
		value, inWorldTime, ok := LatestDerivedValue(events, "e-1", "title")
		require.True(t, ok)
		assert.Equal(t, "High King", value)
		assert.Equal(t, "Y10", inWorldTime)
	})

	t.Run("greatest in-world time wins regardless of order", func(t *testing.T) {
		events := []Event{
			{
				ID:          "ev-late",
				InWorldTime: "Y200",
				Outcomes: SerializeOutcomes([]EventOutcome{
					{EntityID: "e-1", Field: "ruler", ToValue: "Empress Mira"},
				}),
			},
			{
				ID:          "ev-early",
				InWorldTime: "Y100",
				Outcomes: SerializeOutcomes([]EventOutcome{
					{EntityID: "e-1", Field: "ruler", ToValue: "King Osric"},
				}),
			},
		}

		value, inWorldTime, ok := LatestDerivedValue(events, "e-1", "ruler")
		require.True(t, ok)
		assert.Equal(t, "Empress Mira", value)
		assert.Equal(t, "Y200", inWorldTime)
	})

	t.Run("undated events are ignored", func(t *testing.T) {
		events := []Event{{
			ID: "ev-undated",
			Outcomes: SerializeOutcomes([]EventOutcome{
				{EntityID: "e-1", Field: "title", ToValue: "Usurper"},
			}),
		}}

		_, _, ok := LatestDerivedValue(events, "e-1", "title")
		assert.False(t, ok)
	})

	t.Run("no match returns not found", func(t *testing.T) {
		_, _, ok := LatestDerivedValue(nil, "e-1", "title")
		assert.False(t, ok)
	})
}
