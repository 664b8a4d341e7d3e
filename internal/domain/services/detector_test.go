package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/mocks"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

func setupDetectorTest() (*DriftDetector, *mocks.RelationalDB, *mocks.DriftStore) {
	db := mocks.NewRelationalDB()
	drifts := mocks.NewDriftStore()
	return NewDriftDetector(db, drifts), db, drifts
}

func testEvent(id, continuityID, inWorldTime string, outcomes ...entities.EventOutcome) *entities.Event {
	return &entities.Event{
		ID:           id,
		WorldID:      "w-1",
		ContinuityID: continuityID,
		Name:         id,
		Outcomes:     entities.SerializeOutcomes(outcomes),
		InWorldTime:  inWorldTime,
		CreatedAt:    time.Now(),
	}
}

func TestDriftDetector_CheckForDrifts(t *testing.T) {
	ctx := context.Background()

	t.Run("coronation scenario", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		require.NoError(t, db.SaveEvent(ctx, testEvent("Coronation", "c-1", "Y100-01",
			entities.EventOutcome{EntityID: "king-1", Field: "title", ToValue: "King"})))
		require.NoError(t, db.SaveEvent(ctx, testEvent("Abdication", "c-1", "Y105-06",
			entities.EventOutcome{EntityID: "king-1", Field: "title", ToValue: "Former King"})))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "king-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		})

		assert.Equal(t, 1, result.DriftsDetected)
		assert.Equal(t, 0, result.DriftsResolved)

		drift := drifts.Open("king-1", "c-1", "title")
		require.NotNil(t, drift)
		assert.Equal(t, "Former King", drift.EventDerivedValue)
		assert.Equal(t, "Emperor", drift.CurrentValue)

		// A later edit back to the derived value resolves the row.
		result = detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "king-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Former King"}},
		})

		assert.Equal(t, 0, result.DriftsDetected)
		assert.Equal(t, 1, result.DriftsResolved)
		assert.Nil(t, drifts.Open("king-1", "c-1", "title"))

		all, err := drifts.FindByEntity(ctx, "king-1")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.NotNil(t, all[0].ResolvedAt)
	})

	t.Run("latest in-world time wins regardless of creation order", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		// The later in-fiction event is created first.
		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-late", "c-1", "Y200",
			entities.EventOutcome{EntityID: "e-1", Field: "ruler", ToValue: "Empress Mira"})))
		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-early", "c-1", "Y100",
			entities.EventOutcome{EntityID: "e-1", Field: "ruler", ToValue: "King Osric"})))

		detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "ruler", NewValue: "nobody"}},
		})

		drift := drifts.Open("e-1", "c-1", "ruler")
		require.NotNil(t, drift)
		assert.Equal(t, "Empress Mira", drift.EventDerivedValue)
	})

	t.Run("in-world time tie goes to last event in scan order", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-1", "c-1", "Y100",
			entities.EventOutcome{EntityID: "e-1", Field: "status", ToValue: "first"})))
		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-2", "c-1", "Y100",
			entities.EventOutcome{EntityID: "e-1", Field: "status", ToValue: "second"})))

		detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "status", NewValue: "other"}},
		})

		drift := drifts.Open("e-1", "c-1", "status")
		require.NotNil(t, drift)
		assert.Equal(t, "second", drift.EventDerivedValue)
	})

	t.Run("continuities are reconciled independently", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-a", "c-a", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "allegiance", ToValue: "Empire"})))
		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-b", "c-b", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "allegiance", ToValue: "Rebels"})))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "allegiance", NewValue: "Empire"}},
		})

		// Matches canon in c-a, mismatches in c-b.
		assert.Equal(t, 1, result.DriftsDetected)
		assert.Nil(t, drifts.Open("e-1", "c-a", "allegiance"))

		drift := drifts.Open("e-1", "c-b", "allegiance")
		require.NotNil(t, drift)
		assert.Equal(t, "Rebels", drift.EventDerivedValue)
	})

	t.Run("no drift without canon", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-1", "c-1", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "title", ToValue: "King"})))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "eye_color", NewValue: "green"}},
		})

		assert.Equal(t, 0, result.DriftsDetected)
		assert.Equal(t, 0, result.DriftsResolved)
		unresolved, err := drifts.FindUnresolved(ctx, ports.DriftFilter{})
		require.NoError(t, err)
		assert.Empty(t, unresolved)
	})

	t.Run("re-detection is idempotent", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-1", "c-1", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "title", ToValue: "King"})))

		input := DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		}

		first := detector.CheckForDrifts(ctx, input)
		assert.Equal(t, 1, first.DriftsDetected)

		firstRow := *drifts.Open("e-1", "c-1", "title")

		second := detector.CheckForDrifts(ctx, input)
		assert.Equal(t, 1, second.DriftsDetected)
		assert.Equal(t, 0, second.DriftsResolved)

		// Still exactly one row for the triple, same identity.
		all, err := drifts.FindByEntity(ctx, "e-1")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, firstRow.ID, all[0].ID)
		assert.Nil(t, all[0].ResolvedAt)
	})

	t.Run("aligned re-run detects and resolves nothing", func(t *testing.T) {
		detector, db, _ := setupDetectorTest()

		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-1", "c-1", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "title", ToValue: "King"})))

		input := DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "King"}},
		}

		first := detector.CheckForDrifts(ctx, input)
		assert.Equal(t, DriftCheckResult{}, first)

		second := detector.CheckForDrifts(ctx, input)
		assert.Equal(t, DriftCheckResult{}, second)
	})

	t.Run("events without in-world time are ignored", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-undated", "c-1", "",
			entities.EventOutcome{EntityID: "e-1", Field: "title", ToValue: "Usurper"})))
		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-dated", "c-1", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "title", ToValue: "King"})))

		detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Duke"}},
		})

		drift := drifts.Open("e-1", "c-1", "title")
		require.NotNil(t, drift)
		assert.Equal(t, "King", drift.EventDerivedValue)
	})

	t.Run("stale drift is resolved when canon no longer targets the field", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		// An open drift left over from events that have since been deleted.
		require.NoError(t, drifts.Save(ctx, &entities.Drift{
			ID:                "d-1",
			EntityID:          "e-1",
			ContinuityID:      "c-1",
			Field:             "title",
			EventDerivedValue: "King",
			CurrentValue:      "Emperor",
			DetectedAt:        time.Now(),
		}))
		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-1", "c-1", "Y10",
			entities.EventOutcome{EntityID: "e-other", Field: "title", ToValue: "Queen"})))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		})

		assert.Equal(t, DriftCheckResult{}, result)
		assert.Nil(t, drifts.Open("e-1", "c-1", "title"))
	})

	t.Run("malformed outcome blobs never block detection", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		broken := testEvent("ev-broken", "c-1", "Y05")
		broken.Outcomes = `{"not":"an array"`
		require.NoError(t, db.SaveEvent(ctx, broken))
		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-ok", "c-1", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "title", ToValue: "King"})))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		})

		assert.Equal(t, 1, result.DriftsDetected)
		require.NotNil(t, drifts.Open("e-1", "c-1", "title"))
	})

	t.Run("event load failure degrades to a no-op", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()
		db.EventsErr = errors.New("database is locked")

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		})

		assert.Equal(t, DriftCheckResult{}, result)
		assert.Empty(t, drifts.Drifts)
	})

	t.Run("drift save failure is not counted", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()
		drifts.SaveErr = errors.New("disk full")

		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-1", "c-1", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "title", ToValue: "King"})))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		})

		assert.Equal(t, DriftCheckResult{}, result)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		detector, _, _ := setupDetectorTest()

		assert.Equal(t, DriftCheckResult{}, detector.CheckForDrifts(ctx, DriftCheckInput{}))
		assert.Equal(t, DriftCheckResult{}, detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID: "e-1",
			WorldID:  "w-1",
		}))
	})
}

func testContinuity(id string) *entities.Continuity {
	return &entities.Continuity{
		ID:      id,
		WorldID: "w-1",
		Name:    id,
	}
}

func TestDriftDetector_IndexPath(t *testing.T) {
	ctx := context.Background()

	t.Run("index path matches rescan result", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		require.NoError(t, db.SaveContinuity(ctx, testContinuity("c-1")))
		require.NoError(t, db.SaveEvent(ctx, testEvent("Coronation", "c-1", "Y100-01",
			entities.EventOutcome{EntityID: "king-1", Field: "title", ToValue: "King"})))
		require.NoError(t, db.SaveEvent(ctx, testEvent("Abdication", "c-1", "Y105-06",
			entities.EventOutcome{EntityID: "king-1", Field: "title", ToValue: "Former King"})))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "king-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		})

		assert.Equal(t, 1, result.DriftsDetected)

		drift := drifts.Open("king-1", "c-1", "title")
		require.NotNil(t, drift)
		assert.Equal(t, "Former King", drift.EventDerivedValue)
	})

	t.Run("continuity with no canon resolves stale rows silently", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()

		require.NoError(t, db.SaveContinuity(ctx, testContinuity("c-1")))
		require.NoError(t, drifts.Save(ctx, &entities.Drift{
			ID:                "d-1",
			EntityID:          "e-1",
			ContinuityID:      "c-1",
			Field:             "title",
			EventDerivedValue: "King",
			CurrentValue:      "Emperor",
			DetectedAt:        time.Now(),
		}))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		})

		assert.Equal(t, DriftCheckResult{}, result)
		assert.Nil(t, drifts.Open("e-1", "c-1", "title"))
	})

	t.Run("index lookup failure falls back to rescan", func(t *testing.T) {
		detector, db, drifts := setupDetectorTest()
		db.DerivedErr = errors.New("database is locked")

		require.NoError(t, db.SaveContinuity(ctx, testContinuity("c-1")))
		require.NoError(t, db.SaveEvent(ctx, testEvent("ev-1", "c-1", "Y10",
			entities.EventOutcome{EntityID: "e-1", Field: "title", ToValue: "King"})))

		result := detector.CheckForDrifts(ctx, DriftCheckInput{
			EntityID:      "e-1",
			WorldID:       "w-1",
			ChangedFields: []entities.FieldChange{{Field: "title", NewValue: "Emperor"}},
		})

		assert.Equal(t, 1, result.DriftsDetected)

		drift := drifts.Open("e-1", "c-1", "title")
		require.NotNil(t, drift)
		assert.Equal(t, "King", drift.EventDerivedValue)
	})
}
