package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/mocks"
)

func newRecordService() (*RecordService, *mocks.RelationalDB, *mocks.DriftStore) {
	db := mocks.NewRelationalDB()
	drifts := mocks.NewDriftStore()
	return NewRecordService(db, drifts, NewDriftDetector(db, drifts)), db, drifts
}

func TestRecordService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates record with normalized name", func(t *testing.T) {
		svc, db, _ := newRecordService()

		record, err := svc.Create(ctx, "world-1", entities.RecordKindCharacter, "King Aldric")
		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "King Aldric", record.Name)
		assert.Equal(t, "king aldric", record.NormalizedName)
		assert.NotNil(t, record.Fields)

		require.Len(t, db.Audit, 1)
		assert.Equal(t, "record.create", db.Audit[0].Action)
	})

	t.Run("rejects invalid kind", func(t *testing.T) {
		svc, _, _ := newRecordService()

		_, err := svc.Create(ctx, "world-1", "spaceship", "Aldric")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid record kind")
	})

	t.Run("rejects duplicate name in world", func(t *testing.T) {
		svc, _, _ := newRecordService()

		_, err := svc.Create(ctx, "world-1", entities.RecordKindCharacter, "Aldric")
		require.NoError(t, err)

		_, err = svc.Create(ctx, "world-1", entities.RecordKindLocation, "ALDRIC")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("same name allowed in different worlds", func(t *testing.T) {
		svc, _, _ := newRecordService()

		_, err := svc.Create(ctx, "world-1", entities.RecordKindCharacter, "Aldric")
		require.NoError(t, err)

		_, err = svc.Create(ctx, "world-2", entities.RecordKindCharacter, "Aldric")
		require.NoError(t, err)
	})
}

func TestRecordService_SetFields(t *testing.T) {
	ctx := context.Background()

	t.Run("persists fields and reports drift", func(t *testing.T) {
		svc, db, drifts := newRecordService()

		record, err := svc.Create(ctx, "world-1", entities.RecordKindCharacter, "Aldric")
		require.NoError(t, err)

		db.Events = append(db.Events, entities.Event{
			ID:           "ev-1",
			WorldID:      "world-1",
			ContinuityID: "main",
			Name:         "Coronation",
			InWorldTime:  "1024-03-01",
			Outcomes:     `[{"entityID":"` + record.ID + `","field":"status","toValue":"King"}]`,
		})

		updated, result, err := svc.SetFields(ctx, record.ID, []entities.FieldChange{
			{Field: "status", NewValue: "Dead"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Dead", updated.Fields["status"])
		assert.Equal(t, 1, result.DriftsDetected)
		assert.Equal(t, 0, result.DriftsResolved)

		open := drifts.Open(record.ID, "main", "status")
		require.NotNil(t, open)
		assert.Equal(t, "King", open.EventDerivedValue)
		assert.Equal(t, "Dead", open.CurrentValue)
	})

	t.Run("edit succeeds even when detection finds nothing", func(t *testing.T) {
		svc, db, _ := newRecordService()

		record, err := svc.Create(ctx, "world-1", entities.RecordKindCharacter, "Aldric")
		require.NoError(t, err)

		updated, result, err := svc.SetFields(ctx, record.ID, []entities.FieldChange{
			{Field: "status", NewValue: "Alive"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Alive", updated.Fields["status"])
		assert.Equal(t, DriftCheckResult{}, result)

		entries, err := db.FindAuditLog(ctx, record.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "record.set_fields", entries[1].Action)
	})

	t.Run("unknown record", func(t *testing.T) {
		svc, _, _ := newRecordService()

		_, _, err := svc.SetFields(ctx, "missing", []entities.FieldChange{
			{Field: "status", NewValue: "Alive"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestRecordService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("purges drift rows with the record", func(t *testing.T) {
		svc, db, drifts := newRecordService()

		record, err := svc.Create(ctx, "world-1", entities.RecordKindCharacter, "Aldric")
		require.NoError(t, err)

		db.Events = append(db.Events, entities.Event{
			ID:           "ev-1",
			WorldID:      "world-1",
			ContinuityID: "main",
			InWorldTime:  "1024-03-01",
			Outcomes:     `[{"entityID":"` + record.ID + `","field":"status","toValue":"King"}]`,
		})
		_, _, err = svc.SetFields(ctx, record.ID, []entities.FieldChange{
			{Field: "status", NewValue: "Dead"},
		})
		require.NoError(t, err)
		require.NotNil(t, drifts.Open(record.ID, "main", "status"))

		require.NoError(t, svc.Delete(ctx, record.ID))

		got, err := svc.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		rows, err := drifts.FindByEntity(ctx, record.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("unknown record", func(t *testing.T) {
		svc, _, _ := newRecordService()
		err := svc.Delete(ctx, "missing")
		require.Error(t, err)
	})
}
