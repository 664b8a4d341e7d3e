package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/mocks"
	"github.com/ersonp/canon-core/internal/domain/services"
)

func newImportHandler() (*ImportHandler, *mocks.RelationalDB) {
	db := mocks.NewRelationalDB()
	db.Continuities["cont-main"] = &entities.Continuity{
		ID:      "cont-main",
		WorldID: "world-1",
		Name:    entities.DefaultContinuityName,
	}
	db.Continuities["cont-branch"] = &entities.Continuity{
		ID:      "cont-branch",
		WorldID: "world-1",
		Name:    "What If",
	}
	eventService := services.NewEventService(db, mocks.NewVectorDB(), mocks.NewEmbedder())
	return NewImportHandler(eventService, db), db
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestImportHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("imports events resolving continuity names", func(t *testing.T) {
		handler, db := newImportHandler()
		path := writeTempFile(t, "events.json", `[
			{"name": "Coronation", "in_world_time": "1024-03-01",
			 "outcomes": [{"entityID": "rec-1", "field": "status", "toValue": "King"}]},
			{"name": "The Fork", "continuity": "What If"}
		]`)

		result, err := handler.Handle(ctx, "world-1", path, ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Imported)
		assert.Equal(t, 0, result.Skipped)
		require.Len(t, db.Events, 2)

		assert.Equal(t, "cont-main", db.Events[0].ContinuityID)
		outcomes := entities.ParseOutcomes(db.Events[0].Outcomes)
		require.Len(t, outcomes, 1)
		assert.Equal(t, "King", outcomes[0].ToValue)

		assert.Equal(t, "cont-branch", db.Events[1].ContinuityID)
	})

	t.Run("bad rows are skipped and reported", func(t *testing.T) {
		handler, db := newImportHandler()
		path := writeTempFile(t, "events.json", `[
			{"name": "Valid event"},
			{"name": ""},
			{"name": "Lost event", "continuity": "Nowhere"}
		]`)

		result, err := handler.Handle(ctx, "world-1", path, ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 2, result.Skipped)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, 2, result.Errors[0].Line)
		assert.Contains(t, result.Errors[1].Message, "Nowhere")
		assert.Len(t, db.Events, 1)
	})

	t.Run("dry run validates without saving", func(t *testing.T) {
		handler, db := newImportHandler()
		path := writeTempFile(t, "events.json", `[{"name": "Coronation"}]`)

		result, err := handler.Handle(ctx, "world-1", path, ImportOptions{DryRun: true})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		assert.Empty(t, db.Events)
	})

	t.Run("malformed outcome list imports as empty", func(t *testing.T) {
		handler, db := newImportHandler()
		path := writeTempFile(t, "events.json", `[{"name": "Coronation", "outcomes": {"not": "an array"}}]`)

		result, err := handler.Handle(ctx, "world-1", path, ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		require.Len(t, db.Events, 1)
		assert.Equal(t, "[]", db.Events[0].Outcomes)
	})

	t.Run("unsupported format", func(t *testing.T) {
		handler, _ := newImportHandler()
		path := writeTempFile(t, "events.txt", "whatever")

		_, err := handler.Handle(ctx, "world-1", path, ImportOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("csv import", func(t *testing.T) {
		handler, db := newImportHandler()
		path := writeTempFile(t, "events.csv", "name,continuity,in_world_time\nCoronation,,1024-03-01\n")

		result, err := handler.Handle(ctx, "world-1", path, ImportOptions{Format: "csv"})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		require.Len(t, db.Events, 1)
		assert.Equal(t, "1024-03-01", db.Events[0].InWorldTime)
	})
}
