// Package handlers contains application use case handlers.
package handlers

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
	"github.com/ersonp/canon-core/internal/domain/services"
)

// RecordHandler handles record operations at the application layer.
type RecordHandler struct {
	recordService *services.RecordService
	drifts        ports.DriftStore
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(recordService *services.RecordService, drifts ports.DriftStore) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
		drifts:        drifts,
	}
}

// RecordSetResult contains the result of a field edit.
type RecordSetResult struct {
	Record         *entities.Record `json:"record"`
	DriftsDetected int              `json:"driftsDetected"`
	DriftsResolved int              `json:"driftsResolved"`
}

// RecordShowResult contains a record together with its open drift rows.
type RecordShowResult struct {
	Record *entities.Record `json:"record"`
	Drifts []entities.Drift `json:"drifts"`
}

// RecordListResult contains the result of listing records.
type RecordListResult struct {
	Records []*entities.Record `json:"records"`
	Total   int                `json:"total"`
}

// HandleCreate creates a new record.
func (h *RecordHandler) HandleCreate(ctx context.Context, worldID string, kind entities.RecordKind, name string) (*entities.Record, error) {
	return h.recordService.Create(ctx, worldID, kind, name)
}

// HandleSet applies field changes and reports the drift the edit caused
// or cleared.
func (h *RecordHandler) HandleSet(ctx context.Context, recordID string, changes []entities.FieldChange) (*RecordSetResult, error) {
	record, result, err := h.recordService.SetFields(ctx, recordID, changes)
	if err != nil {
		return nil, err
	}

	return &RecordSetResult{
		Record:         record,
		DriftsDetected: result.DriftsDetected,
		DriftsResolved: result.DriftsResolved,
	}, nil
}

// HandleShow returns a record with its open drift rows.
func (h *RecordHandler) HandleShow(ctx context.Context, recordID string) (*RecordShowResult, error) {
	record, err := h.recordService.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	drifts, err := h.drifts.FindUnresolved(ctx, ports.DriftFilter{EntityID: recordID})
	if err != nil {
		return nil, err
	}

	return &RecordShowResult{
		Record: record,
		Drifts: drifts,
	}, nil
}

// HandleGetByName finds a record by name.
func (h *RecordHandler) HandleGetByName(ctx context.Context, worldID, name string) (*entities.Record, error) {
	return h.recordService.GetByName(ctx, worldID, name)
}

// HandleList returns records for a world with pagination.
func (h *RecordHandler) HandleList(ctx context.Context, worldID string, kind entities.RecordKind, limit, offset int) (*RecordListResult, error) {
	records, err := h.recordService.List(ctx, worldID, kind, limit, offset)
	if err != nil {
		return nil, err
	}

	count, err := h.recordService.Count(ctx, worldID)
	if err != nil {
		return nil, err
	}

	return &RecordListResult{
		Records: records,
		Total:   count,
	}, nil
}

// HandleDelete removes a record and its drift rows.
func (h *RecordHandler) HandleDelete(ctx context.Context, recordID string) error {
	return h.recordService.Delete(ctx, recordID)
}
