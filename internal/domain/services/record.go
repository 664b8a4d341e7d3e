package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

// RecordService manages campaign records and triggers drift detection
// after field edits.
type RecordService struct {
	db       ports.RelationalDB
	drifts   ports.DriftStore
	detector *DriftDetector
}

// NewRecordService creates a new RecordService.
func NewRecordService(db ports.RelationalDB, drifts ports.DriftStore, detector *DriftDetector) *RecordService {
	return &RecordService{
		db:       db,
		drifts:   drifts,
		detector: detector,
	}
}

// Create creates a new record in a world.
func (s *RecordService) Create(ctx context.Context, worldID string, kind entities.RecordKind, name string) (*entities.Record, error) {
	if !entities.ValidRecordKind(kind) {
		return nil, fmt.Errorf("invalid record kind: %s", kind)
	}

	existing, err := s.db.FindRecordByName(ctx, worldID, name)
	if err != nil {
		return nil, fmt.Errorf("checking existing record: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("record %q already exists in world (id: %s)", name, existing.ID)
	}

	now := time.Now()
	record := &entities.Record{
		ID:             uuid.New().String(),
		WorldID:        worldID,
		Kind:           kind,
		Name:           name,
		NormalizedName: entities.NormalizeName(name),
		Fields:         make(map[string]string),
		CreatedAt:      now,
		ModifiedAt:     now,
	}

	if err := s.db.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("saving record: %w", err)
	}

	if err := s.db.LogAction(ctx, "record.create", record.ID, map[string]any{"name": name, "kind": string(kind)}); err != nil {
		return nil, fmt.Errorf("logging record creation: %w", err)
	}

	return record, nil
}

// SetFields applies field changes to a record, persists it, then runs drift
// detection for the changed fields. The detection result is informational:
// the edit has already succeeded by the time detection runs, and a failed
// detection pass never surfaces as an error.
func (s *RecordService) SetFields(ctx context.Context, recordID string, changes []entities.FieldChange) (*entities.Record, DriftCheckResult, error) {
	record, err := s.db.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, DriftCheckResult{}, fmt.Errorf("finding record: %w", err)
	}
	if record == nil {
		return nil, DriftCheckResult{}, fmt.Errorf("record not found: %s", recordID)
	}

	fields := make([]string, 0, len(changes))
	for _, change := range changes {
		record.SetField(change.Field, change.NewValue)
		fields = append(fields, change.Field)
	}
	record.ModifiedAt = time.Now()

	if err := s.db.SaveRecord(ctx, record); err != nil {
		return nil, DriftCheckResult{}, fmt.Errorf("saving record: %w", err)
	}

	if err := s.db.LogAction(ctx, "record.set_fields", record.ID, map[string]any{"fields": fields}); err != nil {
		return nil, DriftCheckResult{}, fmt.Errorf("logging field change: %w", err)
	}

	result := s.detector.CheckForDrifts(ctx, DriftCheckInput{
		EntityID:      record.ID,
		WorldID:       record.WorldID,
		ChangedFields: changes,
	})

	return record, result, nil
}

// Get finds a record by ID.
func (s *RecordService) Get(ctx context.Context, recordID string) (*entities.Record, error) {
	return s.db.FindRecordByID(ctx, recordID)
}

// GetByName finds a record by name (case-insensitive).
func (s *RecordService) GetByName(ctx context.Context, worldID, name string) (*entities.Record, error) {
	return s.db.FindRecordByName(ctx, worldID, name)
}

// List lists records for a world, optionally filtered by kind.
func (s *RecordService) List(ctx context.Context, worldID string, kind entities.RecordKind, limit, offset int) ([]*entities.Record, error) {
	return s.db.ListRecords(ctx, worldID, kind, limit, offset)
}

// Count returns the total number of records in a world.
func (s *RecordService) Count(ctx context.Context, worldID string) (int, error) {
	return s.db.CountRecords(ctx, worldID)
}

// Delete removes a record and purges all of its drift rows.
func (s *RecordService) Delete(ctx context.Context, recordID string) error {
	record, err := s.db.FindRecordByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("finding record: %w", err)
	}
	if record == nil {
		return fmt.Errorf("record not found: %s", recordID)
	}

	if err := s.db.DeleteRecord(ctx, recordID); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	if err := s.drifts.DeleteByEntity(ctx, recordID); err != nil {
		return fmt.Errorf("purging drift rows: %w", err)
	}

	if err := s.db.LogAction(ctx, "record.delete", recordID, map[string]any{"name": record.Name}); err != nil {
		return fmt.Errorf("logging record deletion: %w", err)
	}

	return nil
}
