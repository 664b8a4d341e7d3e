// Package mocks provides in-memory implementations of the domain ports
// for use in tests.
package mocks

import (
	"context"
	"sort"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

// RelationalDB is a mock implementation of ports.RelationalDB.
type RelationalDB struct {
	Records      map[string]*entities.Record
	Continuities map[string]*entities.Continuity
	Events       []entities.Event // kept in insertion (creation) order
	Audit        []entities.AuditEntry

	Err        error // returned by every method when set
	EventsErr  error // returned by FindEventsByWorld when set
	DerivedErr error // returned by FindDerivedValue when set
}

// NewRelationalDB creates a new mock RelationalDB.
func NewRelationalDB() *RelationalDB {
	return &RelationalDB{
		Records:      make(map[string]*entities.Record),
		Continuities: make(map[string]*entities.Continuity),
	}
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *RelationalDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *RelationalDB) Close() error {
	return nil
}

// SaveRecord saves or updates a record.
func (m *RelationalDB) SaveRecord(_ context.Context, record *entities.Record) error {
	if m.Err != nil {
		return m.Err
	}
	m.Records[record.ID] = record
	return nil
}

// FindRecordByID finds a record by its ID.
func (m *RelationalDB) FindRecordByID(_ context.Context, recordID string) (*entities.Record, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records[recordID], nil
}

// FindRecordByName finds a record by its normalized name.
func (m *RelationalDB) FindRecordByName(_ context.Context, worldID, name string) (*entities.Record, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	normalized := entities.NormalizeName(name)
	for _, r := range m.Records {
		if r.WorldID == worldID && r.NormalizedName == normalized {
			return r, nil
		}
	}
	return nil, nil
}

// ListRecords lists records for a world with pagination.
func (m *RelationalDB) ListRecords(_ context.Context, worldID string, kind entities.RecordKind, limit, offset int) ([]*entities.Record, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]*entities.Record, 0, len(m.Records))
	for _, r := range m.Records {
		if r.WorldID != worldID {
			continue
		}
		if kind != "" && r.Kind != kind {
			continue
		}
		result = append(result, r)
	}
	// Sort by name for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	if offset >= len(result) {
		return []*entities.Record{}, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteRecord deletes a record by ID.
func (m *RelationalDB) DeleteRecord(_ context.Context, recordID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Records, recordID)
	return nil
}

// CountRecords returns the total number of records for a world.
func (m *RelationalDB) CountRecords(_ context.Context, worldID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, r := range m.Records {
		if r.WorldID == worldID {
			count++
		}
	}
	return count, nil
}

// SaveContinuity saves or updates a continuity.
func (m *RelationalDB) SaveContinuity(_ context.Context, continuity *entities.Continuity) error {
	if m.Err != nil {
		return m.Err
	}
	m.Continuities[continuity.ID] = continuity
	return nil
}

// FindContinuityByID finds a continuity by its ID.
func (m *RelationalDB) FindContinuityByID(_ context.Context, continuityID string) (*entities.Continuity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Continuities[continuityID], nil
}

// ListContinuities lists all continuities for a world.
func (m *RelationalDB) ListContinuities(_ context.Context, worldID string) ([]entities.Continuity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Continuity, 0, len(m.Continuities))
	for _, c := range m.Continuities {
		if c.WorldID == worldID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// DeleteContinuity deletes a continuity and its events.
func (m *RelationalDB) DeleteContinuity(_ context.Context, continuityID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Continuities, continuityID)
	kept := m.Events[:0]
	for _, ev := range m.Events {
		if ev.ContinuityID != continuityID {
			kept = append(kept, ev)
		}
	}
	m.Events = kept
	return nil
}

// SaveEvent saves or updates an event.
func (m *RelationalDB) SaveEvent(_ context.Context, event *entities.Event) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Events {
		if m.Events[i].ID == event.ID {
			m.Events[i] = *event
			return nil
		}
	}
	m.Events = append(m.Events, *event)
	return nil
}

// FindEventByID finds an event by its ID.
func (m *RelationalDB) FindEventByID(_ context.Context, eventID string) (*entities.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Events {
		if m.Events[i].ID == eventID {
			ev := m.Events[i]
			return &ev, nil
		}
	}
	return nil, nil
}

// FindEventsByWorld returns up to limit events for a world in insertion order.
func (m *RelationalDB) FindEventsByWorld(_ context.Context, worldID string, limit int) ([]entities.Event, error) {
	if m.EventsErr != nil {
		return nil, m.EventsErr
	}
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Event, 0, len(m.Events))
	for _, ev := range m.Events {
		if ev.WorldID == worldID {
			result = append(result, ev)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// FindEventsByContinuity returns up to limit events for a continuity.
func (m *RelationalDB) FindEventsByContinuity(_ context.Context, continuityID string, limit int) ([]entities.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Event, 0, len(m.Events))
	for _, ev := range m.Events {
		if ev.ContinuityID == continuityID {
			result = append(result, ev)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// DeleteEvent deletes an event by ID.
func (m *RelationalDB) DeleteEvent(_ context.Context, eventID string) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Events {
		if m.Events[i].ID == eventID {
			m.Events = append(m.Events[:i], m.Events[i+1:]...)
			return nil
		}
	}
	return nil
}

// FindDerivedValue computes the index entry on the fly from the stored
// events, so the mock index can never disagree with the mock event log.
func (m *RelationalDB) FindDerivedValue(_ context.Context, continuityID, entityID, field string) (*entities.DerivedValue, error) {
	if m.DerivedErr != nil {
		return nil, m.DerivedErr
	}
	if m.Err != nil {
		return nil, m.Err
	}
	var (
		events  []entities.Event
		worldID string
	)
	for _, ev := range m.Events {
		if ev.ContinuityID == continuityID {
			events = append(events, ev)
			worldID = ev.WorldID
		}
	}
	value, inWorldTime, ok := entities.LatestDerivedValue(events, entityID, field)
	if !ok {
		return nil, nil
	}
	return &entities.DerivedValue{
		WorldID:      worldID,
		ContinuityID: continuityID,
		EntityID:     entityID,
		Field:        field,
		InWorldTime:  inWorldTime,
		ToValue:      value,
	}, nil
}

// RebuildDerivedIndex is a no-op; the mock index is always derived fresh.
func (m *RelationalDB) RebuildDerivedIndex(_ context.Context, _ string) error {
	return m.Err
}

// LogAction logs an action to the audit log.
func (m *RelationalDB) LogAction(_ context.Context, action string, recordID string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:       int64(len(m.Audit) + 1),
		Action:   action,
		RecordID: recordID,
		Details:  details,
	})
	return nil
}

// FindAuditLog finds audit log entries for a specific record.
func (m *RelationalDB) FindAuditLog(_ context.Context, recordID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for _, e := range m.Audit {
		if e.RecordID == recordID {
			result = append(result, e)
		}
	}
	return result, nil
}
