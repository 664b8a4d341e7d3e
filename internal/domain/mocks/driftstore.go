package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

// DriftStore is a mock implementation of ports.DriftStore keyed by the
// (entityID, continuityID, field) triple, mirroring the unique index the
// real store enforces.
type DriftStore struct {
	Drifts map[string]*entities.Drift

	Err     error // returned by every method when set
	SaveErr error // returned by Save when set
}

// NewDriftStore creates a new mock DriftStore.
func NewDriftStore() *DriftStore {
	return &DriftStore{Drifts: make(map[string]*entities.Drift)}
}

func driftKey(entityID, continuityID, field string) string {
	return entityID + "\x00" + continuityID + "\x00" + field
}

// Save upserts a drift keyed by the triple, keeping the existing row ID.
func (m *DriftStore) Save(_ context.Context, drift *entities.Drift) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.Err != nil {
		return m.Err
	}
	key := driftKey(drift.EntityID, drift.ContinuityID, drift.Field)
	stored := *drift
	if existing, ok := m.Drifts[key]; ok {
		stored.ID = existing.ID
	}
	stored.ResolvedAt = nil
	m.Drifts[key] = &stored
	return nil
}

// FindByEntity returns all drift rows for a record.
func (m *DriftStore) FindByEntity(_ context.Context, entityID string) ([]entities.Drift, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.collect(func(d *entities.Drift) bool { return d.EntityID == entityID }), nil
}

// FindByContinuity returns all drift rows for a continuity.
func (m *DriftStore) FindByContinuity(_ context.Context, continuityID string) ([]entities.Drift, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.collect(func(d *entities.Drift) bool { return d.ContinuityID == continuityID }), nil
}

// FindUnresolved returns open drift rows matching the filter.
func (m *DriftStore) FindUnresolved(_ context.Context, filter ports.DriftFilter) ([]entities.Drift, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.collect(func(d *entities.Drift) bool {
		if d.Resolved() {
			return false
		}
		if filter.EntityID != "" && d.EntityID != filter.EntityID {
			return false
		}
		if filter.ContinuityID != "" && d.ContinuityID != filter.ContinuityID {
			return false
		}
		return true
	}), nil
}

// Resolve sets ResolvedAt for one row by identity.
func (m *DriftStore) Resolve(_ context.Context, driftID string) error {
	if m.Err != nil {
		return m.Err
	}
	for _, d := range m.Drifts {
		if d.ID == driftID {
			now := time.Now()
			d.ResolvedAt = &now
			return nil
		}
	}
	return nil
}

// ResolveByMatch sets ResolvedAt for the one open row matching the triple.
func (m *DriftStore) ResolveByMatch(_ context.Context, entityID, continuityID, field string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	d, ok := m.Drifts[driftKey(entityID, continuityID, field)]
	if !ok || d.Resolved() {
		return false, nil
	}
	now := time.Now()
	d.ResolvedAt = &now
	return true, nil
}

// DeleteByEntity removes all drift rows for a record.
func (m *DriftStore) DeleteByEntity(_ context.Context, entityID string) error {
	if m.Err != nil {
		return m.Err
	}
	for key, d := range m.Drifts {
		if d.EntityID == entityID {
			delete(m.Drifts, key)
		}
	}
	return nil
}

// Open returns the open drift row for a triple, or nil. Test helper.
func (m *DriftStore) Open(entityID, continuityID, field string) *entities.Drift {
	d, ok := m.Drifts[driftKey(entityID, continuityID, field)]
	if !ok || d.Resolved() {
		return nil
	}
	return d
}

func (m *DriftStore) collect(match func(*entities.Drift) bool) []entities.Drift {
	result := make([]entities.Drift, 0, len(m.Drifts))
	for _, d := range m.Drifts {
		if match(d) {
			result = append(result, *d)
		}
	}
	// Sort for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		if result[i].EntityID != result[j].EntityID {
			return result[i].EntityID < result[j].EntityID
		}
		if result[i].ContinuityID != result[j].ContinuityID {
			return result[i].ContinuityID < result[j].ContinuityID
		}
		return result[i].Field < result[j].Field
	})
	return result
}
