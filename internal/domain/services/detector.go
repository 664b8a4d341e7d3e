// Package services contains domain business logic.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

// DefaultEventScanLimit bounds the event page loaded per rescan pass.
// It is large enough to approximate the full event log of a world.
const DefaultEventScanLimit = 5000

// DriftCheckInput describes an edit that was already persisted: which
// record changed, in which world, and the fields it changed.
type DriftCheckInput struct {
	EntityID      string
	WorldID       string
	ChangedFields []entities.FieldChange
}

// DriftCheckResult reports what a detection pass did. The counts are
// informational; callers never gate control flow on them.
type DriftCheckResult struct {
	DriftsDetected int
	DriftsResolved int
}

// DriftDetector reconciles live record state against event-derived canon.
// For every changed field it compares, per continuity, the latest value the
// event timeline implies and writes or clears drift rows accordingly.
//
// The derived-value index kept by the relational store serves as the fast
// path. When the index cannot be consulted, or the world has no continuity
// rows to enumerate, the detector falls back to a full event rescan, which
// is also the repair path the index is rebuilt from.
//
// Detection is advisory and best-effort: it runs after the edit has been
// persisted, never rejects or rolls back the edit, and degrades to a no-op
// when the event log or drift store is unavailable.
type DriftDetector struct {
	db     ports.RelationalDB
	drifts ports.DriftStore
}

// NewDriftDetector creates a new DriftDetector.
func NewDriftDetector(db ports.RelationalDB, drifts ports.DriftStore) *DriftDetector {
	return &DriftDetector{
		db:     db,
		drifts: drifts,
	}
}

// CheckForDrifts runs one detection pass for the given edit. Each
// continuity of the world is reconciled independently; there is no
// cross-continuity comparison.
func (d *DriftDetector) CheckForDrifts(ctx context.Context, input DriftCheckInput) DriftCheckResult {
	if input.EntityID == "" || len(input.ChangedFields) == 0 {
		return DriftCheckResult{}
	}

	if result, ok := d.checkByIndex(ctx, input); ok {
		return result
	}
	return d.checkByRescan(ctx, input)
}

// derivedKey identifies one reconciliation unit of a detection pass.
type derivedKey struct {
	continuityID string
	field        string
}

// checkByIndex reconciles against the derived-value index. It reports
// ok=false, without having written anything, when the index cannot answer
// for every key and the caller should rescan instead.
func (d *DriftDetector) checkByIndex(ctx context.Context, input DriftCheckInput) (DriftCheckResult, bool) {
	continuities, err := d.db.ListContinuities(ctx, input.WorldID)
	if err != nil || len(continuities) == 0 {
		return DriftCheckResult{}, false
	}

	// Gather every lookup before acting so a half-answered pass never
	// leaves partial writes behind.
	derived := make(map[derivedKey]*entities.DerivedValue, len(input.ChangedFields)*len(continuities))
	for _, change := range input.ChangedFields {
		for _, continuity := range continuities {
			key := derivedKey{continuityID: continuity.ID, field: change.Field}
			value, err := d.db.FindDerivedValue(ctx, continuity.ID, input.EntityID, change.Field)
			if err != nil {
				return DriftCheckResult{}, false
			}
			derived[key] = value
		}
	}

	var result DriftCheckResult
	for _, change := range input.ChangedFields {
		for _, continuity := range continuities {
			value := derived[derivedKey{continuityID: continuity.ID, field: change.Field}]
			if value == nil {
				d.reconcileMoot(ctx, input.EntityID, continuity.ID, change.Field)
				continue
			}
			d.reconcile(ctx, input.EntityID, continuity.ID, change, value.ToValue, &result)
		}
	}
	return result, true
}

// checkByRescan reconciles from a full event scan. This is the original
// derivation and stays the authority the index is measured against.
func (d *DriftDetector) checkByRescan(ctx context.Context, input DriftCheckInput) DriftCheckResult {
	var result DriftCheckResult

	events, err := d.db.FindEventsByWorld(ctx, input.WorldID, DefaultEventScanLimit)
	if err != nil {
		// A failed event load must never block the write path that
		// triggered detection; drift is recomputed on the next edit.
		return result
	}

	groups, order := groupByContinuity(events)

	for _, change := range input.ChangedFields {
		for _, continuityID := range order {
			derived, _, ok := entities.LatestDerivedValue(groups[continuityID], input.EntityID, change.Field)
			if !ok {
				d.reconcileMoot(ctx, input.EntityID, continuityID, change.Field)
				continue
			}
			d.reconcile(ctx, input.EntityID, continuityID, change, derived, &result)
		}
	}

	return result
}

// reconcile compares one changed field against the derived value for one
// continuity and writes or clears the drift row.
func (d *DriftDetector) reconcile(ctx context.Context, entityID, continuityID string, change entities.FieldChange, derived string, result *DriftCheckResult) {
	if derived != change.NewValue {
		drift := &entities.Drift{
			ID:                uuid.New().String(),
			EntityID:          entityID,
			ContinuityID:      continuityID,
			Field:             change.Field,
			EventDerivedValue: derived,
			CurrentValue:      change.NewValue,
			DetectedAt:        time.Now(),
		}
		if err := d.drifts.Save(ctx, drift); err == nil {
			result.DriftsDetected++
		}
		return
	}

	// The edit brought state back in line with canon.
	resolved, err := d.drifts.ResolveByMatch(ctx, entityID, continuityID, change.Field)
	if err == nil && resolved {
		result.DriftsResolved++
	}
}

// reconcileMoot closes any stale open row for a key no event targets
// anymore. No drift is possible without canon, so nothing is counted.
func (d *DriftDetector) reconcileMoot(ctx context.Context, entityID, continuityID, field string) {
	_, _ = d.drifts.ResolveByMatch(ctx, entityID, continuityID, field)
}

// groupByContinuity partitions events by continuity, preserving the order
// continuities are first seen in the scan.
func groupByContinuity(events []entities.Event) (map[string][]entities.Event, []string) {
	groups := make(map[string][]entities.Event)
	order := make([]string, 0, 4)
	for _, ev := range events {
		if _, seen := groups[ev.ContinuityID]; !seen {
			order = append(order, ev.ContinuityID)
		}
		groups[ev.ContinuityID] = append(groups[ev.ContinuityID], ev)
	}
	return groups, order
}
