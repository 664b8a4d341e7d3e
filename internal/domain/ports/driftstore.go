package ports

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

// DriftFilter narrows unresolved-drift queries. Zero-value fields match
// everything.
type DriftFilter struct {
	EntityID     string
	ContinuityID string
}

// DriftStore defines the persistence contract for drift rows. The store
// must enforce at most one row per (entityID, continuityID, field).
type DriftStore interface {
	// Save upserts a drift keyed by (EntityID, ContinuityID, Field).
	// On conflict it overwrites the value fields and DetectedAt and clears
	// ResolvedAt; the existing row's ID is kept.
	Save(ctx context.Context, drift *entities.Drift) error

	// FindByEntity returns all drift rows for a record, open and resolved.
	FindByEntity(ctx context.Context, entityID string) ([]entities.Drift, error)

	// FindByContinuity returns all drift rows for a continuity.
	FindByContinuity(ctx context.Context, continuityID string) ([]entities.Drift, error)

	// FindUnresolved returns open drift rows (ResolvedAt is null) matching
	// the filter.
	FindUnresolved(ctx context.Context, filter DriftFilter) ([]entities.Drift, error)

	// Resolve sets ResolvedAt to now for one row by identity.
	Resolve(ctx context.Context, driftID string) error

	// ResolveByMatch sets ResolvedAt to now for the one open row matching
	// the triple. It reports whether a row was actually resolved; a no-op
	// when none is open.
	ResolveByMatch(ctx context.Context, entityID, continuityID, field string) (bool, error)

	// DeleteByEntity removes all drift rows for a record, called when the
	// record itself is deleted.
	DeleteByEntity(ctx context.Context, entityID string) error
}
