package ports

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

// RelationalDB defines the interface for relational database operations.
// It holds the mutable campaign state: records, continuities, events and
// the audit log. Drift rows live behind the separate DriftStore interface.
type RelationalDB interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Record operations

	// SaveRecord saves or updates a record.
	SaveRecord(ctx context.Context, record *entities.Record) error

	// FindRecordByID finds a record by its ID. Returns nil if not found.
	FindRecordByID(ctx context.Context, recordID string) (*entities.Record, error)

	// FindRecordByName finds a record by its normalized name (case-insensitive).
	FindRecordByName(ctx context.Context, worldID, name string) (*entities.Record, error)

	// ListRecords lists records for a world with pagination.
	// An empty kind matches all kinds.
	ListRecords(ctx context.Context, worldID string, kind entities.RecordKind, limit, offset int) ([]*entities.Record, error)

	// DeleteRecord deletes a record by ID.
	DeleteRecord(ctx context.Context, recordID string) error

	// CountRecords returns the total number of records for a world.
	CountRecords(ctx context.Context, worldID string) (int, error)

	// Continuity operations

	// SaveContinuity saves or updates a continuity.
	SaveContinuity(ctx context.Context, continuity *entities.Continuity) error

	// FindContinuityByID finds a continuity by its ID. Returns nil if not found.
	FindContinuityByID(ctx context.Context, continuityID string) (*entities.Continuity, error)

	// ListContinuities lists all continuities for a world.
	ListContinuities(ctx context.Context, worldID string) ([]entities.Continuity, error)

	// DeleteContinuity deletes a continuity by ID, cascading to its events
	// and any drift rows keyed to it.
	DeleteContinuity(ctx context.Context, continuityID string) error

	// Event operations

	// SaveEvent saves or updates an event.
	SaveEvent(ctx context.Context, event *entities.Event) error

	// FindEventByID finds an event by its ID. Returns nil if not found.
	FindEventByID(ctx context.Context, eventID string) (*entities.Event, error)

	// FindEventsByWorld returns up to limit events for a world in creation
	// order. Callers that need the full event log pass a bound large enough
	// to approximate it.
	FindEventsByWorld(ctx context.Context, worldID string, limit int) ([]entities.Event, error)

	// FindEventsByContinuity returns up to limit events for a continuity
	// in creation order.
	FindEventsByContinuity(ctx context.Context, continuityID string, limit int) ([]entities.Event, error)

	// DeleteEvent deletes an event by ID.
	DeleteEvent(ctx context.Context, eventID string) error

	// Derived-value index. The index caches, per (continuity, entity,
	// field), the latest event-derived value so detection does not rescan
	// the event log on every edit. Implementations keep it current on
	// every event write and delete; RebuildDerivedIndex is the repair
	// path when the cache is suspect.

	// FindDerivedValue returns the index entry for a key. Returns nil if
	// no event outcome targets the key.
	FindDerivedValue(ctx context.Context, continuityID, entityID, field string) (*entities.DerivedValue, error)

	// RebuildDerivedIndex recomputes a world's index from its event log.
	RebuildDerivedIndex(ctx context.Context, worldID string) error

	// Audit log

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, recordID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a specific record.
	FindAuditLog(ctx context.Context, recordID string) ([]entities.AuditEntry, error)
}
