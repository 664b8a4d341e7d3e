// Package sqlite provides a SQLite implementation of the RelationalDB and
// DriftStore interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
	"github.com/ersonp/canon-core/internal/infrastructure/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.RelationalDB and ports.DriftStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Records (live state of campaign entries: characters, locations, ...)
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		fields TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(world_id, normalized_name)
	);
	CREATE INDEX IF NOT EXISTS idx_records_world ON records(world_id);
	CREATE INDEX IF NOT EXISTS idx_records_kind ON records(world_id, kind);

	-- Continuities (timeline branches of a world)
	CREATE TABLE IF NOT EXISTS continuities (
		id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		branched_from_id TEXT,
		branch_point_event_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_continuities_world ON continuities(world_id);

	-- Events (canonical things that happened in a continuity)
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		continuity_id TEXT NOT NULL REFERENCES continuities(id) ON DELETE CASCADE,
		campaign_id TEXT,
		name TEXT NOT NULL,
		description TEXT,
		secrets TEXT,
		tags TEXT NOT NULL DEFAULT '[]',
		outcomes TEXT NOT NULL DEFAULT '[]',
		in_world_time TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_events_world ON events(world_id);
	CREATE INDEX IF NOT EXISTS idx_events_continuity ON events(continuity_id);

	-- Derived-value index (cache of the latest event-derived value per
	-- record field and continuity; kept current on every event write)
	CREATE TABLE IF NOT EXISTS derived_values (
		world_id TEXT NOT NULL,
		continuity_id TEXT NOT NULL REFERENCES continuities(id) ON DELETE CASCADE,
		entity_id TEXT NOT NULL,
		field TEXT NOT NULL,
		in_world_time TEXT NOT NULL,
		to_value TEXT NOT NULL,
		PRIMARY KEY (continuity_id, entity_id, field)
	);
	CREATE INDEX IF NOT EXISTS idx_derived_world ON derived_values(world_id);

	-- Drifts (divergence between live record state and event-derived canon)
	CREATE TABLE IF NOT EXISTS drifts (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		continuity_id TEXT NOT NULL REFERENCES continuities(id) ON DELETE CASCADE,
		field TEXT NOT NULL,
		event_derived_value TEXT NOT NULL,
		current_value TEXT NOT NULL,
		detected_at TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP,
		UNIQUE(entity_id, continuity_id, field)
	);
	CREATE INDEX IF NOT EXISTS idx_drifts_entity ON drifts(entity_id);
	CREATE INDEX IF NOT EXISTS idx_drifts_continuity ON drifts(continuity_id);
	CREATE INDEX IF NOT EXISTS idx_drifts_open ON drifts(entity_id) WHERE resolved_at IS NULL;

	-- Audit log (tracks all actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		record_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_record ON audit_log(record_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return r.repairDerivedIndex(ctx)
}

// repairDerivedIndex rebuilds the derived-value index when it is empty but
// events exist, which happens when a database predates the index.
func (r *Repository) repairDerivedIndex(ctx context.Context) error {
	var indexed int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM derived_values`).Scan(&indexed); err != nil {
		return fmt.Errorf("counting derived values: %w", err)
	}
	if indexed > 0 {
		return nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT world_id FROM events`)
	if err != nil {
		return fmt.Errorf("querying event worlds: %w", err)
	}
	defer rows.Close()

	var worlds []string
	for rows.Next() {
		var worldID string
		if err := rows.Scan(&worldID); err != nil {
			return fmt.Errorf("scanning world id: %w", err)
		}
		worlds = append(worlds, worldID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, worldID := range worlds {
		if err := r.RebuildDerivedIndex(ctx, worldID); err != nil {
			return err
		}
	}
	return nil
}

// SaveRecord saves or updates a record.
func (r *Repository) SaveRecord(ctx context.Context, record *entities.Record) error {
	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}

	query := `
		INSERT INTO records (id, world_id, kind, name, normalized_name, fields, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			fields = excluded.fields,
			modified_at = excluded.modified_at
	`
	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.WorldID,
		string(record.Kind),
		record.Name,
		record.NormalizedName,
		string(fields),
		record.CreatedAt,
		record.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// FindRecordByID finds a record by its ID.
func (r *Repository) FindRecordByID(ctx context.Context, recordID string) (*entities.Record, error) {
	query := `
		SELECT id, world_id, kind, name, normalized_name, fields, created_at, modified_at
		FROM records
		WHERE id = ?
	`
	return r.scanRecord(r.db.QueryRowContext(ctx, query, recordID))
}

// FindRecordByName finds a record by its normalized name (case-insensitive).
func (r *Repository) FindRecordByName(ctx context.Context, worldID, name string) (*entities.Record, error) {
	query := `
		SELECT id, world_id, kind, name, normalized_name, fields, created_at, modified_at
		FROM records
		WHERE world_id = ? AND normalized_name = ?
	`
	return r.scanRecord(r.db.QueryRowContext(ctx, query, worldID, entities.NormalizeName(name)))
}

// ListRecords lists records for a world with pagination, optionally filtered
// by kind.
func (r *Repository) ListRecords(ctx context.Context, worldID string, kind entities.RecordKind, limit, offset int) ([]*entities.Record, error) {
	query := `
		SELECT id, world_id, kind, name, normalized_name, fields, created_at, modified_at
		FROM records
		WHERE world_id = ? AND (? = '' OR kind = ?)
		ORDER BY name ASC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, worldID, string(kind), string(kind), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	result := make([]*entities.Record, 0, limit)
	for rows.Next() {
		record, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// DeleteRecord deletes a record by ID.
func (r *Repository) DeleteRecord(ctx context.Context, recordID string) error {
	query := `DELETE FROM records WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, recordID)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("record not found: %s", recordID)
	}
	return nil
}

// CountRecords returns the total number of records for a world.
func (r *Repository) CountRecords(ctx context.Context, worldID string) (int, error) {
	query := `SELECT COUNT(*) FROM records WHERE world_id = ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, worldID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRecord(row *sql.Row) (*entities.Record, error) {
	record, err := scanRecordRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

func scanRecordRow(s scanner) (*entities.Record, error) {
	var (
		record entities.Record
		kind   string
		fields string
	)
	if err := s.Scan(
		&record.ID,
		&record.WorldID,
		&kind,
		&record.Name,
		&record.NormalizedName,
		&fields,
		&record.CreatedAt,
		&record.ModifiedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	record.Kind = entities.RecordKind(kind)
	if err := json.Unmarshal([]byte(fields), &record.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields: %w", err)
	}
	return &record, nil
}

// SaveContinuity saves or updates a continuity.
func (r *Repository) SaveContinuity(ctx context.Context, continuity *entities.Continuity) error {
	query := `
		INSERT INTO continuities (id, world_id, name, description, branched_from_id, branch_point_event_id, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			modified_at = excluded.modified_at
	`
	_, err := r.db.ExecContext(ctx, query,
		continuity.ID,
		continuity.WorldID,
		continuity.Name,
		nullString(continuity.Description),
		nullString(continuity.BranchedFromID),
		nullString(continuity.BranchPointEventID),
		continuity.CreatedAt,
		continuity.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("saving continuity: %w", err)
	}
	return nil
}

// FindContinuityByID finds a continuity by its ID.
func (r *Repository) FindContinuityByID(ctx context.Context, continuityID string) (*entities.Continuity, error) {
	query := `
		SELECT id, world_id, name, description, branched_from_id, branch_point_event_id, created_at, modified_at
		FROM continuities
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, continuityID)

	continuity, err := scanContinuityRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return continuity, err
}

// ListContinuities lists all continuities for a world, oldest first.
func (r *Repository) ListContinuities(ctx context.Context, worldID string) ([]entities.Continuity, error) {
	query := `
		SELECT id, world_id, name, description, branched_from_id, branch_point_event_id, created_at, modified_at
		FROM continuities
		WHERE world_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying continuities: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Continuity, 0, 4)
	for rows.Next() {
		continuity, err := scanContinuityRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *continuity)
	}
	return result, rows.Err()
}

// DeleteContinuity deletes a continuity. Events and drift rows recorded in
// it go with it via foreign key cascade.
func (r *Repository) DeleteContinuity(ctx context.Context, continuityID string) error {
	query := `DELETE FROM continuities WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, continuityID)
	if err != nil {
		return fmt.Errorf("deleting continuity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("continuity not found: %s", continuityID)
	}
	return nil
}

func scanContinuityRow(s scanner) (*entities.Continuity, error) {
	var (
		continuity   entities.Continuity
		description  sql.NullString
		branchedFrom sql.NullString
		branchPoint  sql.NullString
	)
	if err := s.Scan(
		&continuity.ID,
		&continuity.WorldID,
		&continuity.Name,
		&description,
		&branchedFrom,
		&branchPoint,
		&continuity.CreatedAt,
		&continuity.ModifiedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning continuity: %w", err)
	}

	continuity.Description = description.String
	continuity.BranchedFromID = branchedFrom.String
	continuity.BranchPointEventID = branchPoint.String
	return &continuity, nil
}

// SaveEvent saves or updates an event and refreshes the derived-value
// index entries its outcomes touch.
func (r *Repository) SaveEvent(ctx context.Context, event *entities.Event) error {
	old, err := r.FindEventByID(ctx, event.ID)
	if err != nil {
		return err
	}

	tags, err := json.Marshal(event.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	query := `
		INSERT INTO events (id, world_id, continuity_id, campaign_id, name, description, secrets, tags, outcomes, in_world_time, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			secrets = excluded.secrets,
			tags = excluded.tags,
			outcomes = excluded.outcomes,
			in_world_time = excluded.in_world_time,
			modified_at = excluded.modified_at
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.WorldID,
		event.ContinuityID,
		nullString(event.CampaignID),
		event.Name,
		nullString(event.Description),
		nullString(event.Secrets),
		string(tags),
		event.Outcomes,
		nullString(event.InWorldTime),
		event.CreatedAt,
		event.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("saving event: %w", err)
	}

	keys := affectedDerivedKeys(old, event)
	return r.refreshDerivedKeys(ctx, event.WorldID, event.ContinuityID, keys)
}

// FindEventByID finds an event by its ID.
func (r *Repository) FindEventByID(ctx context.Context, eventID string) (*entities.Event, error) {
	query := eventSelect + ` WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, eventID)

	event, err := scanEventRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return event, err
}

// FindEventsByWorld returns up to limit events for a world in creation order.
func (r *Repository) FindEventsByWorld(ctx context.Context, worldID string, limit int) ([]entities.Event, error) {
	query := eventSelect + `
		WHERE world_id = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`
	return r.queryEvents(ctx, query, worldID, limit)
}

// FindEventsByContinuity returns up to limit events for a continuity in
// creation order.
func (r *Repository) FindEventsByContinuity(ctx context.Context, continuityID string, limit int) ([]entities.Event, error) {
	query := eventSelect + `
		WHERE continuity_id = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`
	return r.queryEvents(ctx, query, continuityID, limit)
}

// DeleteEvent deletes an event by ID and recomputes the derived-value
// index entries its outcomes were backing.
func (r *Repository) DeleteEvent(ctx context.Context, eventID string) error {
	event, err := r.FindEventByID(ctx, eventID)
	if err != nil {
		return err
	}

	query := `DELETE FROM events WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	if event == nil {
		return nil
	}
	keys := affectedDerivedKeys(event, nil)
	return r.refreshDerivedKeys(ctx, event.WorldID, event.ContinuityID, keys)
}

const eventSelect = `
	SELECT id, world_id, continuity_id, campaign_id, name, description, secrets, tags, outcomes, in_world_time, created_at, modified_at
	FROM events`

func (r *Repository) queryEvents(ctx context.Context, query string, args ...any) ([]entities.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []entities.Event
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func scanEventRow(s scanner) (*entities.Event, error) {
	var (
		event       entities.Event
		campaignID  sql.NullString
		description sql.NullString
		secrets     sql.NullString
		tags        string
		inWorldTime sql.NullString
	)
	if err := s.Scan(
		&event.ID,
		&event.WorldID,
		&event.ContinuityID,
		&campaignID,
		&event.Name,
		&description,
		&secrets,
		&tags,
		&event.Outcomes,
		&inWorldTime,
		&event.CreatedAt,
		&event.ModifiedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}

	event.CampaignID = campaignID.String
	event.Description = description.String
	event.Secrets = secrets.String
	event.InWorldTime = inWorldTime.String
	if err := json.Unmarshal([]byte(tags), &event.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	return &event, nil
}

// derivedScanLimit bounds the event page loaded when recomputing derived
// index entries. Matches the detection rescan bound.
const derivedScanLimit = 5000

// derivedKey identifies one derived-value index entry within a continuity.
type derivedKey struct {
	entityID string
	field    string
}

// affectedDerivedKeys returns the (entity, field) pairs whose index entries
// an event write or delete may have changed: everything the old and new
// outcome lists mention, deduplicated.
func affectedDerivedKeys(old, updated *entities.Event) []derivedKey {
	seen := make(map[derivedKey]bool)
	keys := make([]derivedKey, 0, 4)

	collect := func(event *entities.Event) {
		if event == nil {
			return
		}
		for _, outcome := range entities.ParseOutcomes(event.Outcomes) {
			key := derivedKey{entityID: outcome.EntityID, field: outcome.Field}
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}

	collect(old)
	collect(updated)
	return keys
}

// refreshDerivedKeys recomputes index entries for the given keys from the
// continuity's event log.
func (r *Repository) refreshDerivedKeys(ctx context.Context, worldID, continuityID string, keys []derivedKey) error {
	if len(keys) == 0 {
		return nil
	}

	events, err := r.FindEventsByContinuity(ctx, continuityID, derivedScanLimit)
	if err != nil {
		return err
	}

	for _, key := range keys {
		value, inWorldTime, ok := entities.LatestDerivedValue(events, key.entityID, key.field)
		if !ok {
			query := `DELETE FROM derived_values WHERE continuity_id = ? AND entity_id = ? AND field = ?`
			if _, err := r.db.ExecContext(ctx, query, continuityID, key.entityID, key.field); err != nil {
				return fmt.Errorf("clearing derived value: %w", err)
			}
			continue
		}

		query := `
			INSERT INTO derived_values (world_id, continuity_id, entity_id, field, in_world_time, to_value)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(continuity_id, entity_id, field) DO UPDATE SET
				in_world_time = excluded.in_world_time,
				to_value = excluded.to_value
		`
		if _, err := r.db.ExecContext(ctx, query, worldID, continuityID, key.entityID, key.field, inWorldTime, value); err != nil {
			return fmt.Errorf("saving derived value: %w", err)
		}
	}
	return nil
}

// FindDerivedValue returns the index entry for a key, nil when no event
// outcome targets it.
func (r *Repository) FindDerivedValue(ctx context.Context, continuityID, entityID, field string) (*entities.DerivedValue, error) {
	query := `
		SELECT world_id, continuity_id, entity_id, field, in_world_time, to_value
		FROM derived_values
		WHERE continuity_id = ? AND entity_id = ? AND field = ?
	`
	var value entities.DerivedValue
	err := r.db.QueryRowContext(ctx, query, continuityID, entityID, field).Scan(
		&value.WorldID,
		&value.ContinuityID,
		&value.EntityID,
		&value.Field,
		&value.InWorldTime,
		&value.ToValue,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying derived value: %w", err)
	}
	return &value, nil
}

// RebuildDerivedIndex recomputes a world's derived-value index from its
// event log. This is the repair path for databases whose index is missing
// or suspect.
func (r *Repository) RebuildDerivedIndex(ctx context.Context, worldID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM derived_values WHERE world_id = ?`, worldID); err != nil {
		return fmt.Errorf("clearing derived index: %w", err)
	}

	events, err := r.FindEventsByWorld(ctx, worldID, derivedScanLimit)
	if err != nil {
		return err
	}

	byContinuity := make(map[string][]derivedKey)
	seen := make(map[string]map[derivedKey]bool)
	for _, event := range events {
		if seen[event.ContinuityID] == nil {
			seen[event.ContinuityID] = make(map[derivedKey]bool)
		}
		for _, outcome := range entities.ParseOutcomes(event.Outcomes) {
			key := derivedKey{entityID: outcome.EntityID, field: outcome.Field}
			if !seen[event.ContinuityID][key] {
				seen[event.ContinuityID][key] = true
				byContinuity[event.ContinuityID] = append(byContinuity[event.ContinuityID], key)
			}
		}
	}

	for continuityID, keys := range byContinuity {
		if err := r.refreshDerivedKeys(ctx, worldID, continuityID, keys); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts a drift row. At most one row exists per
// (entity_id, continuity_id, field); re-detection refreshes the values of
// the existing row, keeps its ID, and reopens it.
func (r *Repository) Save(ctx context.Context, drift *entities.Drift) error {
	query := `
		INSERT INTO drifts (id, entity_id, continuity_id, field, event_derived_value, current_value, detected_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(entity_id, continuity_id, field) DO UPDATE SET
			event_derived_value = excluded.event_derived_value,
			current_value = excluded.current_value,
			detected_at = excluded.detected_at,
			resolved_at = NULL
	`
	_, err := r.db.ExecContext(ctx, query,
		drift.ID,
		drift.EntityID,
		drift.ContinuityID,
		drift.Field,
		drift.EventDerivedValue,
		drift.CurrentValue,
		drift.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("saving drift: %w", err)
	}
	return nil
}

// FindByEntity returns all drift rows for a record, resolved included.
func (r *Repository) FindByEntity(ctx context.Context, entityID string) ([]entities.Drift, error) {
	query := driftSelect + ` WHERE entity_id = ? ORDER BY detected_at DESC`
	return r.queryDrifts(ctx, query, entityID)
}

// FindByContinuity returns all drift rows for a continuity, resolved included.
func (r *Repository) FindByContinuity(ctx context.Context, continuityID string) ([]entities.Drift, error) {
	query := driftSelect + ` WHERE continuity_id = ? ORDER BY detected_at DESC`
	return r.queryDrifts(ctx, query, continuityID)
}

// FindUnresolved returns open drift rows matching the filter.
func (r *Repository) FindUnresolved(ctx context.Context, filter ports.DriftFilter) ([]entities.Drift, error) {
	query := driftSelect + `
		WHERE resolved_at IS NULL
		AND (? = '' OR entity_id = ?)
		AND (? = '' OR continuity_id = ?)
		ORDER BY detected_at DESC
	`
	return r.queryDrifts(ctx, query, filter.EntityID, filter.EntityID, filter.ContinuityID, filter.ContinuityID)
}

// Resolve marks one drift row resolved by its ID.
func (r *Repository) Resolve(ctx context.Context, driftID string) error {
	query := `UPDATE drifts SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, timeNow(), driftID)
	if err != nil {
		return fmt.Errorf("resolving drift: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("open drift not found: %s", driftID)
	}
	return nil
}

// ResolveByMatch marks the open drift row for a triple resolved. It reports
// whether a row was actually resolved.
func (r *Repository) ResolveByMatch(ctx context.Context, entityID, continuityID, field string) (bool, error) {
	query := `
		UPDATE drifts SET resolved_at = ?
		WHERE entity_id = ? AND continuity_id = ? AND field = ? AND resolved_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, timeNow(), entityID, continuityID, field)
	if err != nil {
		return false, fmt.Errorf("resolving drift by match: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return rows > 0, nil
}

// DeleteByEntity removes all drift rows for a record.
func (r *Repository) DeleteByEntity(ctx context.Context, entityID string) error {
	query := `DELETE FROM drifts WHERE entity_id = ?`
	if _, err := r.db.ExecContext(ctx, query, entityID); err != nil {
		return fmt.Errorf("deleting drifts by entity: %w", err)
	}
	return nil
}

const driftSelect = `
	SELECT id, entity_id, continuity_id, field, event_derived_value, current_value, detected_at, resolved_at
	FROM drifts`

func (r *Repository) queryDrifts(ctx context.Context, query string, args ...any) ([]entities.Drift, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying drifts: %w", err)
	}
	defer rows.Close()

	var drifts []entities.Drift
	for rows.Next() {
		var (
			drift      entities.Drift
			resolvedAt sql.NullTime
		)
		if err := rows.Scan(
			&drift.ID,
			&drift.EntityID,
			&drift.ContinuityID,
			&drift.Field,
			&drift.EventDerivedValue,
			&drift.CurrentValue,
			&drift.DetectedAt,
			&resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning drift: %w", err)
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			drift.ResolvedAt = &t
		}
		drifts = append(drifts, drift)
	}
	return drifts, rows.Err()
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, recordID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, record_id, details) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, action, nullString(recordID), detailsJSON)
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific record.
func (r *Repository) FindAuditLog(ctx context.Context, recordID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, record_id, details, created_at
		FROM audit_log
		WHERE record_id = ?
		ORDER BY id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var (
			entry   entities.AuditEntry
			rid     sql.NullString
			details sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&rid,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.RecordID = rid.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// nullString wraps a string so empty values are stored as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
