// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
)

// RecordKind represents the category of a campaign record.
type RecordKind string

// Built-in record kinds.
const (
	RecordKindCharacter RecordKind = "character"
	RecordKindLocation  RecordKind = "location"
	RecordKindFaction   RecordKind = "faction"
	RecordKindSession   RecordKind = "session"
	RecordKindNote      RecordKind = "note"
)

// RecordKinds lists all valid record kinds.
var RecordKinds = []RecordKind{
	RecordKindCharacter,
	RecordKindLocation,
	RecordKindFaction,
	RecordKindSession,
	RecordKindNote,
}

// ValidRecordKind reports whether the given kind is one of the built-in kinds.
func ValidRecordKind(kind RecordKind) bool {
	for _, k := range RecordKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Record represents a mutable piece of campaign knowledge (a character,
// location, faction, session or note). Field values live in a free-form
// string map; the drift detector compares these against event-derived canon.
type Record struct {
	ID             string            `json:"id"`
	WorldID        string            `json:"world_id"`
	Kind           RecordKind        `json:"kind"`
	Name           string            `json:"name"`            // Original name (e.g., "Alice")
	NormalizedName string            `json:"normalized_name"` // Lowercase for matching (e.g., "alice")
	Fields         map[string]string `json:"fields,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ModifiedAt     time.Time         `json:"modified_at"`
}

// FieldChange describes one field edit applied to a record.
type FieldChange struct {
	Field    string `json:"field"`
	NewValue string `json:"new_value"`
}

// SetField applies a single field change to the record.
func (r *Record) SetField(field, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[field] = value
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
