package entities

import "time"

// Drift is a persisted mismatch between a record's live field value and
// the latest value the event timeline implies for that field within one
// continuity. At most one row exists per (EntityID, ContinuityID, Field);
// re-detection upserts in place. Resolved rows are kept as a closed audit
// trail until the owning record is deleted.
type Drift struct {
	ID                string     `json:"id"`
	EntityID          string     `json:"entity_id"`
	ContinuityID      string     `json:"continuity_id"`
	Field             string     `json:"field"`
	EventDerivedValue string     `json:"event_derived_value"`
	CurrentValue      string     `json:"current_value"`
	DetectedAt        time.Time  `json:"detected_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// Resolved reports whether the drift has been closed, either automatically
// by a later edit or manually by the GM.
func (d *Drift) Resolved() bool {
	return d.ResolvedAt != nil
}
