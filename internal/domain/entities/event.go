package entities

import "time"

// Event represents a canonical occurrence in a world's history. An event
// belongs to exactly one continuity and carries zero or more field-level
// outcomes serialized into the Outcomes blob.
//
// InWorldTime is an in-fiction time marker (e.g. "Y105-06") used to order
// events within a continuity. It is compared as a plain string, so all
// values within a world must share one sortable textual format. It is
// independent of the wall-clock CreatedAt.
type Event struct {
	ID           string    `json:"id"`
	WorldID      string    `json:"world_id"`
	ContinuityID string    `json:"continuity_id"`
	CampaignID   string    `json:"campaign_id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Secrets      string    `json:"secrets,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Outcomes     string    `json:"outcomes,omitempty"` // serialized []EventOutcome
	InWorldTime  string    `json:"in_world_time,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}
