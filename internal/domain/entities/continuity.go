package entities

import (
	"errors"
	"time"
)

// DefaultContinuityName is the name given to the continuity seeded when a
// world is created, and to continuities created while migrating legacy data.
const DefaultContinuityName = "Default Timeline"

// Continuity represents one timeline branch of a world's history.
// A continuity is either a root timeline, or a fork of another continuity
// at a specific event (both branch fields set).
type Continuity struct {
	ID                 string    `json:"id"`
	WorldID            string    `json:"world_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	BranchedFromID     string    `json:"branched_from_id,omitempty"`
	BranchPointEventID string    `json:"branch_point_event_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	ModifiedAt         time.Time `json:"modified_at"`
}

// ErrInvalidBranchPoint indicates a continuity with only one of the two
// branch reference fields set.
var ErrInvalidBranchPoint = errors.New("branched_from_id and branch_point_event_id must both be set or both be empty")

// Validate checks the branch-point invariant.
func (c *Continuity) Validate() error {
	if (c.BranchedFromID == "") != (c.BranchPointEventID == "") {
		return ErrInvalidBranchPoint
	}
	return nil
}

// IsBranch reports whether this continuity forked from another.
func (c *Continuity) IsBranch() bool {
	return c.BranchedFromID != ""
}
