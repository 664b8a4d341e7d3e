package entities

// DerivedValue is one entry of the derived-value index: the value the event
// timeline currently implies for a record field within one continuity,
// together with the in-world time of the winning outcome. The index is a
// cache over the event log; LatestDerivedValue is the source of truth it
// must agree with.
type DerivedValue struct {
	WorldID      string `json:"world_id"`
	ContinuityID string `json:"continuity_id"`
	EntityID     string `json:"entity_id"`
	Field        string `json:"field"`
	InWorldTime  string `json:"in_world_time"`
	ToValue      string `json:"to_value"`
}

// LatestDerivedValue scans a continuity's events, in creation order, for
// outcomes targeting the given record field and returns the value and
// in-world time of the one with the greatest InWorldTime. Ties go to the
// outcome seen last in the scan. Events with no InWorldTime carry no
// position on the timeline and are ignored. The last return value is false
// when no outcome matches.
func LatestDerivedValue(events []Event, entityID, field string) (string, string, bool) {
	var (
		best     string
		bestTime string
		found    bool
	)
	for _, ev := range events {
		if ev.InWorldTime == "" {
			continue
		}
		for _, outcome := range ParseOutcomes(ev.Outcomes) {
			if outcome.EntityID != entityID || outcome.Field != field {
				continue
			}
			if !found || ev.InWorldTime >= bestTime {
				best = outcome.ToValue
				bestTime = ev.InWorldTime
				found = true
			}
		}
	}
	return best, bestTime, found
}
