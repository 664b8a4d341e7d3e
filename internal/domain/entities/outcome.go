package entities

import "encoding/json"

// EventOutcome is a single field-level effect of an event on a target
// record: "entity X's field F became value V". Outcomes reference records
// by id and field name as opaque strings; a reference to a record or field
// that does not exist simply never matches during drift detection.
type EventOutcome struct {
	EntityID    string `json:"entityID"`
	Field       string `json:"field"`
	FromValue   string `json:"fromValue,omitempty"`
	ToValue     string `json:"toValue"`
	Description string `json:"description,omitempty"`
}

// ParseOutcomes decodes a serialized outcome list. The parse is total:
// empty input, non-JSON garbage and non-array JSON all yield an empty
// list, and array elements missing a string entityID, field or toValue
// are silently dropped. Malformed historical data must never block a
// write, so this never returns an error.
func ParseOutcomes(text string) []EventOutcome {
	if text == "" {
		return []EventOutcome{}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elems); err != nil {
		return []EventOutcome{}
	}

	outcomes := make([]EventOutcome, 0, len(elems))
	for _, elem := range elems {
		var raw map[string]any
		if err := json.Unmarshal(elem, &raw); err != nil {
			continue
		}

		entityID, ok := raw["entityID"].(string)
		if !ok {
			continue
		}
		field, ok := raw["field"].(string)
		if !ok {
			continue
		}
		toValue, ok := raw["toValue"].(string)
		if !ok {
			continue
		}

		outcome := EventOutcome{
			EntityID: entityID,
			Field:    field,
			ToValue:  toValue,
		}
		if fromValue, ok := raw["fromValue"].(string); ok {
			outcome.FromValue = fromValue
		}
		if description, ok := raw["description"].(string); ok {
			outcome.Description = description
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// SerializeOutcomes encodes an outcome list for storage on an event.
// The encoding is order-preserving and round-trips with ParseOutcomes
// for any list built from valid outcomes.
func SerializeOutcomes(outcomes []EventOutcome) string {
	if len(outcomes) == 0 {
		return "[]"
	}
	data, err := json.Marshal(outcomes)
	if err != nil {
		// EventOutcome contains only strings; marshaling cannot fail.
		return "[]"
	}
	return string(data)
}
