package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses events from JSON format.
type JSONParser struct{}

// rawEventJSON mirrors RawEvent with outcomes kept as raw JSON so malformed
// outcome lists survive to the outcome codec instead of failing the import.
type rawEventJSON struct {
	RawEvent
	Outcomes json.RawMessage `json:"outcomes,omitempty"`
}

// Parse reads a JSON array of events from the reader.
func (p *JSONParser) Parse(r io.Reader) ([]RawEvent, error) {
	var raw []rawEventJSON

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	events := make([]RawEvent, len(raw))
	for i := range raw {
		events[i] = raw[i].RawEvent
		events[i].Outcomes = string(raw[i].Outcomes)
		// Line numbers are array indexes, 1-indexed
		events[i].LineNum = i + 1
	}

	return events, nil
}
