package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses events from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed events.
// Expected columns: name, description, secrets, continuity, campaign_id,
// in_world_time, tags (semicolon-separated), outcomes (JSON array text).
func (p *CSVParser) Parse(r io.Reader) ([]RawEvent, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[col] = i
	}

	if _, ok := colIndex["name"]; !ok {
		return nil, fmt.Errorf("missing required column: name")
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawEvents.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawEvent, error) {
	var events []RawEvent
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		event := RawEvent{
			Name:        getColumn(record, colIndex, "name"),
			Description: getColumn(record, colIndex, "description"),
			Secrets:     getColumn(record, colIndex, "secrets"),
			Continuity:  getColumn(record, colIndex, "continuity"),
			CampaignID:  getColumn(record, colIndex, "campaign_id"),
			InWorldTime: getColumn(record, colIndex, "in_world_time"),
			Outcomes:    getColumn(record, colIndex, "outcomes"),
			LineNum:     lineNum,
		}

		if tags := getColumn(record, colIndex, "tags"); tags != "" {
			for _, tag := range strings.Split(tags, ";") {
				if tag = strings.TrimSpace(tag); tag != "" {
					event.Tags = append(event.Tags, tag)
				}
			}
		}

		events = append(events, event)
	}

	return events, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
