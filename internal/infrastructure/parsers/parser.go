// Package parsers provides parsers for importing events from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawEvent represents an event parsed from an external source before
// validation. Continuity refers to a continuity by name; the import layer
// resolves it to an ID.
type RawEvent struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Secrets     string   `json:"secrets,omitempty"`
	Continuity  string   `json:"continuity,omitempty"`
	CampaignID  string   `json:"campaign_id,omitempty"`
	InWorldTime string   `json:"in_world_time,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Outcomes    string   `json:"-"` // Raw outcome JSON, decoded by the outcome codec
	LineNum     int      `json:"-"` // Position in source file (set by parser)
}

// Parser defines the interface for parsing events from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawEvent, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
