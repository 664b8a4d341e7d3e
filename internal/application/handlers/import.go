package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
	"github.com/ersonp/canon-core/internal/domain/services"
	"github.com/ersonp/canon-core/internal/infrastructure/parsers"
)

// ImportHandler handles bulk event import from files.
type ImportHandler struct {
	eventService *services.EventService
	db           ports.RelationalDB
}

// NewImportHandler creates a new import handler.
func NewImportHandler(eventService *services.EventService, db ports.RelationalDB) *ImportHandler {
	return &ImportHandler{
		eventService: eventService,
		db:           db,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format string // "json", "csv", or "auto"
	DryRun bool   // Validate without saving
}

// ImportError describes a single event that failed to import.
type ImportError struct {
	Line    int
	Message string
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// Handle imports events from a file into a world. Continuities are referred
// to by name; events with no continuity go to the default timeline. A bad
// row is skipped and reported, it never aborts the rest of the file.
func (h *ImportHandler) Handle(ctx context.Context, worldID, filePath string, opts ImportOptions) (*ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	rawEvents, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(rawEvents) == 0 {
		return &ImportResult{}, nil
	}

	continuities, err := h.continuitiesByName(ctx, worldID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, raw := range rawEvents {
		input, err := h.buildInput(worldID, raw, continuities)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportError{Line: raw.LineNum, Message: err.Error()})
			continue
		}

		if opts.DryRun {
			result.Imported++
			continue
		}

		if _, err := h.eventService.Create(ctx, input); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportError{Line: raw.LineNum, Message: err.Error()})
			continue
		}
		result.Imported++
	}

	return result, nil
}

// continuitiesByName maps continuity names to IDs for a world.
func (h *ImportHandler) continuitiesByName(ctx context.Context, worldID string) (map[string]string, error) {
	continuities, err := h.db.ListContinuities(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("listing continuities: %w", err)
	}

	byName := make(map[string]string, len(continuities))
	for _, c := range continuities {
		byName[c.Name] = c.ID
	}
	return byName, nil
}

// buildInput validates a raw event and resolves its continuity name.
func (h *ImportHandler) buildInput(worldID string, raw parsers.RawEvent, continuities map[string]string) (services.CreateEventInput, error) {
	if raw.Name == "" {
		return services.CreateEventInput{}, fmt.Errorf("event name is required")
	}

	continuityName := raw.Continuity
	if continuityName == "" {
		continuityName = entities.DefaultContinuityName
	}

	continuityID, ok := continuities[continuityName]
	if !ok {
		return services.CreateEventInput{}, fmt.Errorf("continuity %q not found", continuityName)
	}

	return services.CreateEventInput{
		WorldID:      worldID,
		ContinuityID: continuityID,
		CampaignID:   raw.CampaignID,
		Name:         raw.Name,
		Description:  raw.Description,
		Secrets:      raw.Secrets,
		Tags:         raw.Tags,
		InWorldTime:  raw.InWorldTime,
		Outcomes:     entities.ParseOutcomes(raw.Outcomes),
	}, nil
}
