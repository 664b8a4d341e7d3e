package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/services"
)

// SuggestHandler proposes event outcomes from session notes.
type SuggestHandler struct {
	suggestionService *services.SuggestionService
}

// NewSuggestHandler creates a new suggest handler.
func NewSuggestHandler(suggestionService *services.SuggestionService) *SuggestHandler {
	return &SuggestHandler{
		suggestionService: suggestionService,
	}
}

// HandleText suggests outcomes for a block of text.
func (h *SuggestHandler) HandleText(ctx context.Context, text string) ([]entities.EventOutcome, error) {
	return h.suggestionService.SuggestOutcomes(ctx, text)
}

// HandleFile suggests outcomes for the contents of a notes file.
func (h *SuggestHandler) HandleFile(ctx context.Context, filePath string) ([]entities.EventOutcome, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return h.suggestionService.SuggestOutcomes(ctx, string(data))
}
