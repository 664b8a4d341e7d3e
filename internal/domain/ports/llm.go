// Package ports defines interfaces for external service communication.
package ports

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

// LLMClient defines the interface for LLM operations.
type LLMClient interface {
	// SuggestOutcomes proposes field-level outcomes from session-log text.
	// Suggestions are advisory; the GM reviews them before attaching them
	// to an event.
	SuggestOutcomes(ctx context.Context, text string) ([]entities.EventOutcome, error)
}
