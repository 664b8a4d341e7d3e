package mocks

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
)

// LLM is a mock implementation of ports.LLMClient.
type LLM struct {
	Outcomes []entities.EventOutcome // returned for every call
	Texts    []string                // records the text of each call
	Err      error
}

// SuggestOutcomes returns the configured outcomes and records the input.
func (m *LLM) SuggestOutcomes(_ context.Context, text string) ([]entities.EventOutcome, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Texts = append(m.Texts, text)
	return m.Outcomes, nil
}
