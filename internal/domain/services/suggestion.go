package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

const (
	// DefaultChunkSize is the default size for text chunks.
	DefaultChunkSize = 2000
	// DefaultChunkOverlap is the default overlap between chunks.
	DefaultChunkOverlap = 200
)

// SuggestionService proposes event outcomes from free-form session notes.
// Suggestions are drafts for the user to review; nothing is persisted here.
type SuggestionService struct {
	llm ports.LLMClient
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(llm ports.LLMClient) *SuggestionService {
	return &SuggestionService{llm: llm}
}

// SuggestOutcomes extracts candidate outcomes from text.
// Note: LLM calls in loop are intentional - LLMs have token limits, so text
// must be chunked and each chunk processed separately. Cannot be batched.
func (s *SuggestionService) SuggestOutcomes(ctx context.Context, text string) ([]entities.EventOutcome, error) {
	chunks := ChunkText(text, DefaultChunkSize, DefaultChunkOverlap)

	var all []entities.EventOutcome
	for i, chunk := range chunks {
		//nolint:loopcall // LLM has token limits, must process chunks separately
		outcomes, err := s.llm.SuggestOutcomes(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("suggesting outcomes from chunk %d: %w", i, err)
		}
		all = append(all, outcomes...)
	}

	return all, nil
}

// ChunkText splits text into chunks with overlap.
func ChunkText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	paragraphs := strings.Split(text, "\n\n")

	var currentChunk strings.Builder
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if currentChunk.Len()+len(para)+2 > chunkSize && currentChunk.Len() > 0 {
			chunks = append(chunks, currentChunk.String())

			overlapText := getOverlapText(currentChunk.String(), overlap)
			currentChunk.Reset()
			currentChunk.WriteString(overlapText)
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString("\n\n")
		}
		currentChunk.WriteString(para)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	if len(chunks) == 0 && len(text) > 0 {
		chunks = append(chunks, text)
	}

	return chunks
}

// getOverlapText returns the last n characters of text for overlap.
func getOverlapText(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[len(text)-n:]
}
