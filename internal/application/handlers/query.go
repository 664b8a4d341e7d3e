package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/services"
)

// QueryHandler handles semantic event queries.
type QueryHandler struct {
	queryService *services.QueryService
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(queryService *services.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// QueryResult contains the result of a query.
type QueryResult struct {
	Query  string
	Events []entities.Event
}

// Handle searches for events matching the query.
func (h *QueryHandler) Handle(ctx context.Context, query string, limit int) (*QueryResult, error) {
	events, err := h.queryService.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching events: %w", err)
	}

	return &QueryResult{
		Query:  query,
		Events: events,
	}, nil
}
