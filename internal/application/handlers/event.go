package handlers

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/services"
)

// EventHandler handles event operations at the application layer.
type EventHandler struct {
	eventService *services.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// HandleCreate records a new event.
func (h *EventHandler) HandleCreate(ctx context.Context, in services.CreateEventInput) (*entities.Event, error) {
	return h.eventService.Create(ctx, in)
}

// HandleSetOutcomes replaces the outcome list of an event.
func (h *EventHandler) HandleSetOutcomes(ctx context.Context, eventID string, outcomes []entities.EventOutcome) (*entities.Event, error) {
	return h.eventService.SetOutcomes(ctx, eventID, outcomes)
}

// HandleGet finds an event by ID.
func (h *EventHandler) HandleGet(ctx context.Context, eventID string) (*entities.Event, error) {
	return h.eventService.Get(ctx, eventID)
}

// HandleList returns events for a continuity, or for the whole world when
// continuityID is empty.
func (h *EventHandler) HandleList(ctx context.Context, worldID, continuityID string, limit int) ([]entities.Event, error) {
	if continuityID == "" {
		return h.eventService.ListByWorld(ctx, worldID, limit)
	}
	return h.eventService.ListByContinuity(ctx, continuityID, limit)
}

// HandleDelete removes an event.
func (h *EventHandler) HandleDelete(ctx context.Context, eventID string) error {
	return h.eventService.Delete(ctx, eventID)
}
