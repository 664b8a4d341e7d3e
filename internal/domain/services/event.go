package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

// CreateEventInput describes a new event to record.
type CreateEventInput struct {
	WorldID      string
	ContinuityID string
	CampaignID   string
	Name         string
	Description  string
	Secrets      string
	Tags         []string
	InWorldTime  string
	Outcomes     []entities.EventOutcome
}

// EventService manages canonical events. Events are stored in SQLite and
// indexed in the vector store for semantic search.
type EventService struct {
	db       ports.RelationalDB
	vectorDB ports.VectorDB
	embedder ports.Embedder
}

// NewEventService creates a new EventService.
func NewEventService(db ports.RelationalDB, vectorDB ports.VectorDB, embedder ports.Embedder) *EventService {
	return &EventService{
		db:       db,
		vectorDB: vectorDB,
		embedder: embedder,
	}
}

// Create records a new event in a continuity.
func (s *EventService) Create(ctx context.Context, in CreateEventInput) (*entities.Event, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("event name is required")
	}

	continuity, err := s.db.FindContinuityByID(ctx, in.ContinuityID)
	if err != nil {
		return nil, fmt.Errorf("finding continuity: %w", err)
	}
	if continuity == nil {
		return nil, fmt.Errorf("continuity not found: %s", in.ContinuityID)
	}
	if continuity.WorldID != in.WorldID {
		return nil, fmt.Errorf("continuity %s does not belong to world %s", in.ContinuityID, in.WorldID)
	}

	now := time.Now()
	event := &entities.Event{
		ID:           uuid.New().String(),
		WorldID:      in.WorldID,
		ContinuityID: in.ContinuityID,
		CampaignID:   in.CampaignID,
		Name:         in.Name,
		Description:  in.Description,
		Secrets:      in.Secrets,
		Tags:         in.Tags,
		Outcomes:     entities.SerializeOutcomes(in.Outcomes),
		InWorldTime:  in.InWorldTime,
		CreatedAt:    now,
		ModifiedAt:   now,
	}

	if err := s.db.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("saving event: %w", err)
	}

	if err := s.indexEvent(ctx, event); err != nil {
		// Roll back the SQLite save so the stores stay consistent.
		_ = s.db.DeleteEvent(ctx, event.ID)
		return nil, fmt.Errorf("indexing event: %w", err)
	}

	return event, nil
}

// indexEvent embeds an event and stores it in the vector index.
func (s *EventService) indexEvent(ctx context.Context, event *entities.Event) error {
	embedding, err := s.embedder.Embed(ctx, eventToText(event))
	if err != nil {
		return fmt.Errorf("generating embedding: %w", err)
	}
	return s.vectorDB.Save(ctx, *event, embedding)
}

// SetOutcomes replaces the outcome list of an existing event.
func (s *EventService) SetOutcomes(ctx context.Context, eventID string, outcomes []entities.EventOutcome) (*entities.Event, error) {
	event, err := s.db.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("finding event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event not found: %s", eventID)
	}

	event.Outcomes = entities.SerializeOutcomes(outcomes)
	event.ModifiedAt = time.Now()

	if err := s.db.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("saving event: %w", err)
	}

	return event, nil
}

// Get finds an event by ID.
func (s *EventService) Get(ctx context.Context, eventID string) (*entities.Event, error) {
	return s.db.FindEventByID(ctx, eventID)
}

// ListByContinuity lists events for a continuity in creation order.
func (s *EventService) ListByContinuity(ctx context.Context, continuityID string, limit int) ([]entities.Event, error) {
	return s.db.FindEventsByContinuity(ctx, continuityID, limit)
}

// ListByWorld lists events for a world in creation order.
func (s *EventService) ListByWorld(ctx context.Context, worldID string, limit int) ([]entities.Event, error) {
	return s.db.FindEventsByWorld(ctx, worldID, limit)
}

// Delete removes an event from both stores.
func (s *EventService) Delete(ctx context.Context, eventID string) error {
	if err := s.vectorDB.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("deleting event from index: %w", err)
	}
	if err := s.db.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return nil
}

// eventToText converts an event to searchable text for embedding.
func eventToText(event *entities.Event) string {
	parts := []string{event.Name}
	if event.Description != "" {
		parts = append(parts, event.Description)
	}
	if event.InWorldTime != "" {
		parts = append(parts, event.InWorldTime)
	}
	if len(event.Tags) > 0 {
		parts = append(parts, strings.Join(event.Tags, " "))
	}
	return strings.Join(parts, " ")
}
