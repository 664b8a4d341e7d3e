package handlers

import (
	"context"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/services"
)

// ContinuityHandler handles continuity operations at the application layer.
type ContinuityHandler struct {
	continuityService *services.ContinuityService
}

// NewContinuityHandler creates a new ContinuityHandler.
func NewContinuityHandler(continuityService *services.ContinuityService) *ContinuityHandler {
	return &ContinuityHandler{
		continuityService: continuityService,
	}
}

// HandleCreate creates a new root continuity.
func (h *ContinuityHandler) HandleCreate(ctx context.Context, worldID, name, description string) (*entities.Continuity, error) {
	return h.continuityService.Create(ctx, worldID, name, description)
}

// HandleBranch forks a continuity at an event.
func (h *ContinuityHandler) HandleBranch(ctx context.Context, fromContinuityID, atEventID, name, description string) (*entities.Continuity, error) {
	return h.continuityService.Branch(ctx, fromContinuityID, atEventID, name, description)
}

// HandleUpdate renames or re-describes a continuity.
func (h *ContinuityHandler) HandleUpdate(ctx context.Context, continuityID, name, description string) (*entities.Continuity, error) {
	return h.continuityService.Update(ctx, continuityID, name, description)
}

// HandleList returns all continuities of a world.
func (h *ContinuityHandler) HandleList(ctx context.Context, worldID string) ([]entities.Continuity, error) {
	return h.continuityService.List(ctx, worldID)
}

// HandleDelete removes a continuity and everything recorded in it.
func (h *ContinuityHandler) HandleDelete(ctx context.Context, continuityID string) error {
	return h.continuityService.Delete(ctx, continuityID)
}
