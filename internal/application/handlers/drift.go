package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

// DriftHandler handles drift inspection and manual resolution.
type DriftHandler struct {
	drifts ports.DriftStore
	db     ports.RelationalDB
}

// NewDriftHandler creates a new DriftHandler.
func NewDriftHandler(drifts ports.DriftStore, db ports.RelationalDB) *DriftHandler {
	return &DriftHandler{
		drifts: drifts,
		db:     db,
	}
}

// HandleList returns open drift rows matching the filter.
func (h *DriftHandler) HandleList(ctx context.Context, filter ports.DriftFilter) ([]entities.Drift, error) {
	return h.drifts.FindUnresolved(ctx, filter)
}

// HandleListByEntity returns all drift rows for a record, resolved included.
func (h *DriftHandler) HandleListByEntity(ctx context.Context, entityID string) ([]entities.Drift, error) {
	return h.drifts.FindByEntity(ctx, entityID)
}

// HandleResolve marks a drift row resolved by hand. Manual resolution is an
// explicit statement that the divergence is accepted, so it is audited.
func (h *DriftHandler) HandleResolve(ctx context.Context, driftID string) error {
	if err := h.drifts.Resolve(ctx, driftID); err != nil {
		return fmt.Errorf("resolving drift: %w", err)
	}

	if err := h.db.LogAction(ctx, "drift.resolve", driftID, nil); err != nil {
		return fmt.Errorf("logging drift resolution: %w", err)
	}

	return nil
}
