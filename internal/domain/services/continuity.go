package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/canon-core/internal/domain/entities"
	"github.com/ersonp/canon-core/internal/domain/ports"
)

// ContinuityService manages timeline branches of a world.
type ContinuityService struct {
	db ports.RelationalDB
}

// NewContinuityService creates a new ContinuityService.
func NewContinuityService(db ports.RelationalDB) *ContinuityService {
	return &ContinuityService{db: db}
}

// Create creates a new root continuity for a world.
func (s *ContinuityService) Create(ctx context.Context, worldID, name, description string) (*entities.Continuity, error) {
	now := time.Now()
	continuity := &entities.Continuity{
		ID:          uuid.New().String(),
		WorldID:     worldID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	if err := s.db.SaveContinuity(ctx, continuity); err != nil {
		return nil, fmt.Errorf("saving continuity: %w", err)
	}

	return continuity, nil
}

// CreateDefault seeds the root timeline created with every new world.
func (s *ContinuityService) CreateDefault(ctx context.Context, worldID string) (*entities.Continuity, error) {
	return s.Create(ctx, worldID, entities.DefaultContinuityName, "")
}

// Branch forks a continuity at a specific event. The new continuity starts
// with no events of its own: drift rows are not copied, and only events
// later added to the branch govern its drift computations.
func (s *ContinuityService) Branch(ctx context.Context, fromContinuityID, atEventID, name, description string) (*entities.Continuity, error) {
	from, err := s.db.FindContinuityByID(ctx, fromContinuityID)
	if err != nil {
		return nil, fmt.Errorf("finding source continuity: %w", err)
	}
	if from == nil {
		return nil, fmt.Errorf("continuity not found: %s", fromContinuityID)
	}

	event, err := s.db.FindEventByID(ctx, atEventID)
	if err != nil {
		return nil, fmt.Errorf("finding branch point event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event not found: %s", atEventID)
	}
	if event.ContinuityID != from.ID {
		return nil, fmt.Errorf("event %s does not belong to continuity %s", atEventID, fromContinuityID)
	}

	now := time.Now()
	branch := &entities.Continuity{
		ID:                 uuid.New().String(),
		WorldID:            from.WorldID,
		Name:               name,
		Description:        description,
		BranchedFromID:     from.ID,
		BranchPointEventID: event.ID,
		CreatedAt:          now,
		ModifiedAt:         now,
	}

	if err := branch.Validate(); err != nil {
		return nil, fmt.Errorf("validating branch: %w", err)
	}

	if err := s.db.SaveContinuity(ctx, branch); err != nil {
		return nil, fmt.Errorf("saving continuity: %w", err)
	}

	return branch, nil
}

// Update renames or re-describes a continuity.
func (s *ContinuityService) Update(ctx context.Context, continuityID, name, description string) (*entities.Continuity, error) {
	continuity, err := s.db.FindContinuityByID(ctx, continuityID)
	if err != nil {
		return nil, fmt.Errorf("finding continuity: %w", err)
	}
	if continuity == nil {
		return nil, fmt.Errorf("continuity not found: %s", continuityID)
	}

	if name != "" {
		continuity.Name = name
	}
	if description != "" {
		continuity.Description = description
	}
	continuity.ModifiedAt = time.Now()

	if err := s.db.SaveContinuity(ctx, continuity); err != nil {
		return nil, fmt.Errorf("saving continuity: %w", err)
	}

	return continuity, nil
}

// Get finds a continuity by ID.
func (s *ContinuityService) Get(ctx context.Context, continuityID string) (*entities.Continuity, error) {
	return s.db.FindContinuityByID(ctx, continuityID)
}

// List lists all continuities for a world.
func (s *ContinuityService) List(ctx context.Context, worldID string) ([]entities.Continuity, error) {
	return s.db.ListContinuities(ctx, worldID)
}

// Delete removes a continuity. The persistence layer cascades the delete
// to the continuity's events and drift rows.
func (s *ContinuityService) Delete(ctx context.Context, continuityID string) error {
	continuity, err := s.db.FindContinuityByID(ctx, continuityID)
	if err != nil {
		return fmt.Errorf("finding continuity: %w", err)
	}
	if continuity == nil {
		return fmt.Errorf("continuity not found: %s", continuityID)
	}

	if err := s.db.DeleteContinuity(ctx, continuityID); err != nil {
		return fmt.Errorf("deleting continuity: %w", err)
	}

	return nil
}
