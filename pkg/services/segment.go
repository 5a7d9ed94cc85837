package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

// ErrSegmentNotFound is returned when a segment is not found.
var ErrSegmentNotFound = persistence.ErrSegmentNotFound

// Segment manages materialized audience segments. Membership lists are
// written whole; the engine only reads them.
type Segment struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

func NewSegment(p persistence.Persistence) *Segment {
	return &Segment{
		persistence: p,
		validator:   validator.New(),
	}
}

func (s *Segment) FetchAll(ctx context.Context) ([]*models.Segment, error) {
	return s.persistence.Segments().GetAll(ctx)
}

func (s *Segment) FetchByID(ctx context.Context, id string) (*models.Segment, error) {
	return s.persistence.Segments().GetByID(ctx, id)
}

func (s *Segment) Create(ctx context.Context, segment *models.Segment) (*models.Segment, error) {
	now := time.Now().UTC()
	segment.ID = uuid.New().String()
	segment.CreatedAt = now
	segment.UpdatedAt = now

	if segment.CustomerIDs == nil {
		segment.CustomerIDs = []string{}
	}

	err := s.validator.Struct(segment)
	if err != nil {
		return nil, NewValidationError("Create", "INVALID_SEGMENT", err.Error(), ErrInvalidRequest)
	}

	err = s.persistence.Segments().Save(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment: %w", err)
	}

	return segment, nil
}

func (s *Segment) Update(ctx context.Context, segmentID string, segment *models.Segment) (*models.Segment, error) {
	existing, err := s.persistence.Segments().GetByID(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	segment.ID = segmentID
	segment.CreatedAt = existing.CreatedAt
	segment.UpdatedAt = time.Now().UTC()

	if segment.CustomerIDs == nil {
		segment.CustomerIDs = []string{}
	}

	err = s.validator.Struct(segment)
	if err != nil {
		return nil, NewValidationError("Update", "INVALID_SEGMENT", err.Error(), ErrInvalidRequest)
	}

	err = s.persistence.Segments().Save(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("failed to update segment: %w", err)
	}

	return segment, nil
}

func (s *Segment) Delete(ctx context.Context, segmentID string) error {
	_, err := s.persistence.Segments().GetByID(ctx, segmentID)
	if err != nil {
		return err
	}

	err = s.persistence.Segments().Delete(ctx, segmentID)
	if err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}

	return nil
}
