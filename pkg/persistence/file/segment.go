package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

const segmentCollection = "segments"

// SegmentRepository handles segment file operations.
type SegmentRepository struct {
	store *Persistence
}

func (r *SegmentRepository) GetAll(ctx context.Context) ([]*models.Segment, error) {
	ids, err := r.store.ids(segmentCollection)
	if err != nil {
		return nil, err
	}

	segments := make([]*models.Segment, 0, len(ids))

	for _, id := range ids {
		segment, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load segment %s: %w", id, err)
		}

		segments = append(segments, segment)
	}

	return segments, nil
}

func (r *SegmentRepository) GetByID(_ context.Context, id string) (*models.Segment, error) {
	var segment models.Segment

	err := r.store.read(segmentCollection, id, &segment)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrSegmentNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read segment %s: %w", id, err)
	}

	return &segment, nil
}

func (r *SegmentRepository) Save(_ context.Context, segment *models.Segment) error {
	return r.store.write(segmentCollection, segment.ID, segment)
}

func (r *SegmentRepository) Delete(_ context.Context, id string) error {
	err := r.store.remove(segmentCollection, id)
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.ErrSegmentNotFound
	}

	return err
}
