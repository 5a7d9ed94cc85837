package file

import (
	"context"
	"fmt"
	"sort"

	"github.com/gangrun/outreach/pkg/models"
)

const sendCollection = "sends"

// SendRepository handles send-record file operations.
type SendRepository struct {
	store *Persistence
}

func (r *SendRepository) Record(_ context.Context, send *models.Send) error {
	return r.store.write(sendCollection, send.ID, send)
}

func (r *SendRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.Send, error) {
	return r.list(ctx, func(s *models.Send) bool { return s.ExecutionID == executionID })
}

func (r *SendRepository) ListByCustomer(ctx context.Context, customerID string) ([]*models.Send, error) {
	return r.list(ctx, func(s *models.Send) bool { return s.CustomerID == customerID })
}

func (r *SendRepository) list(_ context.Context, match func(*models.Send) bool) ([]*models.Send, error) {
	ids, err := r.store.ids(sendCollection)
	if err != nil {
		return nil, err
	}

	sends := make([]*models.Send, 0)

	for _, id := range ids {
		var send models.Send
		if err := r.store.read(sendCollection, id, &send); err != nil {
			return nil, fmt.Errorf("failed to read send %s: %w", id, err)
		}

		if match(&send) {
			sends = append(sends, &send)
		}
	}

	sort.Slice(sends, func(i, j int) bool {
		return sends[i].SentAt.Before(sends[j].SentAt)
	})

	return sends, nil
}
