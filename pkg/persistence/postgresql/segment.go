package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

// SegmentRepository handles segment database operations.
type SegmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const segmentColumns = `
	id
  , name
  , description
  , customer_ids
  , created_at
  , updated_at
`

func (r *SegmentRepository) GetAll(ctx context.Context) ([]*models.Segment, error) {
	query := `SELECT ` + segmentColumns + ` FROM segments ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	segments := make([]*models.Segment, 0)

	for rows.Next() {
		segment, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}

		segments = append(segments, segment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating segments: %w", err)
	}

	return segments, nil
}

func (r *SegmentRepository) GetByID(ctx context.Context, id string) (*models.Segment, error) {
	query := `SELECT ` + segmentColumns + ` FROM segments WHERE id = $1`

	segment, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrSegmentNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan segment %s: %w", id, err)
	}

	return segment, nil
}

func (r *SegmentRepository) Save(ctx context.Context, segment *models.Segment) error {
	customerIDs := segment.CustomerIDs
	if customerIDs == nil {
		customerIDs = []string{}
	}

	idsJSON, err := json.Marshal(customerIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal customer ids: %w", err)
	}

	query := `
		INSERT INTO segments (id, name, description, customer_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			customer_ids = EXCLUDED.customer_ids,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		segment.ID, segment.Name, segment.Description, idsJSON,
		segment.CreatedAt, segment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save segment %s: %w", segment.ID, err)
	}

	return nil
}

func (r *SegmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM segments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete segment %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result for segment %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.ErrSegmentNotFound
	}

	return nil
}

func (r *SegmentRepository) scan(row rowScanner) (*models.Segment, error) {
	var (
		segment models.Segment
		idsJSON []byte
	)

	err := row.Scan(&segment.ID, &segment.Name, &segment.Description, &idsJSON,
		&segment.CreatedAt, &segment.UpdatedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(idsJSON, &segment.CustomerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer ids: %w", err)
	}

	return &segment, nil
}
