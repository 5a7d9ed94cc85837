package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gangrun/outreach/pkg/models"
)

// SendRepository handles send-record database operations.
type SendRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const sendColumns = `
	id
  , channel
  , customer_id
  , address
  , subject
  , body
  , workflow_id
  , execution_id
  , step_id
  , status
  , sent_at
`

func (r *SendRepository) Record(ctx context.Context, send *models.Send) error {
	query := `
		INSERT INTO sends (id, channel, customer_id, address, subject, body,
			workflow_id, execution_id, step_id, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		send.ID, send.Channel, send.CustomerID, send.Address, send.Subject, send.Body,
		send.WorkflowID, send.ExecutionID, send.StepID, send.Status, send.SentAt)
	if err != nil {
		return fmt.Errorf("failed to record send %s: %w", send.ID, err)
	}

	return nil
}

func (r *SendRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.Send, error) {
	query := `SELECT ` + sendColumns + ` FROM sends WHERE execution_id = $1 ORDER BY sent_at`

	return r.query(ctx, query, executionID)
}

func (r *SendRepository) ListByCustomer(ctx context.Context, customerID string) ([]*models.Send, error) {
	query := `SELECT ` + sendColumns + ` FROM sends WHERE customer_id = $1 ORDER BY sent_at`

	return r.query(ctx, query, customerID)
}

func (r *SendRepository) query(ctx context.Context, query string, args ...any) ([]*models.Send, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sends: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	sends := make([]*models.Send, 0)

	for rows.Next() {
		var send models.Send

		err := rows.Scan(
			&send.ID, &send.Channel, &send.CustomerID, &send.Address, &send.Subject,
			&send.Body, &send.WorkflowID, &send.ExecutionID, &send.StepID,
			&send.Status, &send.SentAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan send: %w", err)
		}

		sends = append(sends, &send)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating sends: %w", err)
	}

	return sends, nil
}
