package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

// CustomerRepository handles customer and order database operations.
type CustomerRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const customerColumns = `
	id
  , email
  , name
  , phone
  , email_verified
  , marketing_opt_in
  , sms_opt_in
  , tags
  , attributes
  , created_at
  , updated_at
`

func (r *CustomerRepository) GetAll(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at`

	return r.query(ctx, query)
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrCustomerNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan customer %s: %w", id, err)
	}

	return customer, nil
}

func (r *CustomerRepository) Save(ctx context.Context, customer *models.Customer) error {
	tags := customer.Tags
	if tags == nil {
		tags = []string{}
	}

	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	attributes := customer.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}

	attributesJSON, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	query := `
		INSERT INTO customers (id, email, name, phone, email_verified, marketing_opt_in,
			sms_opt_in, tags, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			email_verified = EXCLUDED.email_verified,
			marketing_opt_in = EXCLUDED.marketing_opt_in,
			sms_opt_in = EXCLUDED.sms_opt_in,
			tags = EXCLUDED.tags,
			attributes = EXCLUDED.attributes,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		customer.ID, customer.Email, customer.Name, customer.Phone, customer.EmailVerified,
		customer.MarketingOptIn, customer.SMSOptIn, tagsJSON, attributesJSON,
		customer.CreatedAt, customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save customer %s: %w", customer.ID, err)
	}

	return nil
}

func (r *CustomerRepository) RecordOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, total, placed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, order.ID, order.CustomerID, order.Total, order.PlacedAt)
	if err != nil {
		return fmt.Errorf("failed to record order %s: %w", order.ID, err)
	}

	return nil
}

func (r *CustomerRepository) OrderStats(ctx context.Context, customerID string) (*models.OrderStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total), 0), MAX(placed_at)
		FROM orders
		WHERE customer_id = $1
	`

	var (
		stats       models.OrderStats
		lastOrderAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, customerID).
		Scan(&stats.OrderCount, &stats.LifetimeSpend, &lastOrderAt)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order stats for customer %s: %w", customerID, err)
	}

	if lastOrderAt.Valid {
		stats.LastOrderAt = &lastOrderAt.Time
	}

	return &stats, nil
}

func (r *CustomerRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + `
		FROM customers
		WHERE id IN (
			SELECT customer_id FROM orders GROUP BY customer_id HAVING MAX(placed_at) < $1
		)
		ORDER BY created_at
	`

	return r.query(ctx, query, cutoff)
}

func (r *CustomerRepository) query(ctx context.Context, query string, args ...any) ([]*models.Customer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	customers := make([]*models.Customer, 0)

	for rows.Next() {
		customer, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}

		customers = append(customers, customer)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

func (r *CustomerRepository) scan(row rowScanner) (*models.Customer, error) {
	var (
		customer       models.Customer
		tagsJSON       []byte
		attributesJSON []byte
	)

	err := row.Scan(
		&customer.ID, &customer.Email, &customer.Name, &customer.Phone,
		&customer.EmailVerified, &customer.MarketingOptIn, &customer.SMSOptIn,
		&tagsJSON, &attributesJSON, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(tagsJSON, &customer.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	err = json.Unmarshal(attributesJSON, &customer.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}

	return &customer, nil
}
