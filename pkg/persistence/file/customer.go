package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

const (
	customerCollection = "customers"
	orderCollection    = "orders"
)

// CustomerRepository handles customer and order file operations.
type CustomerRepository struct {
	store *Persistence
}

func (r *CustomerRepository) GetAll(ctx context.Context) ([]*models.Customer, error) {
	ids, err := r.store.ids(customerCollection)
	if err != nil {
		return nil, err
	}

	customers := make([]*models.Customer, 0, len(ids))

	for _, id := range ids {
		customer, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load customer %s: %w", id, err)
		}

		customers = append(customers, customer)
	}

	return customers, nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id string) (*models.Customer, error) {
	var customer models.Customer

	err := r.store.read(customerCollection, id, &customer)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrCustomerNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read customer %s: %w", id, err)
	}

	return &customer, nil
}

func (r *CustomerRepository) Save(_ context.Context, customer *models.Customer) error {
	return r.store.write(customerCollection, customer.ID, customer)
}

func (r *CustomerRepository) RecordOrder(_ context.Context, order *models.Order) error {
	return r.store.write(orderCollection, order.ID, order)
}

func (r *CustomerRepository) OrderStats(ctx context.Context, customerID string) (*models.OrderStats, error) {
	orders, err := r.orders(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.OrderStats{}

	for _, order := range orders {
		if order.CustomerID != customerID {
			continue
		}

		stats.OrderCount++
		stats.LifetimeSpend += order.Total

		if stats.LastOrderAt == nil || order.PlacedAt.After(*stats.LastOrderAt) {
			placedAt := order.PlacedAt
			stats.LastOrderAt = &placedAt
		}
	}

	return stats, nil
}

func (r *CustomerRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*models.Customer, error) {
	customers, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	inactive := make([]*models.Customer, 0)

	for _, customer := range customers {
		stats, err := r.OrderStats(ctx, customer.ID)
		if err != nil {
			return nil, err
		}

		if stats.LastOrderAt != nil && stats.LastOrderAt.Before(cutoff) {
			inactive = append(inactive, customer)
		}
	}

	return inactive, nil
}

func (r *CustomerRepository) orders(_ context.Context) ([]*models.Order, error) {
	ids, err := r.store.ids(orderCollection)
	if err != nil {
		return nil, err
	}

	orders := make([]*models.Order, 0, len(ids))

	for _, id := range ids {
		var order models.Order
		if err := r.store.read(orderCollection, id, &order); err != nil {
			return nil, fmt.Errorf("failed to read order %s: %w", id, err)
		}

		orders = append(orders, &order)
	}

	return orders, nil
}
