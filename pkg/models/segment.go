package models

import (
	"slices"
	"time"
)

// Segment is a precomputed audience: a materialized list of customer IDs.
// Membership is computed elsewhere; the engine only reads it.
type Segment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,min=3"`
	Description string    `json:"description,omitempty"`
	CustomerIDs []string  `json:"customer_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contains reports membership by customer ID.
func (s *Segment) Contains(customerID string) bool {
	return slices.Contains(s.CustomerIDs, customerID)
}
