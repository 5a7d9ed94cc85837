package models

import (
	"slices"
	"time"
)

// Customer is the marketing-facing view of a storefront account. The engine
// reads consent flags and contact details, and mutates tags/attributes
// through tag and update_user steps.
type Customer struct {
	ID             string         `json:"id"`
	Email          string         `json:"email" validate:"required,email"`
	Name           string         `json:"name"`
	Phone          string         `json:"phone,omitempty"`
	EmailVerified  bool           `json:"email_verified"`
	MarketingOptIn bool           `json:"marketing_opt_in"`
	SMSOptIn       bool           `json:"sms_opt_in"`
	Tags           []string       `json:"tags,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// AddTag appends the tag if not already present.
func (c *Customer) AddTag(tag string) {
	if !slices.Contains(c.Tags, tag) {
		c.Tags = append(c.Tags, tag)
	}
}

// RemoveTag deletes the tag if present.
func (c *Customer) RemoveTag(tag string) {
	c.Tags = slices.DeleteFunc(c.Tags, func(t string) bool { return t == tag })
}

// OrderStats is the computed purchase summary used by condition fields and
// the inactive-customer scan. Orders themselves are written by checkout.
type OrderStats struct {
	OrderCount    int        `json:"order_count"`
	LifetimeSpend float64    `json:"lifetime_spend"`
	LastOrderAt   *time.Time `json:"last_order_at,omitempty"`
}

// Order is the minimal order record the marketing store keeps per customer.
type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Total      float64   `json:"total"`
	PlacedAt   time.Time `json:"placed_at"`
}
