// Package web provides the HTTP admin and ingest API over the automation
// engine.
package web

import "github.com/gangrun/outreach/pkg/models"

// IngestEventRequest is the body of POST /events.
type IngestEventRequest struct {
	Event      string         `json:"event" validate:"required,min=1"`
	CustomerID string         `json:"customer_id" validate:"required,min=1"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// CartActivityRequest is the body of POST /carts/:customerID/activity.
type CartActivityRequest struct {
	Items []models.CartItem `json:"items" validate:"required,min=1,dive"`
}

// SegmentRequest is the body for creating or replacing a segment.
type SegmentRequest struct {
	Name        string   `json:"name" validate:"required,min=3"`
	Description string   `json:"description,omitempty"`
	CustomerIDs []string `json:"customer_ids"`
}
