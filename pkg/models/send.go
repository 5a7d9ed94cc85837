package models

import "time"

// SendChannel is the delivery channel of a send record.
type SendChannel string

const (
	SendChannelEmail SendChannel = "email"
	SendChannelSMS   SendChannel = "sms"
)

// Send is the outbound campaign-style send record written by email and sms
// steps. Sends are fire-and-forget: the record is marked sent immediately and
// no delivery confirmation is awaited.
type Send struct {
	ID         string      `json:"id"`
	Channel    SendChannel `json:"channel"`
	CustomerID string      `json:"customer_id"`
	Address    string      `json:"address"`
	Subject    string      `json:"subject,omitempty"`
	Body       string      `json:"body,omitempty"`
	WorkflowID string      `json:"workflow_id"`
	ExecutionID string     `json:"execution_id"`
	StepID     string      `json:"step_id"`
	Status     string      `json:"status"`
	SentAt     time.Time   `json:"sent_at"`
}
