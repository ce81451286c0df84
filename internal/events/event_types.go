package events

import (
	"time"

	"github.com/spec-kit/ticket-resolver/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketClassified EventType = "ticket_classified"
	EventAttemptReviewed  EventType = "attempt_reviewed"
	EventTicketResolved   EventType = "ticket_resolved"
	EventTicketEscalated  EventType = "ticket_escalated"
)

// Event represents a pipeline event emitted while resolving a ticket.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketClassifiedPayload payload.
type TicketClassifiedPayload struct {
	Category      domain.Category `json:"category"`
	LowConfidence bool            `json:"low_confidence"`
}

// AttemptReviewedPayload payload.
type AttemptReviewedPayload struct {
	AttemptNumber    int      `json:"attempt_number"`
	Approved         bool     `json:"approved"`
	Feedback         string   `json:"feedback,omitempty"`
	ViolatedPolicies []string `json:"violated_policies,omitempty"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Category domain.Category `json:"category"`
	Attempts int             `json:"attempts"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	EscalationID string          `json:"escalation_id"`
	Category     domain.Category `json:"category"`
	Attempts     int             `json:"attempts"`
	LastFeedback string          `json:"last_feedback,omitempty"`
}
