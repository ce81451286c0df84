package domain

import (
	"errors"
	"time"
)

// EscalationRecord is the write-once projection of an escalated ticket handed
// to the durable escalation sink for human follow-up. It carries the full
// attempt history, including every rejected draft and its feedback.
type EscalationRecord struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Subject   string    `json:"subject"`
	Category  Category  `json:"category"`
	Attempts  []Attempt `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEscalationRecord projects a terminal, escalated TicketState into a record.
func NewEscalationRecord(id string, state *TicketState, now time.Time) (*EscalationRecord, error) {
	if state == nil || !state.Escalated {
		return nil, errors.New("state is not escalated")
	}
	attempts := make([]Attempt, len(state.Attempts))
	copy(attempts, state.Attempts)
	return &EscalationRecord{
		ID:        id,
		TicketID:  state.Ticket.ID,
		Subject:   state.Ticket.Subject,
		Category:  state.Category,
		Attempts:  attempts,
		CreatedAt: now,
	}, nil
}
