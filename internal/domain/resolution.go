package domain

// Resolution is the terminal projection of one ticket's processing returned
// to callers. Internal pipeline states are not exposed.
type Resolution struct {
	TicketID      string
	Category      Category
	LowConfidence bool
	FinalResponse *string
	Escalated     bool
	Attempts      []Attempt
}

// NewResolution projects a TicketState into its caller-facing result.
func NewResolution(state *TicketState) *Resolution {
	attempts := make([]Attempt, len(state.Attempts))
	copy(attempts, state.Attempts)
	return &Resolution{
		TicketID:      state.Ticket.ID,
		Category:      state.Category,
		LowConfidence: state.LowConfidence,
		FinalResponse: state.FinalResponse,
		Escalated:     state.Escalated,
		Attempts:      attempts,
	}
}
