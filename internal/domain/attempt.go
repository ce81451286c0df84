package domain

import "errors"

// Snippet is a single knowledge-base passage returned by retrieval.
type Snippet struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ContextSet holds the relevance-ordered snippets gathered for one attempt.
// Degraded marks sets produced by a retrieval provider failure.
type ContextSet struct {
	Snippets []Snippet `json:"snippets"`
	Degraded bool      `json:"degraded,omitempty"`
}

// Empty reports whether retrieval produced no usable context.
func (c ContextSet) Empty() bool {
	return len(c.Snippets) == 0
}

// Draft is a candidate response tied to one attempt. Fallback marks the
// fixed safe template substituted after a drafting provider failure.
type Draft struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

// ReviewVerdict is the reviewer's decision for one draft. Unavailable marks
// fail-closed rejections caused by a review provider failure.
type ReviewVerdict struct {
	Approved         bool     `json:"approved"`
	Feedback         string   `json:"feedback,omitempty"`
	ViolatedPolicies []string `json:"violated_policies,omitempty"`
	Unavailable      bool     `json:"unavailable,omitempty"`
}

// Attempt records one full retrieve -> draft -> review cycle. Immutable once
// appended to TicketState.
type Attempt struct {
	Number  int           `json:"number"`
	Query   string        `json:"query"`
	Context ContextSet    `json:"context"`
	Draft   Draft         `json:"draft"`
	Verdict ReviewVerdict `json:"verdict"`
}

// TerminalReason names how processing of a ticket ended.
type TerminalReason string

const (
	TerminalApproved  TerminalReason = "approved"
	TerminalEscalated TerminalReason = "escalated"
	TerminalCancelled TerminalReason = "cancelled"
)

var (
	// ErrAttemptLimit is returned when recording an attempt beyond the bound.
	ErrAttemptLimit = errors.New("attempt limit reached")
	// ErrNotTerminal is returned when a terminal action does not match the
	// recorded attempt history.
	ErrNotTerminal = errors.New("state is not terminal")
	// ErrAlreadyTerminal is returned when mutating a finished state.
	ErrAlreadyTerminal = errors.New("state already terminal")
)

// TicketState aggregates everything recorded while resolving one ticket.
// It is owned by a single resolution pipeline and never shared.
type TicketState struct {
	Ticket        *Ticket
	Category      Category
	LowConfidence bool
	Attempts      []Attempt
	FinalResponse *string
	Escalated     bool
	Terminal      TerminalReason

	maxAttempts int
}

// NewTicketState creates the aggregate for a ticket entering the pipeline.
// maxAttempts is the total drafting attempts allowed (initial plus retries).
func NewTicketState(ticket *Ticket, maxAttempts int) *TicketState {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TicketState{Ticket: ticket, Category: CategoryGeneral, maxAttempts: maxAttempts}
}

// MaxAttempts returns the total attempt bound.
func (s *TicketState) MaxAttempts() int {
	return s.maxAttempts
}

// LastAttempt returns the most recent attempt, or nil when none exist.
func (s *TicketState) LastAttempt() *Attempt {
	if len(s.Attempts) == 0 {
		return nil
	}
	return &s.Attempts[len(s.Attempts)-1]
}

// RecordAttempt appends an attempt, enforcing the attempt bound and sequential
// numbering. Every attempt is recorded before the next transition is evaluated.
func (s *TicketState) RecordAttempt(attempt Attempt) error {
	if s.Terminal != "" {
		return ErrAlreadyTerminal
	}
	if len(s.Attempts) >= s.maxAttempts {
		return ErrAttemptLimit
	}
	if attempt.Number != len(s.Attempts)+1 {
		return errors.New("attempt recorded out of order")
	}
	s.Attempts = append(s.Attempts, attempt)
	return nil
}

// Finalize marks the state approved with the given response text.
func (s *TicketState) Finalize(response string) error {
	if s.Terminal != "" {
		return ErrAlreadyTerminal
	}
	last := s.LastAttempt()
	if last == nil || !last.Verdict.Approved {
		return ErrNotTerminal
	}
	s.FinalResponse = &response
	s.Terminal = TerminalApproved
	return nil
}

// Escalate marks the state escalated. Valid only when the attempt bound was
// exhausted and the last verdict is a rejection.
func (s *TicketState) Escalate() error {
	if s.Terminal != "" {
		return ErrAlreadyTerminal
	}
	last := s.LastAttempt()
	if last == nil || last.Verdict.Approved || len(s.Attempts) != s.maxAttempts {
		return ErrNotTerminal
	}
	s.Escalated = true
	s.Terminal = TerminalEscalated
	return nil
}

// Cancel marks the state cancelled at an attempt boundary, preserving the
// attempts recorded so far.
func (s *TicketState) Cancel() {
	if s.Terminal == "" {
		s.Terminal = TerminalCancelled
	}
}
