package dto

import (
	"time"

	"github.com/spec-kit/ticket-resolver/internal/domain"
)

// ResolveTicketRequest is one ticket submission.
type ResolveTicketRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// ResolveBatchRequest carries independent tickets resolved in parallel.
type ResolveBatchRequest struct {
	Tickets []ResolveTicketRequest `json:"tickets"`
}

// SnippetResponse is one retrieved knowledge passage.
type SnippetResponse struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// AttemptResponse is one recorded retrieve/draft/review cycle.
type AttemptResponse struct {
	Number            int               `json:"number"`
	Query             string            `json:"query"`
	Snippets          []SnippetResponse `json:"snippets"`
	RetrievalDegraded bool              `json:"retrieval_degraded,omitempty"`
	DraftText         string            `json:"draft_text"`
	DraftFallback     bool              `json:"draft_fallback,omitempty"`
	Approved          bool              `json:"approved"`
	Feedback          string            `json:"feedback,omitempty"`
	ViolatedPolicies  []string          `json:"violated_policies,omitempty"`
	ReviewUnavailable bool              `json:"review_unavailable,omitempty"`
}

// ResolutionResponse is the terminal outcome of one ticket.
type ResolutionResponse struct {
	TicketID       string            `json:"ticket_id"`
	Classification domain.Category   `json:"classification"`
	LowConfidence  bool              `json:"low_confidence,omitempty"`
	FinalResponse  *string           `json:"final_response,omitempty"`
	Escalated      bool              `json:"escalated"`
	Attempts       []AttemptResponse `json:"attempts"`
}

// EscalationResponse is one durable escalation record.
type EscalationResponse struct {
	ID        string            `json:"id"`
	TicketID  string            `json:"ticket_id"`
	Subject   string            `json:"subject"`
	Category  domain.Category   `json:"category"`
	Attempts  []AttemptResponse `json:"attempts"`
	CreatedAt time.Time         `json:"created_at"`
}

// TokenRequest exchanges an API key for a bearer token.
type TokenRequest struct {
	ClientID string `json:"client_id"`
	APIKey   string `json:"api_key"`
}

// TokenResponse carries the issued token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IngestSnippetRequest is one knowledge passage to store.
type IngestSnippetRequest struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

// IngestRequest loads knowledge snippets.
type IngestRequest struct {
	Snippets []IngestSnippetRequest `json:"snippets"`
}

// FromResolution maps a domain resolution to its response.
func FromResolution(resolution *domain.Resolution) ResolutionResponse {
	return ResolutionResponse{
		TicketID:       resolution.TicketID,
		Classification: resolution.Category,
		LowConfidence:  resolution.LowConfidence,
		FinalResponse:  resolution.FinalResponse,
		Escalated:      resolution.Escalated,
		Attempts:       fromAttempts(resolution.Attempts),
	}
}

// FromEscalation maps a domain escalation record to its response.
func FromEscalation(record *domain.EscalationRecord) EscalationResponse {
	return EscalationResponse{
		ID:        record.ID,
		TicketID:  record.TicketID,
		Subject:   record.Subject,
		Category:  record.Category,
		Attempts:  fromAttempts(record.Attempts),
		CreatedAt: record.CreatedAt,
	}
}

func fromAttempts(attempts []domain.Attempt) []AttemptResponse {
	out := make([]AttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		snippets := make([]SnippetResponse, 0, len(attempt.Context.Snippets))
		for _, snippet := range attempt.Context.Snippets {
			snippets = append(snippets, SnippetResponse{
				ID:      snippet.ID,
				Content: snippet.Content,
				Score:   snippet.Score,
			})
		}
		out = append(out, AttemptResponse{
			Number:            attempt.Number,
			Query:             attempt.Query,
			Snippets:          snippets,
			RetrievalDegraded: attempt.Context.Degraded,
			DraftText:         attempt.Draft.Text,
			DraftFallback:     attempt.Draft.Fallback,
			Approved:          attempt.Verdict.Approved,
			Feedback:          attempt.Verdict.Feedback,
			ViolatedPolicies:  attempt.Verdict.ViolatedPolicies,
			ReviewUnavailable: attempt.Verdict.Unavailable,
		})
	}
	return out
}
