package service

import "errors"

// Step failure sentinels. None of these is fatal to a ticket: each pipeline
// step converts its failure into a recorded fallback and processing continues
// to a terminal state. They are wrapped into logs and metrics so degradation
// stays visible in the attempt history.
var (
	ErrClassificationUnavailable = errors.New("classification unavailable")
	ErrRetrievalUnavailable      = errors.New("retrieval unavailable")
	ErrDraftUnavailable          = errors.New("draft unavailable")
	ErrReviewUnavailable         = errors.New("review unavailable")
)

// Step names used for fallback metrics.
const (
	StepClassification = "classification"
	StepRetrieval      = "retrieval"
	StepDraft          = "draft"
	StepReview         = "review"
)
