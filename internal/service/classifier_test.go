package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/ticket-resolver/internal/domain"
)

func testTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:          "t-1",
		Subject:     "Charged twice",
		Description: "My card was charged twice for the same invoice.",
	}
}

func TestLLMClassifierParsesLabel(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     domain.Category
	}{
		{"plain label", "BILLING", domain.CategoryBilling},
		{"lowercase", "technical", domain.CategoryTechnical},
		{"trailing punctuation", "SECURITY.", domain.CategorySecurity},
		{"label with chatter", "BILLING, because the ticket mentions a charge", domain.CategoryBilling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewLLMClassifier(&mockCompleter{response: tt.response}, nopLogger(), nil)
			category, lowConfidence := classifier.Classify(context.Background(), testTicket())
			assert.Equal(t, tt.want, category)
			assert.False(t, lowConfidence)
		})
	}
}

func TestLLMClassifierProviderFailureFallsBack(t *testing.T) {
	classifier := NewLLMClassifier(&mockCompleter{err: errors.New("provider down")}, nopLogger(), nil)
	category, lowConfidence := classifier.Classify(context.Background(), testTicket())
	assert.Equal(t, domain.CategoryGeneral, category)
	assert.True(t, lowConfidence)
}

func TestLLMClassifierUnrecognizedLabelFallsBack(t *testing.T) {
	for _, response := range []string{"REFUNDS", "", "I cannot classify this"} {
		classifier := NewLLMClassifier(&mockCompleter{response: response}, nopLogger(), nil)
		category, lowConfidence := classifier.Classify(context.Background(), testTicket())
		assert.Equal(t, domain.CategoryGeneral, category)
		assert.True(t, lowConfidence)
	}
}
