package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrProviderExhausted is returned when every configured model in the
// preference list failed for one call.
var ErrProviderExhausted = errors.New("all completion providers exhausted")

// CompletionClient sends prompts to a language model and returns its output.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// FailoverCompleter tries an ordered list of completion clients, failing over
// to the next on a provider-level error. It surfaces ErrProviderExhausted only
// after the entire list failed.
type FailoverCompleter struct {
	clients []CompletionClient
	logger  *zap.Logger
}

// NewFailoverCompleter builds a completer over the ordered client list.
func NewFailoverCompleter(clients []CompletionClient, logger *zap.Logger) (*FailoverCompleter, error) {
	if len(clients) == 0 {
		return nil, errors.New("at least one completion client required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailoverCompleter{clients: clients, logger: logger}, nil
}

// Complete sends the prompt without a system message.
func (f *FailoverCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem tries each client in preference order.
func (f *FailoverCompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for _, client := range f.clients {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := client.CompleteWithSystem(ctx, systemPrompt, userPrompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		f.logger.Warn("completion model failed, trying next",
			zap.String("model", client.Model()),
			zap.Error(err))
	}
	return "", fmt.Errorf("%w: %v", ErrProviderExhausted, lastErr)
}

// Model reports the preferred model of the chain.
func (f *FailoverCompleter) Model() string {
	return f.clients[0].Model()
}
