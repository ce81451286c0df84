package worker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-resolver/internal/config"
	"github.com/spec-kit/ticket-resolver/internal/events"
	"github.com/spec-kit/ticket-resolver/internal/service"
)

func TestNotificationWorkerDeliversWebhook(t *testing.T) {
	received := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	jobs := make(chan service.NotificationJob, 1)
	worker := NewNotificationWorker(jobs, config.NotificationConfig{WebhookURL: server.URL}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	jobs <- service.NotificationJob{
		TicketID: "t-1",
		Event:    events.EventTicketEscalated,
		Payload:  events.TicketEscalatedPayload{EscalationID: "esc-1", Attempts: 3},
	}

	select {
	case body := <-received:
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "t-1", got["ticket_id"])
		assert.Equal(t, string(events.EventTicketEscalated), got["event_type"])
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestNotificationWorkerSkipsWithoutWebhook(t *testing.T) {
	jobs := make(chan service.NotificationJob, 1)
	worker := NewNotificationWorker(jobs, config.NotificationConfig{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	jobs <- service.NotificationJob{TicketID: "t-2", Event: events.EventTicketResolved}

	// deliver returns without a webhook URL; the worker must stay alive
	// and keep draining the queue.
	select {
	case jobs <- service.NotificationJob{TicketID: "t-3", Event: events.EventTicketResolved}:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped draining jobs")
	}
}
