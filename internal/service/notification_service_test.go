package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-resolver/internal/domain"
	"github.com/spec-kit/ticket-resolver/internal/events"
)

func TestNotificationServiceQueuesEscalations(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, nopLogger())
	svc.RegisterHandlers()

	payload := events.TicketEscalatedPayload{
		EscalationID: "e-1",
		Category:     domain.CategoryBilling,
		Attempts:     3,
	}
	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: "t-1",
		Payload:  payload,
	})
	require.NoError(t, err)

	select {
	case job := <-svc.Jobs():
		assert.Equal(t, "t-1", job.TicketID)
		assert.Equal(t, events.EventTicketEscalated, job.Event)
		assert.Equal(t, payload, job.Payload)
	default:
		t.Fatal("expected a queued notification job")
	}
}

func TestNotificationServiceResolutionsAreNotQueued(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, nopLogger())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketResolved,
		TicketID: "t-2",
	})
	require.NoError(t, err)

	select {
	case job := <-svc.Jobs():
		t.Fatalf("unexpected job for %s", job.TicketID)
	default:
	}
}
