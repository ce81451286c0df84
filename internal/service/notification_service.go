package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-resolver/internal/events"
)

// notificationQueueSize bounds pending notification jobs. Delivery is
// best-effort: when the queue is full the job is dropped and logged rather
// than blocking the pipeline.
const notificationQueueSize = 128

// NotificationJob is one pending outbound notification.
type NotificationJob struct {
	TicketID string
	Event    events.EventType
	Payload  any
}

// NotificationService turns pipeline events into queued notification jobs
// consumed by the background worker.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	jobs       chan NotificationJob
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		jobs:       make(chan NotificationJob, notificationQueueSize),
	}
}

// RegisterHandlers subscribes to pipeline events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
}

// Jobs exposes the pending notification queue.
func (n *NotificationService) Jobs() <-chan NotificationJob {
	return n.jobs
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	n.enqueue(NotificationJob{
		TicketID: event.TicketID,
		Event:    event.Type,
		Payload:  event.Payload,
	})
	return nil
}

func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket resolved",
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) enqueue(job NotificationJob) {
	select {
	case n.jobs <- job:
	default:
		n.logger.Warn("notification queue full, dropping job",
			zap.String("ticket_id", job.TicketID),
			zap.String("event_type", string(job.Event)))
	}
}
