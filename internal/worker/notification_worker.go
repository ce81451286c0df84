package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-resolver/internal/config"
	"github.com/spec-kit/ticket-resolver/internal/service"
)

// NotificationWorker drains the notification queue in the background and
// delivers escalation webhooks. Delivery failures are logged, never retried
// into the pipeline.
type NotificationWorker struct {
	jobs   <-chan service.NotificationJob
	cfg    config.NotificationConfig
	logger *zap.Logger
	client *http.Client
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(jobs <-chan service.NotificationJob, cfg config.NotificationConfig, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{
		jobs:   jobs,
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Run consumes jobs until the context is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.deliver(ctx, job)
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, job service.NotificationJob) {
	if w.cfg.WebhookURL == "" {
		w.logger.Debug("no webhook configured, skipping notification",
			zap.String("ticket_id", job.TicketID))
		return
	}

	body, err := json.Marshal(map[string]any{
		"ticket_id":  job.TicketID,
		"event_type": job.Event,
		"payload":    job.Payload,
	})
	if err != nil {
		w.logger.Error("encode notification", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		w.logger.Error("build webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("webhook delivery failed",
			zap.String("ticket_id", job.TicketID),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Warn("webhook rejected",
			zap.String("ticket_id", job.TicketID),
			zap.Int("status", resp.StatusCode))
		return
	}
	w.logger.Info("escalation notification delivered",
		zap.String("ticket_id", job.TicketID),
		zap.String("event_type", string(job.Event)))
}
