package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/pkg/jobs"
)

// EventSubscriber receives committed ledger events.
type EventSubscriber interface {
	Name() string
	Publish(ctx context.Context, evt models.Event) error
}

// NotificationConfig tunes delivery retries.
type NotificationConfig struct {
	BufferSize int
	Retries    int
	RetryDelay time.Duration
}

// NotificationService fans committed events out to subscribers. Each
// subscriber owns an ordered single-worker queue, so every subscriber sees
// events in commit order even while another one is retrying.
type NotificationService struct {
	queues  []*jobs.Queue
	names   []string
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService builds one ordered queue per subscriber.
func NewNotificationService(subscribers []EventSubscriber, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{metrics: metrics, logger: logger}
	for _, sub := range subscribers {
		svc.names = append(svc.names, sub.Name())
		svc.queues = append(svc.queues, jobs.NewQueue("notify-"+sub.Name(), svc.deliver(sub), jobs.QueueConfig{
			BufferSize: cfg.BufferSize,
			MaxRetries: cfg.Retries,
			RetryDelay: cfg.RetryDelay,
			Ordered:    true,
			Logger:     logger,
		}))
	}
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	for _, q := range s.queues {
		q.Start(ctx)
	}
}

// Stop flushes buffered events and stops the workers.
func (s *NotificationService) Stop() {
	for _, q := range s.queues {
		q.Stop()
	}
}

// Dispatch enqueues events for every subscriber without blocking. When a
// subscriber's buffer is full the event is dropped for that subscriber only
// and counted as a failed delivery.
func (s *NotificationService) Dispatch(events []models.Event) {
	for i, q := range s.queues {
		for _, evt := range events {
			job := jobs.Job{ID: fmt.Sprintf("%d", evt.Seq), Type: string(evt.Type), Payload: evt}
			if err := q.TryEnqueue(job); err != nil {
				s.logger.Warn("event notification dropped",
					zap.String("subscriber", s.names[i]),
					zap.Uint64("seq", evt.Seq),
					zap.Error(err),
				)
				if errors.Is(err, jobs.ErrQueueFull) {
					s.metrics.RecordDelivery(s.names[i], false)
				}
			}
		}
	}
}

func (s *NotificationService) deliver(sub EventSubscriber) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		evt, ok := job.Payload.(models.Event)
		if !ok {
			return nil
		}
		err := sub.Publish(ctx, evt)
		s.metrics.RecordDelivery(sub.Name(), err == nil)
		return err
	}
}

// LogSubscriber writes every committed event as a structured log line.
type LogSubscriber struct {
	logger *zap.Logger
}

// NewLogSubscriber constructs a LogSubscriber.
func NewLogSubscriber(logger *zap.Logger) *LogSubscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSubscriber{logger: logger}
}

// Name identifies the subscriber.
func (l *LogSubscriber) Name() string {
	return "log"
}

// Publish logs evt.
func (l *LogSubscriber) Publish(_ context.Context, evt models.Event) error {
	l.logger.Info("ledger event",
		zap.Uint64("seq", evt.Seq),
		zap.String("type", string(evt.Type)),
		zap.String("actor", evt.Actor),
		zap.ByteString("payload", evt.Payload),
		zap.Time("occurred_at", evt.OccurredAt),
	)
	return nil
}
