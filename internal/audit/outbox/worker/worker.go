// Package worker relays outbox entries to Kafka.
package worker

import (
	"context"
	"log/slog"
	"time"

	"custodian/internal/audit/outbox"
	"custodian/internal/audit/outbox/metrics"
	"custodian/internal/platform/kafka/producer"
)

// Producer publishes a single message. Implemented by *producer.Producer.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Worker polls the outbox table and publishes events to Kafka.
type Worker struct {
	store        outbox.Store
	producer     Producer
	topic        string
	batchSize    int
	pollInterval time.Duration
	drainTimeout time.Duration
	retention    time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures the Worker.
type Option func(*Worker)

func WithTopic(topic string) Option {
	return func(w *Worker) {
		w.topic = topic
	}
}

// WithBatchSize sets the maximum number of entries to fetch per poll.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithRetention keeps processed entries for d before pruning them. Zero disables pruning.
func WithRetention(d time.Duration) Option {
	return func(w *Worker) {
		if d >= 0 {
			w.retention = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// New creates a new outbox worker.
func New(store outbox.Store, prod Producer, opts ...Option) *Worker {
	w := &Worker{
		store:        store,
		producer:     prod,
		topic:        "custodian.lifecycle.events",
		batchSize:    100,
		pollInterval: time.Second,
		drainTimeout: 10 * time.Second,
		retention:    7 * 24 * time.Hour,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the polling loop until ctx is cancelled, then drains what is left.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	prune := time.NewTicker(time.Hour)
	defer prune.Stop()

	w.logger.InfoContext(ctx, "outbox worker started",
		"topic", w.topic,
		"poll_interval", w.pollInterval.String(),
	)
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox poll failed", "error", err)
			}
		case <-prune.C:
			if _, err := w.Prune(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox prune failed", "error", err)
			}
		}
	}
}

// RunOnce publishes one batch and returns how many entries were published.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		if w.metrics != nil {
			w.metrics.ObservePollDuration(time.Since(start).Seconds())
		}
	}()

	entries, err := w.store.FetchUnprocessed(ctx, w.batchSize)
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncPublishFailures()
		}
		return 0, err
	}
	if len(entries) == 0 {
		w.updatePending(ctx)
		return 0, nil
	}
	if w.metrics != nil {
		w.metrics.ObserveBatchSize(len(entries))
	}

	published := 0
	for _, entry := range entries {
		if err := w.publish(ctx, entry); err != nil {
			w.logger.ErrorContext(ctx, "failed to publish outbox entry",
				"id", entry.ID,
				"event_type", entry.EventType,
				"error", err,
			)
			if w.metrics != nil {
				w.metrics.IncPublishFailures()
			}
			// retried on the next poll
			continue
		}
		if err := w.store.MarkProcessed(ctx, entry.ID, w.now()); err != nil {
			// Published but not marked: it will be re-published. Consumers dedupe on the record key.
			w.logger.ErrorContext(ctx, "failed to mark entry as processed",
				"id", entry.ID,
				"error", err,
			)
			continue
		}
		published++
		if w.metrics != nil {
			w.metrics.IncPublished()
		}
	}
	w.updatePending(ctx)
	return published, nil
}

func (w *Worker) publish(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()
	msg := &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.ID.String()),
		Value: entry.Payload,
		Headers: map[string]string{
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID,
			"event_type":     entry.EventType,
		},
	}
	if err := w.producer.Produce(ctx, msg); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.ObservePublishDuration(time.Since(start).Seconds())
	}
	return nil
}

// drain publishes remaining entries during shutdown. A batch that publishes
// nothing ends the drain so a dead broker cannot hold shutdown hostage.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
	defer cancel()

	w.logger.Info("draining outbox worker")
	for ctx.Err() == nil {
		n, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("failed to drain outbox", "error", err)
			return
		}
		if n == 0 {
			return
		}
	}
}

func (w *Worker) updatePending(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	count, err := w.store.CountPending(ctx)
	if err != nil {
		return
	}
	w.metrics.SetPendingDepth(count)
}

// Prune deletes processed entries older than the retention window.
func (w *Worker) Prune(ctx context.Context) (int64, error) {
	if w.retention == 0 {
		return 0, nil
	}
	n, err := w.store.DeleteProcessedBefore(ctx, w.now().Add(-w.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "pruned processed outbox entries", "count", n)
	}
	return n, nil
}
