package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/c4sa/Unido-sub000/internal/persistence"
)

// RelayConfig tunes outbox draining.
type RelayConfig struct {
	BatchSize int
	// Timeout bounds one scheduled run.
	Timeout time.Duration
}

// Relay publishes unpublished outbox records and marks them published.
// Delivery is at least once: a crash between publish and mark resends.
type Relay struct {
	store     persistence.NotificationRepository
	publisher Publisher
	config    RelayConfig
	now       func() time.Time
	logger    *slog.Logger
	running   sync.Mutex
}

// NewRelay constructs a Relay.
func NewRelay(store persistence.NotificationRepository, publisher Publisher, config RelayConfig, now func() time.Time, logger *slog.Logger) *Relay {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		config:    config,
		now:       now,
		logger:    logger.With("component", "notification_relay"),
	}
}

// RunOnce drains the outbox batch by batch until it is empty or a step fails.
// It returns the number of records published.
func (r *Relay) RunOnce(ctx context.Context) (published int, err error) {
	if !r.running.TryLock() {
		r.logger.DebugContext(ctx, "relay run skipped, previous run still active")
		return 0, nil
	}
	defer r.running.Unlock()

	for {
		if err = ctx.Err(); err != nil {
			return published, err
		}

		var batch []persistence.Notification
		if batch, err = r.store.ListUnpublished(ctx, r.config.BatchSize); err != nil {
			return published, fmt.Errorf("notify: list outbox: %w", err)
		}
		if len(batch) == 0 {
			return published, nil
		}

		events := make([]Event, len(batch))
		ids := make([]string, len(batch))
		for i, record := range batch {
			events[i] = EventFromRecord(record)
			ids[i] = record.ID
		}

		if err = r.publisher.Publish(ctx, events); err != nil {
			return published, fmt.Errorf("notify: publish batch: %w", err)
		}
		if err = r.store.MarkPublished(ctx, ids, r.now().UTC()); err != nil {
			return published, fmt.Errorf("notify: mark published: %w", err)
		}
		published += len(batch)

		if len(batch) < r.config.BatchSize {
			return published, nil
		}
	}
}

// Schedule registers the relay on c using a standard five-field spec.
func (r *Relay) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
		defer cancel()

		published, err := r.RunOnce(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "notification relay failed", "error", err, "published", published)
			return
		}
		if published > 0 {
			r.logger.InfoContext(ctx, "notifications relayed", "published", published)
		}
	})
}
