package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/meltforce/repcoach/internal/models"
)

const (
	drainBatchSize = 50
	// maxAttempts caps redelivery; entries beyond it are dropped with an
	// error log rather than clogging the queue forever.
	maxAttempts = 20
)

// Applier re-issues queued writes. *storage.DB satisfies it.
type Applier interface {
	ReplaceExerciseLogs(ctx context.Context, userID int, logDate time.Time, rows []models.ExerciseLogRow) (int64, error)
	UpsertDailyAggregate(ctx context.Context, up models.DailyAggregateUpsert) error
}

// Retrier drains the queue on an interval.
type Retrier struct {
	queue    *Queue
	applier  Applier
	interval time.Duration
	log      *slog.Logger
}

// NewRetrier creates a retrier draining queue through applier.
func NewRetrier(queue *Queue, applier Applier, interval time.Duration, log *slog.Logger) *Retrier {
	return &Retrier{queue: queue, applier: applier, interval: interval, log: log}
}

// Run drains the queue once immediately, then on every interval tick until
// ctx is cancelled.
func (r *Retrier) Run(ctx context.Context) {
	r.Drain(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain attempts delivery of every pending entry once. Returns the number
// delivered.
func (r *Retrier) Drain(ctx context.Context) int {
	entries, err := r.queue.Pending(drainBatchSize)
	if err != nil {
		r.log.Error("outbox drain failed", "error", err)
		return 0
	}

	delivered := 0
	for _, e := range entries {
		if err := r.deliver(ctx, e); err != nil {
			if e.Attempts+1 >= maxAttempts {
				r.log.Error("outbox entry dropped after max attempts",
					"id", e.ID, "kind", e.Kind, "attempts", e.Attempts+1, "error", err)
				if err := r.queue.MarkDone(e.ID); err != nil {
					r.log.Error("failed to drop outbox entry", "id", e.ID, "error", err)
				}
				continue
			}
			r.log.Warn("outbox redelivery failed", "id", e.ID, "kind", e.Kind, "attempts", e.Attempts+1, "error", err)
			if err := r.queue.MarkFailed(e.ID); err != nil {
				r.log.Error("failed to mark outbox entry", "id", e.ID, "error", err)
			}
			continue
		}

		if err := r.queue.MarkDone(e.ID); err != nil {
			r.log.Error("failed to remove delivered outbox entry", "id", e.ID, "error", err)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		r.log.Info("outbox drained", "delivered", delivered, "pending_was", len(entries))
	}
	return delivered
}

func (r *Retrier) deliver(ctx context.Context, e Entry) error {
	switch e.Kind {
	case KindExerciseLogs:
		var p exerciseLogsPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("decoding payload: %w", err)
		}
		_, err := r.applier.ReplaceExerciseLogs(ctx, p.UserID, p.LogDate, p.Rows)
		return err
	case KindDailyAggregate:
		var p aggregatePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return fmt.Errorf("decoding payload: %w", err)
		}
		p.Upsert.UserID = p.UserID
		return r.applier.UpsertDailyAggregate(ctx, p.Upsert)
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
}
