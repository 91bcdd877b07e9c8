package worker

import (
	"context"
	"log/slog"
	"time"
)

// Completer completes confirmed bookings whose stay has ended
type Completer interface {
	CompleteDue(ctx context.Context, limit int) (int, error)
}

// CompletionWorker periodically moves finished stays from confirmed to
// completed. Every booking goes through the lifecycle as the system actor.
type CompletionWorker struct {
	completer Completer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewCompletionWorker creates a new completion worker
func NewCompletionWorker(completer Completer, logger *slog.Logger, interval time.Duration) *CompletionWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &CompletionWorker{
		completer: completer,
		logger:    logger.With(slog.String("component", "completion_worker")),
		interval:  interval,
		batchSize: 200,
	}
}

// Start runs one sweep immediately and then one per interval until ctx is done
func (w *CompletionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("completion worker started", slog.Duration("interval", w.interval))
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("completion worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep completes due bookings in batches until a batch comes back short
func (w *CompletionWorker) Sweep(ctx context.Context) int {
	start := time.Now()
	total := 0
	for {
		n, err := w.completer.CompleteDue(ctx, w.batchSize)
		total += n
		if err != nil {
			w.logger.Error("completion sweep failed",
				slog.Int("completed", total),
				slog.String("error", err.Error()),
			)
			return total
		}
		if n < w.batchSize {
			break
		}
	}

	if total > 0 {
		w.logger.Info("completion sweep finished",
			slog.Int("completed", total),
			slog.Duration("duration", time.Since(start)),
		)
	} else {
		w.logger.Debug("completion sweep found nothing due")
	}
	return total
}
