package jobs

import (
	"context"
	"log/slog"
	"time"

	"taskforce/internal/models"
)

// PendingCounter reports the size of each review queue.
type PendingCounter interface {
	PendingCounts(ctx context.Context) (map[models.Kind]int64, error)
}

// DigestSender delivers the backlog reminder.
type DigestSender interface {
	NotifyPendingDigest(ctx context.Context, counts map[models.Kind]int64)
}

// PendingDigest periodically reminds admins of items waiting for review.
type PendingDigest struct {
	store    PendingCounter
	sender   DigestSender
	interval time.Duration
}

// NewPendingDigest creates a new digest job.
func NewPendingDigest(store PendingCounter, sender DigestSender, interval time.Duration) *PendingDigest {
	return &PendingDigest{store: store, sender: sender, interval: interval}
}

// Start runs the digest loop until ctx is cancelled. The first digest goes
// out after one interval, not at startup, so restarts don't spam admins.
func (d *PendingDigest) Start(ctx context.Context) {
	slog.Info("pending digest started", "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("pending digest stopped")
			return
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

func (d *PendingDigest) runOnce(ctx context.Context) {
	counts, err := d.store.PendingCounts(ctx)
	if err != nil {
		slog.Warn("pending digest: failed to count queues", "error", err)
		return
	}
	d.sender.NotifyPendingDigest(ctx, counts)
}
