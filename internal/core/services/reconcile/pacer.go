package reconcile

import (
	"context"
	"time"

	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// SleepPacer waits on a timer. It never returns before d has elapsed unless
// ctx is done.
type SleepPacer struct{}

var _ ports.Pacer = SleepPacer{}

func (SleepPacer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
