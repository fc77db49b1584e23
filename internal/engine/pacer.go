package engine

import (
	"context"
	"time"
)

// Pacer inserts the artificial pauses around computer moves. The rules
// engine never sleeps itself.
type Pacer interface {
	// Pause waits for d or until ctx is done, returning ctx.Err() when interrupted
	Pause(ctx context.Context, d time.Duration) error
}

type SleepPacer struct{}

func (SleepPacer) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoPacer never waits. Used by tests and headless runs.
type NoPacer struct{}

func (NoPacer) Pause(context.Context, time.Duration) error {
	return nil
}
