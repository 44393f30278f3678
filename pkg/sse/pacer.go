package sse

import (
	"context"
	"time"
)

// DefaultFrameDelay is the pause inserted between successive frame writes so
// downstream consumers receive output at a steady "typing" pace.
const DefaultFrameDelay = 20 * time.Millisecond

// Pacer decides how long the reframer waits before writing the next frame.
// Wait must return early with the context error when ctx is done.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer waits a constant Delay between frames.
type FixedPacer struct {
	Delay time.Duration
}

// NewFixedPacer returns a FixedPacer. A non-positive delay disables pacing.
func NewFixedPacer(delay time.Duration) *FixedPacer {
	return &FixedPacer{Delay: delay}
}

// Wait blocks for the configured delay or until ctx is done.
func (p *FixedPacer) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(p.Delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NopPacer never waits.
type NopPacer struct{}

// Wait returns immediately unless ctx is already done.
func (NopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
