package llm

import (
	"context"
	"time"
)

// Pacer is the inter-call scheduling policy for sequential provider loops.
// The fixed delay is provider courtesy, not correctness-critical backoff, so
// it stays replaceable.
type Pacer interface {
	// Wait blocks for the policy's inter-call delay or until ctx is done.
	Wait(ctx context.Context) error
}

type fixedDelay time.Duration

// FixedDelay waits a constant duration between calls.
func FixedDelay(d time.Duration) Pacer {
	return fixedDelay(d)
}

func (d fixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(d))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type noPacing struct{}

// None imposes no delay. Used by tests and batch reprocessing against local
// providers.
func None() Pacer {
	return noPacing{}
}

func (noPacing) Wait(ctx context.Context) error {
	return ctx.Err()
}
