package core

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a cooldown between consecutive generations of a broadcast so
// that external rate limits are respected. The first Wait returns
// immediately; after Done, the next Wait blocks until interval has elapsed
// since that completion, however long the generation itself took.
// A nil Pacer or a zero interval never blocks.
type Pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer creates a pacer with the given cooldown.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until the cooldown since the last Done has elapsed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// Done marks a generation as completed and starts the cooldown.
func (p *Pacer) Done() {
	if p == nil || p.interval <= 0 {
		return
	}
	// A fresh bucket holds one token; spending it now makes the next one
	// available exactly interval from this completion.
	p.limiter = rate.NewLimiter(rate.Every(p.interval), 1)
	p.limiter.Allow()
}
