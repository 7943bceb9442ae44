package seed

import (
	"context"
	"sync"
	"time"
)

// RateLimiter hands out at most perMinute backend writes per minute, with an initial burst of perMinute.
type RateLimiter struct {
	tokens chan struct{}
	refill *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

func NewRateLimiter(perMinute int) *RateLimiter {
	tokens := make(chan struct{}, perMinute)
	for i := 0; i < perMinute; i++ {
		tokens <- struct{}{}
	}

	rl := &RateLimiter{
		tokens: tokens,
		refill: time.NewTicker(time.Minute / time.Duration(perMinute)),
		stop:   make(chan struct{}),
	}
	go rl.startRefill()
	return rl
}

// Wait blocks until a write may proceed or ctx ends
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.tokens:
		return nil
	}
}

func (rl *RateLimiter) startRefill() {
	for {
		select {
		case <-rl.stop:
			return
		case <-rl.refill.C:
			select {
			case rl.tokens <- struct{}{}:
			default:
				// bucket full
			}
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() {
		rl.refill.Stop()
		close(rl.stop)
	})
}
