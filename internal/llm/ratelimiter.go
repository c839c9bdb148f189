package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider wraps a Provider with a token bucket so a shared
// local model is not flooded by concurrent analyses.
type RateLimitedProvider struct {
	provider Provider
	rpm      int

	mu       sync.Mutex
	tokens   int
	lastFill time.Time
}

// NewRateLimitedProvider allows at most rpm requests per minute through p.
func NewRateLimitedProvider(p Provider, rpm int) Provider {
	return &RateLimitedProvider{provider: p, rpm: rpm, tokens: rpm, lastFill: time.Now()}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// take refills the bucket and consumes a token. When the bucket is empty it
// returns how long until the next token.
func (r *RateLimitedProvider) take(now time.Time) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	interval := time.Minute / time.Duration(r.rpm)
	if refill := int(now.Sub(r.lastFill) / interval); refill > 0 {
		r.tokens = min(r.tokens+refill, r.rpm)
		r.lastFill = r.lastFill.Add(time.Duration(refill) * interval)
	}
	if r.tokens > 0 {
		r.tokens--
		return 0, true
	}
	return r.lastFill.Add(interval).Sub(now), false
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		delay, ok := r.take(time.Now())
		if ok {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
