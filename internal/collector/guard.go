package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Guard throttles calls to one upstream host and stops calling it after
// repeated failures until the breaker timeout has passed.
type Guard struct {
	name    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuard creates a Guard allowing rps requests per second with the given burst.
func NewGuard(name string, rps float64, burst int) *Guard {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[WARN] circuit breaker %s: %s -> %s", name, from, to)
		},
	}
	return &Guard{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Do waits for a rate-limit token and runs fn through the circuit breaker.
// A nil Guard runs fn directly.
func (g *Guard) Do(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if g == nil {
		return fn()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return g.breaker.Execute(fn)
}

// State reports the breaker state, e.g. "closed" or "open".
func (g *Guard) State() string {
	if g == nil {
		return gobreaker.StateClosed.String()
	}
	return g.breaker.State().String()
}

// Name returns the upstream name the guard was created with.
func (g *Guard) Name() string {
	if g == nil {
		return ""
	}
	return g.name
}
