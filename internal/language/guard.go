package language

import (
	"context"
	"time"
)

// Guard enforces a wall-clock upper bound on the statistical stage. Each
// Run call gets its own timer, so one caller's slow classification never
// stalls another's. A timed-out operation keeps running in its goroutine
// until it finishes naturally; the buffered channel lets it exit without
// leaking.
type Guard struct {
	budget time.Duration
}

// NewGuard creates a guard with the given time budget per call.
func NewGuard(budget time.Duration) *Guard {
	return &Guard{budget: budget}
}

// Run executes op and returns its candidates, or (nil, true) if the budget
// or the caller's context expires first. The timed-out outcome is distinct
// from an empty classification so the caller can apply its fallback policy
// explicitly.
func (g *Guard) Run(ctx context.Context, op func() []Candidate) (candidates []Candidate, timedOut bool) {
	done := make(chan []Candidate, 1)
	go func() {
		done <- op()
	}()

	timer := time.NewTimer(g.budget)
	defer timer.Stop()

	select {
	case out := <-done:
		return out, false
	case <-timer.C:
		return nil, true
	case <-ctx.Done():
		return nil, true
	}
}
