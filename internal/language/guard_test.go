package language

import (
	"context"
	"testing"
	"time"
)

func TestGuard(t *testing.T) {
	t.Run("FastOperationCompletes", func(t *testing.T) {
		guard := NewGuard(50 * time.Millisecond)

		candidates, timedOut := guard.Run(context.Background(), func() []Candidate {
			return []Candidate{{Language: "en", Probability: 0.9}}
		})

		if timedOut {
			t.Error("Fast operation reported as timed out")
		}
		if len(candidates) != 1 || candidates[0].Language != "en" {
			t.Errorf("Unexpected candidates: %v", candidates)
		}
	})

	t.Run("SlowOperationTimesOut", func(t *testing.T) {
		guard := NewGuard(10 * time.Millisecond)
		release := make(chan struct{})
		defer close(release)

		start := time.Now()
		candidates, timedOut := guard.Run(context.Background(), func() []Candidate {
			<-release
			return []Candidate{{Language: "en", Probability: 0.9}}
		})
		elapsed := time.Since(start)

		if !timedOut {
			t.Error("Slow operation not reported as timed out")
		}
		if candidates != nil {
			t.Errorf("Timed-out run returned candidates: %v", candidates)
		}
		if elapsed > 100*time.Millisecond {
			t.Errorf("Guard returned after %v, budget was 10ms", elapsed)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		guard := NewGuard(time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		release := make(chan struct{})
		defer close(release)

		_, timedOut := guard.Run(ctx, func() []Candidate {
			<-release
			return nil
		})
		if !timedOut {
			t.Error("Cancelled context not reported as timed out")
		}
	})
}
