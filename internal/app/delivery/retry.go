// Package delivery holds the bounded retry policy shared by every telemetry sink.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/ghalamif/DriveGuard/internal/domain"
)

// Backoff returns the pause inserted after a failed attempt (1-based).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// LinearBackoff waits Base*attempt between attempts.
type LinearBackoff struct {
	Base time.Duration
}

func (b LinearBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return b.Base * time.Duration(attempt)
}

// Sleeper pauses between attempts. It returns early with ctx.Err() when the
// context is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper is the wall-clock Sleeper.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Result is what a single attempt reports back to the Retrier.
type Result struct {
	OK      bool
	Status  int // 0 when the attempt produced no response
	Message string
}

// AttemptFunc performs one delivery attempt.
type AttemptFunc func(ctx context.Context, attempt int) Result

// Retrier runs an AttemptFunc up to Attempts times, sleeping Backoff.Delay(n)
// after failed attempt n unless it was the last one.
type Retrier struct {
	Attempts int
	Backoff  Backoff
	Sleeper  Sleeper
}

// NewRetrier builds a linear-backoff Retrier. A nil sleeper uses wall-clock time.
func NewRetrier(attempts int, backoff time.Duration, sleeper Sleeper) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	if sleeper == nil {
		sleeper = TimerSleeper{}
	}
	return &Retrier{
		Attempts: attempts,
		Backoff:  LinearBackoff{Base: backoff},
		Sleeper:  sleeper,
	}
}

// Do never returns an error: exhaustion and cancellation are reported as a
// failed outcome carrying the last status and message seen.
func (r *Retrier) Do(ctx context.Context, fn AttemptFunc) domain.DeliveryOutcome {
	var (
		lastStatus int
		lastMsg    string
	)

	for attempt := 1; attempt <= r.Attempts; attempt++ {
		res := fn(ctx, attempt)
		if res.Status != 0 {
			lastStatus = res.Status
		}
		if res.OK {
			return domain.DeliveryOutcome{Success: true, Status: res.Status, Message: "OK", Attempts: attempt}
		}
		lastMsg = res.Message

		if attempt == r.Attempts {
			break
		}
		if err := r.Sleeper.Sleep(ctx, r.Backoff.Delay(attempt)); err != nil {
			return domain.DeliveryOutcome{
				Status:   lastStatus,
				Message:  fmt.Sprintf("%s (retry aborted: %v)", lastMsg, err),
				Attempts: attempt,
			}
		}
	}

	return domain.DeliveryOutcome{Status: lastStatus, Message: lastMsg, Attempts: r.Attempts}
}
