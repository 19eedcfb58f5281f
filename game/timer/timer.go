package timer

import (
	"context"
	"errors"
	"time"
)

var ErrNegativeDuration = errors.New("duration must not be negative")

// Start schedules fn to run once after d, unless ctx is cancelled first.
// It returns immediately; the wait happens on a background goroutine.
func Start(ctx context.Context, d time.Duration, fn func()) error {
	if d < 0 {
		return ErrNegativeDuration
	}
	if fn == nil {
		return errors.New("callback must not be nil")
	}

	go func() {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
		case <-t.C:
			fn()
		}
	}()

	return nil
}

// Service is the keyed form of the timer: instead of invoking a callback it
// emits the key on the Elapsed channel when a timer runs out.
type Service struct {
	elapsed chan string
}

// NewService creates a Service. The elapsed channel is buffered so slow
// consumers do not stall timers.
func NewService() *Service {
	return &Service{
		elapsed: make(chan string, 16),
	}
}

// Elapsed returns the channel keys are emitted on.
func (s *Service) Elapsed() <-chan string {
	return s.elapsed
}

// StartKeyed schedules the key to be emitted on Elapsed after d, unless ctx
// is cancelled first. Emission drops if nobody has drained the buffer; a
// pulse nobody is listening for carries no state.
func (s *Service) StartKeyed(ctx context.Context, d time.Duration, key string) error {
	return Start(ctx, d, func() {
		select {
		case s.elapsed <- key:
		default:
		}
	})
}
