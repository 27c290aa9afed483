package email

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy bounds redelivery of a failed message. The n-th retry waits n*Backoff.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy makes three attempts, two and four seconds apart.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 2 * time.Second}

// RetrySender retries a Sender with linear backoff until it succeeds,
// the attempts run out or the context ends.
type RetrySender struct {
	next   Sender
	policy RetryPolicy
	logger zerolog.Logger
}

// NewRetrySender wraps next. A policy with fewer than one attempt sends once.
func NewRetrySender(next Sender, policy RetryPolicy, logger zerolog.Logger) *RetrySender {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &RetrySender{next: next, policy: policy, logger: logger}
}

// Send implements Sender and returns the last delivery error
func (s *RetrySender) Send(ctx context.Context, msg Message) error {
	var err error
	for attempt := 1; attempt <= s.policy.Attempts; attempt++ {
		if err = s.next.Send(ctx, msg); err == nil {
			return nil
		}
		if attempt == s.policy.Attempts {
			break
		}

		delay := time.Duration(attempt) * s.policy.Backoff
		s.logger.Warn().
			Err(err).
			Str("to", msg.To).
			Int("attempt", attempt).
			Dur("retryIn", delay).
			Msg("Email delivery failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
