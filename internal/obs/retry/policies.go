package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// PublishPolicy bounds retries of intent publishes to the channel. Publish
// is idempotent from the consumer's point of view (receivers tolerate
// duplicates), so every error is worth retrying.
func PublishPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "intent_publish",
		Attempts: 5,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("publish retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("publish retries exhausted", zap.Error(err))
			}
		},
	}
}

// ReconcilePolicy covers deletes of invalidated subscriptions. A failed
// delete is retried briefly and then surrendered: the next cycle that
// addresses the dead endpoint re-attempts it.
func ReconcilePolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "reconcile_delete",
		Attempts: 2,
		Backoff:  ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("reconcile retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
