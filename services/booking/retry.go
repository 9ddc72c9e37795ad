package booking

import (
	"context"
	"errors"
	"time"

	reservationRepo "glowbook/database/repository/reservation"
)

const storeRetryAttempts = 3

// withRetry re-runs fn on transient store failures with a short growing
// backoff. Anything else surfaces immediately.
func (e *DefaultReservationEngine) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= storeRetryAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, reservationRepo.ErrTransient) {
			return err
		}
		if attempt < storeRetryAttempts {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
	}
	return err
}
