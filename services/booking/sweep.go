package booking

import (
	"context"
	"time"

	"glowbook/models"
	"glowbook/services/realtime"

	"go.uber.org/zap"
)

// SweepExpiredPending cancels reservations stuck in pending with an unsettled
// payment beyond the ttl, releasing their slots. Transitions are guarded on
// the current status, so the sweep is idempotent and safe to run concurrently
// with live traffic and with itself.
func (e *DefaultReservationEngine) SweepExpiredPending(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	stale, err := e.Repo.ListPendingPaymentOlderThan(ctx, cutoff)
	if err != nil {
		return 0, e.storeErr("list stale pending reservations", err)
	}

	swept := 0
	for i := range stale {
		r := &stale[i]
		cancelled := models.StatusCancelled
		note := annotate(r.Note, "payment window expired")

		ok, err := e.Repo.ApplyTransition(ctx, r.ID, []string{models.StatusPending},
			models.ReservationPatch{Status: &cancelled, Note: &note})
		if err != nil {
			e.Logger.Warn("sweep: failed to cancel stale reservation",
				zap.String("reservation", r.ID), zap.Error(err))
			continue
		}
		if !ok {
			// Confirmed or cancelled since listing; nothing to do.
			continue
		}

		swept++
		e.publish(realtime.EventBookingCancelled, r, cancelled)
	}

	if swept > 0 {
		e.Logger.Info("swept stale pending reservations", zap.Int("count", swept))
	}
	return swept, nil
}
