package booking

import (
	"context"

	"glowbook/models"
	"glowbook/services/realtime"

	"go.uber.org/zap"
)

// UpdateBooking applies a whitelisted patch (status, payment status, note).
// Illegal transitions are rejected with (false, nil): rejection is a normal
// outcome the caller displays, not a fault.
func (e *DefaultReservationEngine) UpdateBooking(ctx context.Context, id string, updates models.BookingUpdate) (bool, error) {
	r, err := e.getReservation(ctx, id)
	if err != nil {
		return false, err
	}

	patch := models.ReservationPatch{Note: updates.Note}
	status := r.Status

	if updates.Status != nil && *updates.Status != r.Status {
		if !models.CanTransitionStatus(r.Status, *updates.Status) {
			return false, nil
		}
		patch.Status = updates.Status
		status = *updates.Status
	}
	if updates.PaymentStatus != nil && *updates.PaymentStatus != r.PaymentStatus {
		if !models.CanTransitionPayment(r.PaymentStatus, *updates.PaymentStatus) {
			return false, nil
		}
		patch.PaymentStatus = updates.PaymentStatus
	}

	// A reservation may never sit confirmed on a failed payment.
	if status == models.StatusConfirmed {
		ps := r.PaymentStatus
		if updates.PaymentStatus != nil {
			ps = *updates.PaymentStatus
		}
		if ps == models.PaymentFailed {
			return false, nil
		}
	}

	if patch.Status == nil && patch.PaymentStatus == nil && patch.Note == nil {
		return true, nil
	}

	var ok bool
	err = e.withRetry(ctx, func() error {
		var applyErr error
		ok, applyErr = e.Repo.ApplyTransition(ctx, id, []string{r.Status}, patch)
		return applyErr
	})
	if err != nil {
		return false, e.storeErr("update reservation", err)
	}
	if !ok {
		// The reservation moved on concurrently; the caller re-reads.
		return false, nil
	}

	e.publish(realtime.EventBookingUpdated, r, status)
	return true, nil
}

// CancelBooking releases a slot by transitioning the reservation to
// cancelled, annotating the note with the reason. Idempotent.
func (e *DefaultReservationEngine) CancelBooking(ctx context.Context, id, reason string) (bool, error) {
	r, err := e.getReservation(ctx, id)
	if err != nil {
		return false, err
	}

	// Already cancelled: success with no duplicate event.
	if r.Status == models.StatusCancelled {
		return true, nil
	}
	if !models.CanTransitionStatus(r.Status, models.StatusCancelled) {
		return false, nil
	}

	cancelled := models.StatusCancelled
	note := annotate(r.Note, reason)

	var ok bool
	err = e.withRetry(ctx, func() error {
		var applyErr error
		ok, applyErr = e.Repo.ApplyTransition(ctx, id, models.ActiveStatuses,
			models.ReservationPatch{Status: &cancelled, Note: &note})
		return applyErr
	})
	if err != nil {
		return false, e.storeErr("cancel reservation", err)
	}
	if !ok {
		// Raced with another transition; a concurrent cancel still counts.
		cur, curErr := e.getReservation(ctx, id)
		if curErr == nil && cur.Status == models.StatusCancelled {
			return true, nil
		}
		return false, nil
	}

	e.publish(realtime.EventBookingCancelled, r, cancelled)
	e.Logger.Info("reservation cancelled",
		zap.String("reservation", r.ID),
		zap.String("reason", reason))
	return true, nil
}

// ConfirmPayment handles the payment collaborator's asynchronous outcome.
// "paid" confirms the reservation; "failed" cancels it so the slot becomes
// immediately bookable by other customers. Duplicate webhook deliveries are
// no-ops.
func (e *DefaultReservationEngine) ConfirmPayment(ctx context.Context, reservationID, outcome string) error {
	r, err := e.getReservation(ctx, reservationID)
	if err != nil {
		return err
	}

	switch outcome {
	case OutcomePaid:
		if r.PaymentStatus == models.PaymentPaid {
			return nil
		}
		if !models.CanTransitionPayment(r.PaymentStatus, models.PaymentPaid) {
			return &ValidationError{Field: "outcome", Message: "payment already " + r.PaymentStatus}
		}

		paid := models.PaymentPaid
		patch := models.ReservationPatch{PaymentStatus: &paid}
		status := r.Status
		if r.Status == models.StatusPending {
			confirmed := models.StatusConfirmed
			patch.Status = &confirmed
			status = confirmed
		}

		var ok bool
		err = e.withRetry(ctx, func() error {
			var applyErr error
			ok, applyErr = e.Repo.ApplyTransition(ctx, reservationID, models.ActiveStatuses, patch)
			return applyErr
		})
		if err != nil {
			return e.storeErr("confirm payment", err)
		}
		if !ok {
			// Cancelled (by the sweep or the customer) before the payment
			// settled. Flag for manual refund handling.
			e.Logger.Warn("payment settled for a reservation no longer active",
				zap.String("reservation", reservationID))
			return nil
		}

		e.publish(realtime.EventBookingConfirmed, r, status)
		e.Logger.Info("reservation confirmed", zap.String("reservation", reservationID))
		return nil

	case OutcomeFailed:
		if r.PaymentStatus == models.PaymentFailed {
			return nil
		}

		failed := models.PaymentFailed
		cancelled := models.StatusCancelled
		note := annotate(r.Note, "payment failed")

		var ok bool
		err = e.withRetry(ctx, func() error {
			var applyErr error
			ok, applyErr = e.Repo.ApplyTransition(ctx, reservationID, models.ActiveStatuses,
				models.ReservationPatch{Status: &cancelled, PaymentStatus: &failed, Note: &note})
			return applyErr
		})
		if err != nil {
			return e.storeErr("record payment failure", err)
		}
		if !ok {
			return nil
		}

		e.publish(realtime.EventBookingCancelled, r, cancelled)
		e.Logger.Info("reservation cancelled after payment failure",
			zap.String("reservation", reservationID))
		return nil

	default:
		return &ValidationError{Field: "outcome", Message: "must be paid or failed"}
	}
}
