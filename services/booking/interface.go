package booking

import (
	"context"
	"time"

	"glowbook/models"
)

// Payment outcomes reported by the webhook.
const (
	OutcomePaid   = "paid"
	OutcomeFailed = "failed"
)

// ReservationEngine orchestrates validation, conflict detection, persistence
// and payment-intent issuance as one logical unit of work, and is the only
// mutation path into the calendar store.
type ReservationEngine interface {
	// CreateBookingWithPayment attempts a reservation. A result carrying a
	// non-empty Conflicts list means nothing was persisted and the caller
	// should offer alternate slots; it is not an error.
	CreateBookingWithPayment(ctx context.Context, in models.CreateBookingInput) (*models.BookingResult, error)

	// UpdateBooking applies a whitelisted patch respecting the status
	// transition graph. Illegal transitions return false without error.
	UpdateBooking(ctx context.Context, id string, updates models.BookingUpdate) (bool, error)

	// CancelBooking releases a slot. Idempotent: cancelling an already
	// cancelled reservation returns true with no further side effects.
	CancelBooking(ctx context.Context, id, reason string) (bool, error)

	// GetBooking fetches one reservation by id.
	GetBooking(ctx context.Context, id string) (*models.Reservation, error)

	// ConfirmPayment is invoked by the payment collaborator's webhook.
	// On "paid" the reservation confirms; on "failed" it cancels so the
	// slot becomes bookable again.
	ConfirmPayment(ctx context.Context, reservationID, outcome string) error

	// SweepExpiredPending cancels reservations whose payment never settled
	// within the ttl. Idempotent, safe alongside live traffic.
	SweepExpiredPending(ctx context.Context, ttl time.Duration) (int, error)
}
