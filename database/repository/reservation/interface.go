package reservationRepo

import (
	"context"
	"errors"
	"time"

	"glowbook/models"
)

// ErrNotFound is returned when a reservation id does not exist.
var ErrNotFound = errors.New("reservation not found")

// ErrTransient marks store failures that are safe to retry (network hiccups,
// timeouts). Callers retry a small bounded number of times before surfacing.
var ErrTransient = errors.New("transient store error")

// Dashboard role filters understood by ListForOwner.
const (
	RoleCustomer = "customer"
	RoleArtist   = "artist"
	RoleSalon    = "salon"
	RoleAll      = "all"
)

// ReservationRepository is the calendar store: durable, per-resource indexed
// read/write of reservation rows. All mutation flows through the reservation
// engine's serialized-per-resource path.
type ReservationRepository interface {
	Insert(ctx context.Context, r *models.Reservation) error
	GetByID(ctx context.Context, id string) (*models.Reservation, error)

	// FindActiveOverlapping returns pending/confirmed reservations for the
	// resource whose [start, end) interval overlaps the given one, ordered by
	// start ascending. Reservations for other resources are never considered.
	FindActiveOverlapping(ctx context.Context, resourceID string, start, end time.Time) ([]models.Reservation, error)

	// ApplyTransition applies the patch only if the reservation's current
	// status is one of fromStatuses. Returns whether a row was modified, which
	// makes concurrent cancellations and the pending sweep idempotent.
	ApplyTransition(ctx context.Context, id string, fromStatuses []string, patch models.ReservationPatch) (bool, error)

	// ListForOwner returns the reservations visible to a dashboard role:
	// customer (customer_id), artist (resource_id), salon (salon_id) or all.
	ListForOwner(ctx context.Context, role, ownerID string) ([]models.Reservation, error)

	// ListPendingPaymentOlderThan returns reservations still pending with an
	// unsettled payment created before the cutoff, for the reconciliation sweep.
	ListPendingPaymentOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
}
