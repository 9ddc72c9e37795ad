package booking

import (
	"context"
	"time"

	reservationRepo "glowbook/database/repository/reservation"
	"glowbook/models"
)

// ConflictDetector returns the existing reservations that would collide with
// a proposed slot. Pure read, no side effects.
type ConflictDetector interface {
	// FindConflicts returns all pending/confirmed reservations for the
	// resource overlapping the half-open interval [start, end), ordered by
	// start ascending. Reservations of other resources are never considered:
	// each resource operates an independent calendar.
	FindConflicts(ctx context.Context, resourceID string, start, end time.Time) ([]models.Reservation, error)
}

// StoreConflictDetector reads directly from the calendar store.
type StoreConflictDetector struct {
	Repo reservationRepo.ReservationRepository
}

func (d *StoreConflictDetector) FindConflicts(ctx context.Context, resourceID string, start, end time.Time) ([]models.Reservation, error) {
	return d.Repo.FindActiveOverlapping(ctx, resourceID, start, end)
}
