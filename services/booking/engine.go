package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	reservationRepo "glowbook/database/repository/reservation"
	"glowbook/models"
	"glowbook/services/catalog"
	"glowbook/services/profile"
	"glowbook/services/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultReservationEngine is the production implementation.
type DefaultReservationEngine struct {
	Repo      reservationRepo.ReservationRepository
	Conflicts ConflictDetector
	Catalog   catalog.ServiceCatalog
	Profiles  profile.ProfileService
	Payments  PaymentProcessor
	Bus       *realtime.Bus
	Logger    *zap.Logger

	Currency        string
	DefaultDuration time.Duration // Interval length when the service has none

	locks resourceLocker
}

// CreateBookingWithPayment resolves the service and resource, computes the
// candidate interval, checks conflicts and, when the slot is free, persists a
// pending reservation and opens a payment intent for it. Conflict check and
// insert run under the resource's lock; the payment call never does, as it is
// the dominant latency source.
func (e *DefaultReservationEngine) CreateBookingWithPayment(ctx context.Context, in models.CreateBookingInput) (*models.BookingResult, error) {
	if in.CustomerID == "" {
		return nil, &ValidationError{Field: "customerId", Message: "required"}
	}
	if in.ResourceID == "" {
		return nil, &ValidationError{Field: "resourceId", Message: "required"}
	}
	if in.ServiceID == "" {
		return nil, &ValidationError{Field: "serviceId", Message: "required"}
	}

	svc, err := e.Catalog.GetService(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, &NotFoundError{Kind: "service", ID: in.ServiceID}
		}
		return nil, fmt.Errorf("resolving service: %w", err)
	}

	res, err := e.Profiles.GetProfile(ctx, in.ResourceID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, &NotFoundError{Kind: "resource", ID: in.ResourceID}
		}
		return nil, fmt.Errorf("resolving resource: %w", err)
	}

	start, err := parseSlot(in.Date, in.Time)
	if err != nil {
		return nil, &ValidationError{Field: "slot", Message: err.Error()}
	}
	duration := e.DefaultDuration
	if svc.DurationMin > 0 {
		duration = time.Duration(svc.DurationMin) * time.Minute
	}
	end := start.Add(duration)

	// Serialize conflict check + insert per resource: the first request to
	// take the lock commits, the second re-evaluates and sees the committed
	// row as a conflict.
	unlock := e.locks.acquire(in.ResourceID)

	conflicts, err := e.Conflicts.FindConflicts(ctx, in.ResourceID, start, end)
	if err != nil {
		unlock()
		return nil, e.storeErr("conflict check", err)
	}
	if len(conflicts) > 0 {
		unlock()
		return &models.BookingResult{Conflicts: conflicts}, nil
	}

	now := time.Now().UTC()
	r := &models.Reservation{
		ID:            uuid.New().String(),
		CustomerID:    in.CustomerID,
		ResourceID:    in.ResourceID,
		SalonID:       res.SalonID,
		ServiceID:     svc.ID,
		Start:         start,
		End:           end,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		Price:         svc.Price,
		Note:          in.Note,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = e.withRetry(ctx, func() error { return e.Repo.Insert(ctx, r) })
	unlock()
	if err != nil {
		return nil, e.storeErr("insert reservation", err)
	}

	intent, err := e.Payments.CreateIntent(ctx, models.PaymentRequest{
		ReservationID: r.ID,
		CustomerID:    r.CustomerID,
		Amount:        r.Price,
		Currency:      e.Currency,
		Description:   fmt.Sprintf("%s with %s", svc.Name, res.DisplayName),
	})
	if err != nil {
		// Compensate by cancelling the just-created row so the slot is not
		// phantom-held. The row survives as an audit record.
		e.compensateCancel(ctx, r, "payment intent creation failed")
		return nil, &PaymentError{Stage: "create_intent", Err: err}
	}

	e.publish(realtime.EventBookingCreated, r, r.Status)
	e.Logger.Info("reservation created",
		zap.String("reservation", r.ID),
		zap.String("resource", r.ResourceID),
		zap.Time("start", r.Start))

	return &models.BookingResult{Booking: r, PaymentIntent: intent}, nil
}

func (e *DefaultReservationEngine) compensateCancel(ctx context.Context, r *models.Reservation, reason string) {
	cancelled := models.StatusCancelled
	note := annotate(r.Note, reason)
	ok, err := e.Repo.ApplyTransition(ctx, r.ID, models.ActiveStatuses,
		models.ReservationPatch{Status: &cancelled, Note: &note})
	if err != nil || !ok {
		e.Logger.Error("failed to cancel reservation after payment failure",
			zap.String("reservation", r.ID), zap.Error(err))
	}
}

// GetBooking fetches one reservation by id.
func (e *DefaultReservationEngine) GetBooking(ctx context.Context, id string) (*models.Reservation, error) {
	return e.getReservation(ctx, id)
}

func (e *DefaultReservationEngine) getReservation(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := e.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrNotFound) {
			return nil, &NotFoundError{Kind: "reservation", ID: id}
		}
		return nil, e.storeErr("fetch reservation", err)
	}
	return r, nil
}

func (e *DefaultReservationEngine) publish(eventType string, r *models.Reservation, status string) {
	if e.Bus == nil {
		return
	}
	e.Bus.Publish(realtime.BookingEvent{
		Type:          eventType,
		ReservationID: r.ID,
		CustomerID:    r.CustomerID,
		ResourceID:    r.ResourceID,
		SalonID:       r.SalonID,
		Status:        status,
	})
}

func (e *DefaultReservationEngine) storeErr(op string, err error) error {
	if errors.Is(err, reservationRepo.ErrTransient) {
		return &TransientStoreError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// parseSlot combines "YYYY-MM-DD" and "HH:MM" into the slot start.
func parseSlot(date, clock string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected date YYYY-MM-DD and time HH:MM")
	}
	return t.UTC(), nil
}

func annotate(note, reason string) string {
	if reason == "" {
		return note
	}
	if note == "" {
		return reason
	}
	return note + " | " + reason
}
