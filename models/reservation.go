package models

import "time"

// Reservation lifecycle statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// Payment statuses, an independent axis from the reservation status.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Reservation represents one booking of a resource's calendar.
// Reservations are never physically deleted; cancellation is a status
// transition so the attempted-booking record survives for audit.
type Reservation struct {
	ID            string    `bson:"id" json:"id"`                             // Unique reservation identifier (UUID)
	CustomerID    string    `bson:"customer_id" json:"customerId"`            // Customer who requested the booking
	ResourceID    string    `bson:"resource_id" json:"resourceId"`            // Artist/professional being booked
	SalonID       string    `bson:"salon_id,omitempty" json:"salonId,omitempty"` // Salon the resource belongs to, stamped at creation
	ServiceID     string    `bson:"service_id,omitempty" json:"serviceId,omitempty"`
	Start         time.Time `bson:"start" json:"start"`                       // Slot start (inclusive)
	End           time.Time `bson:"end" json:"end"`                           // Slot end (exclusive)
	Status        string    `bson:"status" json:"status"`
	PaymentStatus string    `bson:"payment_status" json:"paymentStatus"`
	Price         float64   `bson:"price" json:"price"`                       // Resolved service price at booking time
	Note          string    `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// ActiveStatuses are the statuses that hold a slot on the calendar.
// Only these participate in conflict detection.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// Overlaps reports whether the reservation's half-open interval [Start, End)
// intersects [start, end). Touching boundaries do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && start.Before(r.End)
}

// IsActive reports whether the reservation currently holds its slot.
func (r *Reservation) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// statusGraph encodes the monotonic transition graph. There is no way out of
// cancelled or completed.
var statusGraph = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransitionStatus reports whether a reservation may move from one status
// to another along the allowed graph.
func CanTransitionStatus(from, to string) bool {
	for _, next := range statusGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// paymentGraph: pending -> paid|failed, paid -> refunded.
var paymentGraph = map[string][]string{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {PaymentRefunded},
}

// CanTransitionPayment reports whether the payment status may move from one
// value to another.
func CanTransitionPayment(from, to string) bool {
	for _, next := range paymentGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReservationPatch is the whitelisted set of mutable reservation fields.
// Nil pointers leave the field untouched.
type ReservationPatch struct {
	Status        *string
	PaymentStatus *string
	Note          *string
}
