package models

// CreateBookingInput carries a reservation request from the UI.
// Date is "YYYY-MM-DD" and Time is "HH:MM" in the resource's timezone.
type CreateBookingInput struct {
	CustomerID string `json:"customerId" binding:"required"`
	ResourceID string `json:"resourceId" binding:"required"`
	ServiceID  string `json:"serviceId" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Time       string `json:"time" binding:"required"`
	Note       string `json:"note,omitempty"`
}

// BookingUpdate is the whitelisted update payload for an existing reservation.
type BookingUpdate struct {
	Status        *string `json:"status,omitempty"`
	PaymentStatus *string `json:"paymentStatus,omitempty"`
	Note          *string `json:"note,omitempty"`
}

// BookingResult is returned by the reservation engine. A non-empty Conflicts
// list is a reported condition, not a failure: the caller offers alternate
// slots and no state was mutated.
type BookingResult struct {
	Booking       *Reservation   `json:"booking,omitempty"`
	PaymentIntent *PaymentIntent `json:"paymentIntent,omitempty"`
	Conflicts     []Reservation  `json:"conflicts,omitempty"`
}

// BookingResponse is the HTTP envelope for booking operations.
type BookingResponse struct {
	Success       bool           `json:"success"`
	Booking       *Reservation   `json:"booking,omitempty"`
	PaymentIntent *PaymentIntent `json:"paymentIntent,omitempty"`
	Conflicts     []Reservation  `json:"conflicts,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// ReservationDetail enriches a reservation with display names for the
// customer and resource, resolved via the profile service.
type ReservationDetail struct {
	Reservation
	CustomerName string `json:"customerName,omitempty"`
	ResourceName string `json:"resourceName,omitempty"`
}
