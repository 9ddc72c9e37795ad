package models

// PaymentRequest describes the charge to open for a reservation.
type PaymentRequest struct {
	ReservationID string
	CustomerID    string
	Amount        float64
	Currency      string
	Description   string
}

// PaymentIntent is the external token representing an in-progress charge.
// The charge is confirmed asynchronously via the payment webhook.
type PaymentIntent struct {
	ID           string  `json:"id"`
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Status       string  `json:"status"`
}
