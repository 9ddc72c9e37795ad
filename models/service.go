package models

// Service is a bookable catalog entry. Duration determines the reservation
// interval length; Price feeds the payment intent amount.
type Service struct {
	ID          string  `bson:"id" json:"id"`
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	DurationMin int     `bson:"duration_min" json:"duration"` // Minutes
}
