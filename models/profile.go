package models

// Profile is the display-level identity record for a customer or resource.
type Profile struct {
	ID          string `bson:"id" json:"id"`
	DisplayName string `bson:"display_name" json:"displayName"`
	AvatarURL   string `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Email       string `bson:"email" json:"email"`
	SalonID     string `bson:"salon_id,omitempty" json:"salonId,omitempty"` // Set for resources employed by a salon
}
