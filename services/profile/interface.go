package profile

import (
	"context"
	"errors"

	"glowbook/models"
)

// ErrProfileNotFound is returned when an identity id is unknown.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileService is the identity/profile lookup collaborator used to
// validate resources and enrich reservation records for display.
type ProfileService interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}
