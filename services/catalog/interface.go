package catalog

import (
	"context"
	"errors"

	"glowbook/models"
)

// ErrServiceNotFound is returned when a service id is not in the catalog.
var ErrServiceNotFound = errors.New("service not found")

// ServiceCatalog resolves a service id to its bookable definition
// (name, price, duration).
type ServiceCatalog interface {
	GetService(ctx context.Context, id string) (*models.Service, error)
}
