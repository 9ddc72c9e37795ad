package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"glowbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindActiveOverlapping queries the calendar for slot-holding reservations
// intersecting [start, end). Half-open semantics: a reservation ending exactly
// at start (or starting exactly at end) does not overlap.
func (repo *MongoReservationRepo) FindActiveOverlapping(ctx context.Context, resourceID string, start, end time.Time) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"resource_id": resourceID,
		"status":      bson.M{"$in": models.ActiveStatuses},
		"start":       bson.M{"$lt": end},
		"end":         bson.M{"$gt": start},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapStoreErr("error finding overlapping reservations", err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding overlapping reservations: %w", err)
	}
	return out, nil
}

// ListForOwner returns the bounded view for a dashboard role.
func (repo *MongoReservationRepo) ListForOwner(ctx context.Context, role, ownerID string) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var filter bson.M
	switch role {
	case RoleCustomer:
		filter = bson.M{"customer_id": ownerID}
	case RoleArtist:
		filter = bson.M{"resource_id": ownerID}
	case RoleSalon:
		filter = bson.M{"salon_id": ownerID}
	case RoleAll:
		filter = bson.M{}
	default:
		return nil, fmt.Errorf("unknown dashboard role %q", role)
	}

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapStoreErr("error listing reservations for owner", err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding reservations: %w", err)
	}
	return out, nil
}

// ListPendingPaymentOlderThan feeds the background reconciliation sweep.
func (repo *MongoReservationRepo) ListPendingPaymentOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":         models.StatusPending,
		"payment_status": models.PaymentPending,
		"created_at":     bson.M{"$lt": cutoff},
	}
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, wrapStoreErr("error listing stale pending reservations", err)
	}
	defer cursor.Close(ctx)

	var out []models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding stale pending reservations: %w", err)
	}
	return out, nil
}
