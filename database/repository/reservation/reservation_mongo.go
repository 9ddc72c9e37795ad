package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"glowbook/database"
	"glowbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoReservationRepo implements ReservationRepository using MongoDB.
type MongoReservationRepo struct {
	coll *mongo.Collection
}

// NewMongoReservationRepo constructs a new instance of MongoReservationRepo.
func NewMongoReservationRepo() *MongoReservationRepo {
	db := database.MongoClient.Database("glowbook")
	return &MongoReservationRepo{
		coll: db.Collection("reservations"),
	}
}

// wrapStoreErr tags retryable driver failures with ErrTransient.
func wrapStoreErr(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Insert persists a new reservation row.
func (repo *MongoReservationRepo) Insert(ctx context.Context, r *models.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, r); err != nil {
		return wrapStoreErr("error creating reservation", err)
	}
	return nil
}

// GetByID retrieves a reservation by its ID.
func (repo *MongoReservationRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var r models.Reservation
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("error fetching reservation %s", id), err)
	}
	return &r, nil
}

// ApplyTransition updates the reservation guarded by its current status.
// MatchedCount == 0 means the reservation is missing or already moved on,
// which callers treat as "no change" rather than an error.
func (repo *MongoReservationRepo) ApplyTransition(ctx context.Context, id string, fromStatuses []string, patch models.ReservationPatch) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     id,
		"status": bson.M{"$in": fromStatuses},
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.PaymentStatus != nil {
		set["payment_status"] = *patch.PaymentStatus
	}
	if patch.Note != nil {
		set["note"] = *patch.Note
	}

	res, err := repo.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, wrapStoreErr(fmt.Sprintf("error updating reservation %s", id), err)
	}
	return res.MatchedCount > 0, nil
}
