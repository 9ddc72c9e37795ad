package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"glowbook/database"
	"glowbook/models"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const cacheTTL = 5 * time.Minute

// MongoProfileService implements ProfileService backed by the profiles
// collection, with a Redis read-through cache.
type MongoProfileService struct {
	coll  *mongo.Collection
	cache *redis.Client
}

// NewMongoProfileService constructs a new instance of MongoProfileService.
func NewMongoProfileService(cache *redis.Client) ProfileService {
	db := database.MongoClient.Database("glowbook")
	return &MongoProfileService{
		coll:  db.Collection("profiles"),
		cache: cache,
	}
}

func cacheKey(id string) string {
	return "profile:" + id
}

// GetProfile resolves an identity id, serving from cache when possible.
func (s *MongoProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey(id)).Result(); err == nil {
			var p models.Profile
			if err := json.Unmarshal([]byte(data), &p); err == nil {
				return &p, nil
			}
		}
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Profile
	err := s.coll.FindOne(ctxTimeout, bson.M{"id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("profile %s: %w", id, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching profile %s: %w", id, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			s.cache.Set(ctx, cacheKey(id), data, cacheTTL)
		}
	}
	return &p, nil
}
