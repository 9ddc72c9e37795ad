package catalog

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

const cacheTTL = 10 * time.Minute

// MongoServiceCatalog implements ServiceCatalog backed by the services
// collection, with a Redis read-through cache.
type MongoServiceCatalog struct {
	coll  *mongo.Collection
	cache *redis.Client
}

// NewMongoServiceCatalog constructs a new instance of MongoServiceCatalog.
func NewMongoServiceCatalog(cache *redis.Client) ServiceCatalog {
	db := database.MongoClient.Database("glowbook")
	return &MongoServiceCatalog{
		coll:  db.Collection("services"),
		cache: cache,
	}
}

func cacheKey(id string) string {
	return "catalog:service:" + id
}

// GetService resolves a service id, serving from cache when possible.
func (c *MongoServiceCatalog) GetService(ctx context.Context, id string) (*models.Service, error) {
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey(id)).Result(); err == nil {
			var svc models.Service
			if err := json.Unmarshal([]byte(data), &svc); err == nil {
				return &svc, nil
			}
		}
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var svc models.Service
	err := c.coll.FindOne(ctxTimeout, bson.M{"id": id}).Decode(&svc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("service %s: %w", id, ErrServiceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching service %s: %w", id, err)
	}

	if c.cache != nil {
		if data, err := json.Marshal(svc); err == nil {
			c.cache.Set(ctx, cacheKey(id), data, cacheTTL)
		}
	}
	return &svc, nil
}
