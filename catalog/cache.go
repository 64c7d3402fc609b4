package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

var _ Repository = (*cachedRepository)(nil)

// DefaultProductTTL bounds how long a hydrated product record is served from
// Redis before the catalog is consulted again.
const DefaultProductTTL = 30 * time.Minute

// cachedRepository keeps product records in Redis so repeated refreshes do
// not re-query the catalog for every item. Cache failures fall through to the
// underlying repository; they never fail a lookup.
type cachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCached(inner Repository, client *redis.Client, ttl time.Duration, logger *zap.Logger) Repository {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &cachedRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *cachedRepository) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	cacheKey := fmt.Sprintf("product:%s", id)

	// 嘗試從快取中獲取
	cached, err := r.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		product := models.NewProduct()
		if err = json.Unmarshal(cached, product); err == nil {
			return product, nil
		}
		r.logger.Warn("Failed to decode cached product", zap.String("product_id", id), zap.Error(err))
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("Failed to get product from cache", zap.String("product_id", id), zap.Error(err))
	}

	product, err := r.inner.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 更新快取
	if encoded, err := json.Marshal(product); err == nil {
		if err = r.client.Set(ctx, cacheKey, encoded, r.ttl).Err(); err != nil {
			r.logger.Warn("Failed to cache product", zap.String("product_id", id), zap.Error(err))
		}
	}

	return product, nil
}

func (r *cachedRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return r.inner.ListProducts(ctx)
}
