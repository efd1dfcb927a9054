// Package cache は商品詳細の読み取りキャッシュ。
// 書き込み時は対象商品のキーだけを消す。
// 在庫数は保存しない（注文のたびに変わるのでDBから読む）。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const productKeyPrefix = "storefront:product:"

func productKey(id int64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

// Redisに置く形。Stockを持たない
type catalogEntry struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func encodeProduct(p model.Product) ([]byte, error) {
	return json.Marshal(catalogEntry{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		IsActive:    p.IsActive,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
}

func decodeProduct(data []byte) (model.Product, error) {
	var e catalogEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return model.Product{}, err
	}
	if e.ID <= 0 {
		return model.Product{}, errors.New("cache entry without id")
	}
	return model.Product{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Price:       e.Price,
		IsActive:    e.IsActive,
		Category:    e.Category,
		ImageURL:    e.ImageURL,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}, nil
}

type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(redisURL string, ttl time.Duration) (*RedisProductCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisProductCache{client: client, ttl: ttl}, nil
}

func (c *RedisProductCache) Close() error {
	return c.client.Close()
}

func (c *RedisProductCache) Get(ctx context.Context, productID int64) (model.Product, bool, error) {
	data, err := c.client.Get(ctx, productKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, err
	}

	p, err := decodeProduct(data)
	if err != nil {
		// 壊れたエントリはミス扱い
		_ = c.client.Del(ctx, productKey(productID)).Err()
		return model.Product{}, false, nil
	}
	return p, true, nil
}

func (c *RedisProductCache) Set(ctx context.Context, p model.Product) error {
	data, err := encodeProduct(p)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}
	return c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err()
}

func (c *RedisProductCache) Invalidate(ctx context.Context, productIDs ...int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

// REDIS_URL未設定時
type NoopProductCache struct{}

func (NoopProductCache) Get(context.Context, int64) (model.Product, bool, error) {
	return model.Product{}, false, nil
}
func (NoopProductCache) Set(context.Context, model.Product) error   { return nil }
func (NoopProductCache) Invalidate(context.Context, ...int64) error { return nil }
