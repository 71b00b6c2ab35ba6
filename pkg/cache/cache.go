package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-api/internal/core/errx"
	"storefront-api/internal/models"
)

const keyPrefix = "query:"

var ErrUnavailable = errors.New("redis client not available")

// RedisCache stores catalog query responses. A nil *RedisCache is valid and
// behaves as an always-missing cache.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client, ttl: ttl}
}

// GetQueryResults returns (nil, nil) on a cache miss.
func (r *RedisCache) GetQueryResults(ctx context.Context, key string) (*models.QueryResponse, error) {
	if !r.IsAvailable() {
		return nil, ErrUnavailable
	}

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapRedis(err)
	}

	var response models.QueryResponse
	if err := json.Unmarshal(val, &response); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	return &response, nil
}

func (r *RedisCache) SetQueryResults(ctx context.Context, key string, response *models.QueryResponse) error {
	if !r.IsAvailable() {
		return ErrUnavailable
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	return errx.WrapRedis(r.client.Set(ctx, key, data, r.ttl).Err())
}

// GenerateQueryKey builds a key that is identical for equivalent params:
// set-valued filters are lowercased and sorted first.
func (r *RedisCache) GenerateQueryKey(params models.QueryParams) string {
	f := params.Filters
	key := fmt.Sprintf("%ss%s:c%s:p%d:l%d",
		keyPrefix, strings.ToLower(params.Search), strings.ToLower(params.Category), params.Page, params.Limit)

	if params.SaleOnly {
		key += ":sale"
	}
	if cats := normalizedSet(f.Categories); cats != "" {
		key += ":cats" + cats
	}
	if brands := normalizedSet(f.Brands); brands != "" {
		key += ":brands" + brands
	}
	key += ":price" + formatBound(f.PriceRange[0]) + "-" + formatBound(f.PriceRange[1])
	if f.MinRating > 0 {
		key += ":rating" + formatBound(f.MinRating)
	}
	if f.InStockOnly {
		key += ":stock"
	}
	if f.OnSaleOnly {
		key += ":onsale"
	}
	key += fmt.Sprintf(":sort%s:%s", f.SortBy, f.SortOrder)
	return key
}

// formatBound keeps every significant digit so distinct bounds never share a key.
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func normalizedSet(values []string) string {
	if len(values) == 0 {
		return ""
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func (r *RedisCache) Close() error {
	if !r.IsAvailable() {
		return nil
	}
	return r.client.Close()
}

func (r *RedisCache) IsAvailable() bool {
	return r != nil && r.client != nil
}

func (r *RedisCache) GetStats(ctx context.Context) map[string]interface{} {
	if !r.IsAvailable() {
		return map[string]interface{}{
			"status": "unavailable",
		}
	}

	return map[string]interface{}{
		"status":      "connected",
		"ttl_seconds": int(r.ttl.Seconds()),
		"cached_keys": len(r.GetAllKeys(ctx)),
	}
}

func (r *RedisCache) GetAllKeys(ctx context.Context) []string {
	if !r.IsAvailable() {
		return []string{}
	}
	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() != nil || keys == nil {
		return []string{}
	}
	return keys
}

// FlushCache removes cached query results only; session slots that share the
// database are left alone.
func (r *RedisCache) FlushCache(ctx context.Context) (int, error) {
	if !r.IsAvailable() {
		return 0, ErrUnavailable
	}
	keys := r.GetAllKeys(ctx)
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

func (r *RedisCache) GetKeyTTL(ctx context.Context, key string) time.Duration {
	if !r.IsAvailable() {
		return 0
	}
	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0
	}
	return ttl
}
