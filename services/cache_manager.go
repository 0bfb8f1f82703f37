package services

import (
	"context"
	"encoding/json"
	"time"

	"checkout-service/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	VariantCachePrefix = "variant:detail:"
	DefaultCacheTTL    = 5 * time.Minute
)

// CacheManager is a read-through Redis cache for variant lookups. It only
// serves the advisory checkout-time check; the conditional decrement at
// reconciliation never consults it, so staleness cannot oversell. A nil
// *CacheManager is a valid no-op.
type CacheManager struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCacheManager(rdb *redis.Client) *CacheManager {
	return &CacheManager{redis: rdb, ttl: DefaultCacheTTL}
}

// GetVariants returns the cached variants found for the given skus.
func (cm *CacheManager) GetVariants(ctx context.Context, skus []string) map[string]models.Variant {
	found := make(map[string]models.Variant)
	if cm == nil {
		return found
	}

	keys := make([]string, 0, len(skus))
	for _, sku := range skus {
		keys = append(keys, VariantCachePrefix+sku)
	}

	vals, err := cm.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return found
	}
	for _, val := range vals {
		s, ok := val.(string)
		if !ok {
			continue
		}
		var v models.Variant
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			zap.L().Warn("Failed to unmarshal cached variant", zap.Error(err))
			continue
		}
		found[v.SKU] = v
	}
	return found
}

// SetVariantsAsync caches variants in the background.
func (cm *CacheManager) SetVariantsAsync(variants []models.Variant) {
	if cm == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, v := range variants {
			data, err := json.Marshal(v)
			if err != nil {
				zap.L().Warn("Failed to marshal variant for cache", zap.Error(err), zap.String("sku", v.SKU))
				continue
			}
			if err := cm.redis.Set(bgCtx, VariantCachePrefix+v.SKU, data, cm.ttl).Err(); err != nil {
				zap.L().Warn("Failed to cache variant", zap.Error(err), zap.String("sku", v.SKU))
			}
		}
	}()
}

// InvalidateAsync drops cached variants after their stock changed.
func (cm *CacheManager) InvalidateAsync(skus []string) {
	if cm == nil || len(skus) == 0 {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		keys := make([]string, 0, len(skus))
		for _, sku := range skus {
			keys = append(keys, VariantCachePrefix+sku)
		}
		if err := cm.redis.Del(bgCtx, keys...).Err(); err != nil {
			zap.L().Warn("Failed to invalidate variant cache", zap.Error(err))
		}
	}()
}
