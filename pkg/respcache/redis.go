package respcache

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"ai-airquality-be/pkg/classify"
	"ai-airquality-be/pkg/fallback"
)

const redisKeyPrefix = "aq:response:"

// RedisStore is the shared cache backend used when multiple instances
// serve the same traffic. Best-effort: Redis being down degrades to cache
// misses, never to request failures.
type RedisStore struct {
	client *redis.Client
	policy Policy
	logger *log.Logger
}

func NewRedisStore(client *redis.Client, policy Policy, logger *log.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		policy: policy,
		logger: logger,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*fallback.Result, bool) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.logger.Printf("[CACHE] redis get failed: %v", err)
		return nil, false
	}

	var result fallback.Result
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Printf("[CACHE] corrupt redis entry dropped: %v", err)
		s.client.Del(ctx, redisKeyPrefix+key)
		return nil, false
	}
	return &result, true
}

func (s *RedisStore) Put(ctx context.Context, key string, intent classify.Intent, result *fallback.Result) {
	ttl, cacheable := s.policy.TTLFor(intent)
	if !cacheable {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Printf("[CACHE] marshal failed: %v", err)
		return
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		s.logger.Printf("[CACHE] redis set failed: %v", err)
	}
}
