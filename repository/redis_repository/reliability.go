package redis_repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	reliabilityKeyPrefix = "reliability:"
	reliabilityTTL       = 7 * 24 * time.Hour
)

type reliabilityRecord struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// redisReliabilityRepository caches per-domain reliability scores in Redis so
// repeated runs do not re-evaluate the same domain.
type redisReliabilityRepository struct {
	client *redis.Client
}

func NewRedisReliabilityRepository(client *redis.Client) *redisReliabilityRepository {
	return &redisReliabilityRepository{client: client}
}

func (r *redisReliabilityRepository) GetScore(ctx context.Context, domain string) (float64, string, bool) {
	val, err := r.client.Get(ctx, reliabilityKeyPrefix+domain).Result()
	if err != nil {
		return 0, "", false
	}

	var rec reliabilityRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return 0, "", false
	}
	return rec.Score, rec.Reasoning, true
}

func (r *redisReliabilityRepository) SetScore(ctx context.Context, domain string, score float64, reasoning string) error {
	data, err := json.Marshal(reliabilityRecord{Score: score, Reasoning: reasoning})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, reliabilityKeyPrefix+domain, data, reliabilityTTL).Err()
}

// Locks used by the schedule ticker so only one instance fires a schedule.

const lockKeyPrefix = "lock:schedule:"

// AcquireLock takes a short-lived exclusive lock for the given schedule id.
func AcquireLock(ctx context.Context, client *redis.Client, id string, ttl time.Duration) (bool, error) {
	ok, err := client.SetNX(ctx, lockKeyPrefix+id, "1", ttl).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return ok, nil
}

// ReleaseLock drops the lock early, before its TTL expires.
func ReleaseLock(ctx context.Context, client *redis.Client, id string) error {
	return client.Del(ctx, lockKeyPrefix+id).Err()
}
