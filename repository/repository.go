package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/repository/redis_repository"
)

// ReliabilityRepository caches per-domain reliability evaluations between runs.
type ReliabilityRepository interface {
	GetScore(ctx context.Context, domain string) (float64, string, bool)
	SetScore(ctx context.Context, domain string, score float64, reasoning string) error
}

type RepoType string

const (
	RepoTypeRedis RepoType = "redis"
)

// NewReliabilityRepository opens the backing store and returns the cache
// along with the raw client, which the schedule ticker reuses for locking.
func NewReliabilityRepository(ctx context.Context, t RepoType, cfg config.RedisConfig) (ReliabilityRepository, *redis.Client, error) {
	switch t {
	case RepoTypeRedis:
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		c, err := redis_repository.Conn(ctx, cfg.Host, cfg.Port, cfg.Password, cfg.DB, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return redis_repository.NewRedisReliabilityRepository(c), c, nil
	}
	return nil, nil, fmt.Errorf("invalid repository type: %s", t)
}
