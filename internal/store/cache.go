package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pavelanni/classinsight/internal/model"
)

// DefaultCacheTTL bounds how long a run result stays cached.
const DefaultCacheTTL = 24 * time.Hour

// RunCache caches assembled run results, overrides included.
// Get returns nil, nil on a miss.
type RunCache interface {
	Get(ctx context.Context, runID string) (*model.AnalysisResult, error)
	Set(ctx context.Context, run *model.AnalysisResult) error
	Delete(ctx context.Context, runID string) error
}

type redisRunCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRunCache creates a RunCache backed by Redis.
func NewRedisRunCache(client *redis.Client, ttl time.Duration) RunCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &redisRunCache{client: client, ttl: ttl}
}

func (c *redisRunCache) runKey(runID string) string {
	return fmt.Sprintf("classinsight:run:%s", runID)
}

func (c *redisRunCache) Get(ctx context.Context, runID string) (*model.AnalysisResult, error) {
	data, err := c.client.Get(ctx, c.runKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var run model.AnalysisResult
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *redisRunCache) Set(ctx context.Context, run *model.AnalysisResult) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.runKey(run.RunID), data, c.ttl).Err()
}

func (c *redisRunCache) Delete(ctx context.Context, runID string) error {
	return c.client.Del(ctx, c.runKey(runID)).Err()
}
