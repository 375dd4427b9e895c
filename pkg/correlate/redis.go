package correlate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/TryMightyAI/rampart/pkg/attack"
)

const (
	chainKeyPrefix = "rampart:chains:"
	chainIndexKey  = "rampart:chains:index"
)

// RedisChainRepository persists active chains in Redis so multiple
// copilot instances can share one registry. Chains are stored as JSON
// values with a sorted-set index scored by chain start time, which
// keeps ListActive in creation order across nodes.
type RedisChainRepository struct {
	client *redis.Client
}

// NewRedisChainRepository connects to the Redis instance at redisURL
// and verifies the connection with a ping.
func NewRedisChainRepository(ctx context.Context, redisURL string) (*RedisChainRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisChainRepository{client: client}, nil
}

// NewRedisChainRepositoryFromClient wraps an existing client (used by
// tests against miniredis).
func NewRedisChainRepositoryFromClient(client *redis.Client) *RedisChainRepository {
	return &RedisChainRepository{client: client}
}

// Get retrieves a chain by id. Not found is not an error.
func (r *RedisChainRepository) Get(ctx context.Context, id string) (*attack.Chain, error) {
	data, err := r.client.Get(ctx, chainKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chain %s: %w", id, err)
	}
	var chain attack.Chain
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("decode chain %s: %w", id, err)
	}
	return &chain, nil
}

// Put stores or updates a chain and indexes it by start time.
func (r *RedisChainRepository) Put(ctx context.Context, chain *attack.Chain) error {
	data, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("encode chain %s: %w", chain.ID, err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, chainKeyPrefix+chain.ID, data, 0)
	pipe.ZAdd(ctx, chainIndexKey, redis.Z{
		Score:  float64(chain.StartTime.UnixNano()),
		Member: chain.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store chain %s: %w", chain.ID, err)
	}
	return nil
}

// ListActive returns the open chains ordered by start time. Index
// entries whose value key has vanished are skipped.
func (r *RedisChainRepository) ListActive(ctx context.Context) ([]*attack.Chain, error) {
	ids, err := r.client.ZRange(ctx, chainIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	chains := make([]*attack.Chain, 0, len(ids))
	for _, id := range ids {
		chain, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if chain != nil {
			chains = append(chains, chain)
		}
	}
	return chains, nil
}

// Remove deletes a chain value and its index entry.
func (r *RedisChainRepository) Remove(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, chainKeyPrefix+id)
	pipe.ZRem(ctx, chainIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove chain %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisChainRepository) Close() error {
	return r.client.Close()
}

var _ ChainRepository = (*RedisChainRepository)(nil)
