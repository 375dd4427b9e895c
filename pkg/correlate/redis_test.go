package correlate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TryMightyAI/rampart/pkg/attack"
)

func newTestRedisRepo(t *testing.T) *RedisChainRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisChainRepositoryFromClient(client)
}

func redisTestChain(id string, start time.Time) *attack.Chain {
	chain := attack.NewChain(&attack.Event{
		ID:        "evt-" + id,
		Timestamp: start,
		Host:      "ws-01",
	})
	chain.ID = id
	return chain
}

func TestRedisRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepo(t)

	chain := redisTestChain("chain_rt", baseTime)
	chain.TechniquesUsed = []string{"T1059.001"}
	require.NoError(t, repo.Put(ctx, chain))

	got, err := repo.Get(ctx, "chain_rt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, chain.ID, got.ID)
	assert.Equal(t, chain.TechniquesUsed, got.TechniquesUsed)
	assert.Equal(t, []string{"ws-01"}, got.TargetHosts)
	assert.True(t, chain.StartTime.Equal(got.StartTime))
}

func TestRedisRepoMissingChainIsNil(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepo(t)

	got, err := repo.Get(ctx, "chain_missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisRepoListActiveOrdering(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepo(t)

	// Insert out of start-time order; listing must come back sorted.
	require.NoError(t, repo.Put(ctx, redisTestChain("chain_c", baseTime.Add(2*time.Hour))))
	require.NoError(t, repo.Put(ctx, redisTestChain("chain_a", baseTime)))
	require.NoError(t, repo.Put(ctx, redisTestChain("chain_b", baseTime.Add(time.Hour))))

	chains, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 3)
	assert.Equal(t, "chain_a", chains[0].ID)
	assert.Equal(t, "chain_b", chains[1].ID)
	assert.Equal(t, "chain_c", chains[2].ID)
}

func TestRedisRepoRemove(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepo(t)

	require.NoError(t, repo.Put(ctx, redisTestChain("chain_x", baseTime)))
	require.NoError(t, repo.Remove(ctx, "chain_x"))

	got, err := repo.Get(ctx, "chain_x")
	require.NoError(t, err)
	assert.Nil(t, got)

	chains, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, chains)
}

func TestCorrelatorOverRedisRepo(t *testing.T) {
	ctx := context.Background()
	repo := newTestRedisRepo(t)

	c := NewCorrelator(DefaultConfig(), repo, nil)
	c.now = func() time.Time { return baseTime.Add(time.Minute) }

	if _, err := c.Ingest(ctx, rawEvent(baseTime, map[string]any{"host": "ws-01"})); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Ingest(ctx, rawEvent(baseTime.Add(10*time.Minute), map[string]any{"host": "ws-01"})); err != nil {
		t.Fatal(err)
	}

	chains, err := c.ActiveChains(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Len(t, chains[0].Events, 2)
}
