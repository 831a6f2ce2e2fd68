package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/slot-scheduler/internal/testutil"
)

type countingDirectory struct {
	tier  domain.PlanTier
	err   error
	calls int
}

func (c *countingDirectory) GetPlanTier(context.Context, string) (domain.PlanTier, error) {
	c.calls++
	return c.tier, c.err
}

func TestGormDirectory(t *testing.T) {
	gdb := testutil.NewDB(t)
	testutil.SeedSubscription(t, gdb, "sub-premium", string(domain.PlanPremium))
	dir := NewGormDirectory(gdb)

	tier, err := dir.GetPlanTier(context.Background(), "sub-premium")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, tier)

	tier, err = dir.GetPlanTier(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, tier)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedDirectoryHitsRedisAfterFirstLookup(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingDirectory{tier: domain.PlanPremium}
	dir := NewCachedDirectory(client, next, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tier, err := dir.GetPlanTier(ctx, "sub-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PlanPremium, tier)
	}

	assert.Equal(t, 1, next.calls)
	got, err := mr.Get("plan:tier:sub-1")
	require.NoError(t, err)
	assert.Equal(t, "premium", got)

	mr.FastForward(2 * time.Minute)
	_, err = dir.GetPlanTier(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedDirectoryFallsBackWhenRedisDown(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingDirectory{tier: domain.PlanPremium}
	dir := NewCachedDirectory(client, next, time.Minute, zap.NewNop())
	mr.Close()

	tier, err := dir.GetPlanTier(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, tier)
}

func TestCachedDirectoryPropagatesDirectoryError(t *testing.T) {
	_, client := newRedis(t)
	next := &countingDirectory{err: errors.New("directory down")}
	dir := NewCachedDirectory(client, next, time.Minute, zap.NewNop())

	_, err := dir.GetPlanTier(context.Background(), "sub-1")
	assert.Error(t, err)
}

// Um downgrade só aparece depois do TTL; o default mantém essa janela curta.
func TestCachedDirectoryDowngradeVisibleAfterDefaultTTL(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingDirectory{tier: domain.PlanPremium}
	dir := NewCachedDirectory(client, next, 0, zap.NewNop())
	ctx := context.Background()

	_, err := dir.GetPlanTier(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("plan:tier:sub-1"))

	next.tier = domain.PlanFree

	tier, err := dir.GetPlanTier(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, tier)

	mr.FastForward(time.Minute + time.Second)

	tier, err = dir.GetPlanTier(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, tier)
}
