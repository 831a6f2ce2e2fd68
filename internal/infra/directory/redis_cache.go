package directory

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
)

const planKeyPrefix = "plan:tier:"

// CachedDirectory guarda o plano no Redis na frente de outro diretório.
// Redis fora do ar nunca derruba a reserva: cai direto no diretório.
type CachedDirectory struct {
	client *redis.Client
	next   domain.SubscriptionDirectory
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedDirectory(
	client *redis.Client,
	next domain.SubscriptionDirectory,
	ttl time.Duration,
	log *zap.Logger,
) *CachedDirectory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedDirectory{
		client: client,
		next:   next,
		ttl:    ttl,
		log:    log.Named("plan_cache"),
	}
}

func (c *CachedDirectory) GetPlanTier(ctx context.Context, subscriberID string) (domain.PlanTier, error) {
	key := planKeyPrefix + subscriberID

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return domain.PlanTier(val), nil
	case err != redis.Nil:
		c.log.Warn("plan cache read failed", zap.String("subscriber_id", subscriberID), zap.Error(err))
	}

	tier, err := c.next.GetPlanTier(ctx, subscriberID)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, string(tier), c.ttl).Err(); err != nil {
		c.log.Warn("plan cache write failed", zap.String("subscriber_id", subscriberID), zap.Error(err))
	}
	return tier, nil
}

var _ domain.SubscriptionDirectory = (*CachedDirectory)(nil)
