package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/slot-scheduler/internal/domain/appointment"
)

var ErrLockTimeout = errors.New("subscriber lock wait timed out")

const keyPrefix = "lock:subscriber:"

// Só apaga a chave se ela ainda for nossa (o TTL pode ter expirado e outro
// processo ter pego o lock).
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// SubscriberLock serializa Reserve do mesmo subscriber entre instâncias,
// fechando a janela entre contar a cota e gravar o agendamento.
type SubscriberLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

func NewSubscriberLock(client *redis.Client, ttl time.Duration) *SubscriberLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &SubscriberLock{
		client: client,
		ttl:    ttl,
		wait:   ttl,
		retry:  50 * time.Millisecond,
	}
}

func (l *SubscriberLock) Lock(ctx context.Context, subscriberID string) (func(), error) {
	key := keyPrefix + subscriberID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire subscriber lock: %w", err)
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

var _ domain.SubscriberLocker = (*SubscriberLock)(nil)
