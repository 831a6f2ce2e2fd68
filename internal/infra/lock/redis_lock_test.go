package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLock(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *SubscriberLock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewSubscriberLock(client, ttl)
}

func TestLockIsExclusivePerSubscriber(t *testing.T) {
	_, l := newLock(t, 2*time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "sub-1")
			if !assert.NoError(t, err) {
				return
			}

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLockDifferentSubscribersDoNotBlock(t *testing.T) {
	_, l := newLock(t, time.Second)
	ctx := context.Background()

	u1, err := l.Lock(ctx, "sub-1")
	require.NoError(t, err)
	defer u1()

	u2, err := l.Lock(ctx, "sub-2")
	require.NoError(t, err)
	u2()
}

func TestLockTimesOut(t *testing.T) {
	_, l := newLock(t, time.Second)
	l.wait = 100 * time.Millisecond
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "sub-1")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(ctx, "sub-1")
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestUnlockKeepsForeignToken(t *testing.T) {
	mr, l := newLock(t, time.Second)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "sub-1")
	require.NoError(t, err)

	// TTL expired and another holder took the key.
	require.NoError(t, mr.Set(keyPrefix+"sub-1", "someone-else"))
	unlock()

	got, err := mr.Get(keyPrefix + "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
