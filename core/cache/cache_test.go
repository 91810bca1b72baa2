package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheLockIsExclusive(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	release, err := c.Lock(ctx, "calendar:lock:meeting:1", time.Minute, 0)
	require.NoError(t, err)

	_, err = c.Lock(ctx, "calendar:lock:meeting:1", time.Minute, 0)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// other keys are independent
	releaseOther, err := c.Lock(ctx, "calendar:lock:meeting:2", time.Minute, 0)
	require.NoError(t, err)
	releaseOther()

	release()
	release()

	again, err := c.Lock(ctx, "calendar:lock:meeting:1", time.Minute, 0)
	require.NoError(t, err)
	again()
}

func TestMemoryCacheLockExpires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	stale, err := c.Lock(ctx, "k", 10*time.Millisecond, 0)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	fresh, err := c.Lock(ctx, "k", time.Minute, 0)
	require.NoError(t, err)

	// the expired holder must not release the new holder's lock
	stale()
	_, err = c.Lock(ctx, "k", time.Minute, 0)
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	fresh()
}

func TestMemoryCacheLockSerializesHolders(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := c.Lock(ctx, "shared", time.Minute, 5*time.Second)
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestMemoryCacheLockHonoursContext(t *testing.T) {
	c := NewMemoryCache()
	release, err := c.Lock(context.Background(), "k", time.Minute, 0)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Lock(ctx, "k", time.Minute, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
