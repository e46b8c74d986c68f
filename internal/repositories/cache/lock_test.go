package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "segment:1")
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, locker.locks)
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locker.Lock(context.Background(), "other")
	require.NoError(t, err)
	other()
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "wallet:id:42", walletKey(42))
	assert.Equal(t, "reward:name:coffee", GenerateKey("reward", "name", "coffee"))
}

func TestWalletKeyPatternSparesLocks(t *testing.T) {
	for _, key := range []string{walletKey(1), walletKey(987654)} {
		ok, err := path.Match(walletKeyPattern, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
	for _, key := range []string{"lock:segment:1", "lock:" + walletKey(1), "reward:name:coffee"} {
		ok, err := path.Match(walletKeyPattern, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}
