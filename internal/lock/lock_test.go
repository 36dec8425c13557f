package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := k.Lock(ctx, "goal:1")
			if !assert.NoError(t, err) {
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, k.locks, "entries are dropped once unused")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	releaseA, err := k.Lock(ctx, "a")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := k.Lock(ctx, "b")
		if err == nil {
			releaseB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	k := NewKeyedMutex()
	release, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.True(t, errors.Is(err, ErrNotAcquired))

	release()
	release() // idempotent

	again, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}

func TestRedisLocker(t *testing.T) {
	mem := redis.NewMockClient()
	locker := NewRedisLocker(mem, time.Second, nil)
	locker.retry = time.Millisecond
	key := redis.LockKey("level", "alice")

	release, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	_, held := mem.Value(key)
	assert.True(t, held)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, ErrNotAcquired)

	// a foreign holder's token is not released by us
	mem.Put(key, "someone-else")
	release()
	v, _ := mem.Value(key)
	assert.Equal(t, "someone-else", v)

	require.NoError(t, mem.Del(context.Background(), key))
	release2, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	release2()
	_, held = mem.Value(key)
	assert.False(t, held)
}
