package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockerExclusive(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := NewRedisLocker(rdb, time.Minute)
	b := NewRedisLocker(rdb, time.Minute)
	ctx := context.Background()

	release, err := a.Acquire(ctx, "replenishment:live")
	require.NoError(t, err)

	_, err = b.Acquire(ctx, "replenishment:live")
	assert.ErrorIs(t, err, ErrBusy)

	release()

	release, err = b.Acquire(ctx, "replenishment:live")
	require.NoError(t, err)
	release()
}

func TestRedisLockerExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	l := NewRedisLocker(rdb, time.Second)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)
	release()
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, ErrBusy)

	other, err := l.Acquire(ctx, "other")
	require.NoError(t, err)
	other()

	release()
	release, err = l.Acquire(ctx, "k")
	require.NoError(t, err)
	release()
}
