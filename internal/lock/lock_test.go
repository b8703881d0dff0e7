package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"coach-schedule/pkg/response"

	"github.com/stretchr/testify/require"
)

func TestMemoryLock_Exclusive(t *testing.T) {
	l := NewMemoryLock()
	ctx := context.Background()

	token, ok, err := l.Lock(ctx, GenerateKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = l.Lock(ctx, GenerateKey, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Unlock(ctx, GenerateKey, token))

	_, ok, err = l.Lock(ctx, GenerateKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryLock_Expires(t *testing.T) {
	l := NewMemoryLock()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	_, ok, _ := l.Lock(context.Background(), "k", time.Second)
	require.True(t, ok)

	l.now = func() time.Time { return base.Add(2 * time.Second) }
	_, ok, _ = l.Lock(context.Background(), "k", time.Second)
	require.True(t, ok)
}

func TestMemoryLock_StaleUnlockKeepsNewHolder(t *testing.T) {
	l := NewMemoryLock()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	first, ok, _ := l.Lock(ctx, GenerateKey, time.Minute)
	require.True(t, ok)

	// first holder overruns its ttl and a second caller takes over
	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	second, ok, _ := l.Lock(ctx, GenerateKey, time.Minute)
	require.True(t, ok)

	require.NoError(t, l.Unlock(ctx, GenerateKey, first))

	_, ok, _ = l.Lock(ctx, GenerateKey, time.Minute)
	require.False(t, ok, "late unlock released the new holder")

	require.NoError(t, l.Unlock(ctx, GenerateKey, second))
	_, ok, _ = l.Lock(ctx, GenerateKey, time.Minute)
	require.True(t, ok)
}

func TestRun(t *testing.T) {
	l := NewMemoryLock()
	ctx := context.Background()
	key := StaffingKey("s1")

	err := Run(ctx, l, key, time.Minute, func() error {
		inner := Run(ctx, l, key, time.Minute, func() error {
			t.Fatal("nested run must not execute")
			return nil
		})
		require.True(t, errors.Is(inner, response.ErrLocked))
		return nil
	})
	require.NoError(t, err)

	// released after the first run
	called := false
	require.NoError(t, Run(ctx, l, key, time.Minute, func() error {
		called = true
		return nil
	}))
	require.True(t, called)
}

func TestRun_PropagatesError(t *testing.T) {
	boom := errors.New("boom")

	err := Run(context.Background(), NewMemoryLock(), "k", time.Minute, func() error { return boom })
	require.ErrorIs(t, err, boom)
}
