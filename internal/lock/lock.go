package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"coach-schedule/pkg/response"

	"github.com/google/uuid"
)

// Run holds key while fn executes. A key already held by someone else
// yields response.ErrLocked without calling fn.
func Run(ctx context.Context, l Locker, key string, ttl time.Duration, fn func() error) (err error) {
	const op = "lock.Run"

	token, ok, err := l.Lock(ctx, key, ttl)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %s: %w", op, key, response.ErrLocked)
	}

	defer func() {
		// the caller's context may already be cancelled
		if uerr := l.Unlock(context.WithoutCancel(ctx), key, token); uerr != nil {
			err = errors.Join(err, uerr)
		}
	}()

	return fn()
}

// MemoryLock is an in-process Locker for single-instance deployments.
type MemoryLock struct {
	mu   sync.Mutex
	held map[string]holder
	now  func() time.Time
}

type holder struct {
	token string
	until time.Time
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: make(map[string]holder), now: time.Now}
}

func (m *MemoryLock) Lock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.held[key]; ok && m.now().Before(h.until) {
		return "", false, nil
	}

	token := uuid.NewString()
	m.held[key] = holder{token: token, until: m.now().Add(ttl)}

	return token, true, nil
}

func (m *MemoryLock) Unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.held[key]; ok && h.token == token {
		delete(m.held, key)
	}

	return nil
}

func (m *MemoryLock) Close() error {
	return nil
}
