package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker hands out expiring, owner-tagged locks. Unlock only releases the
// key while it still holds the token returned by the matching Lock.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

const (
	GenerateKey = "generate"
	staffingKey = "staffing:%s"
)

// StaffingKey serialises staffing edits on one session.
func StaffingKey(sessionID string) string {
	return fmt.Sprintf(staffingKey, sessionID)
}

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(redisAddr string) (*RedisLock, error) {
	const op = "lock.NewRedisLock"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewRedisLockWithClient(client), nil
}

func NewRedisLockWithClient(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func redisKey(key string) string {
	return "lock:" + key
}

func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	const op = "lock.RedisLock.Lock"

	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, redisKey(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// Unlock is a no-op when the key expired and was taken by someone else.
func (r *RedisLock) Unlock(ctx context.Context, key, token string) error {
	const op = "lock.RedisLock.Unlock"

	if err := releaseScript.Run(ctx, r.client, []string{redisKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}
