// Package lock 基于 Redis 的身份级互斥锁
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	keyPrefix    = "lock:"
	pollInterval = 50 * time.Millisecond
)

var ErrNotAcquired = errors.New("lock not acquired")

// 仅删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func NewLocker(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Locker {
	return &Locker{rdb: rdb, ttl: ttl, log: log.With().Str("component", "Locker").Logger()}
}

// Acquire 阻塞直到获得锁或 ctx 结束，返回释放函数
func (l *Locker) Acquire(ctx context.Context, name string) (func(), error) {
	key := keyPrefix + name
	token := uuid.NewString()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Join(ErrNotAcquired, ctxErr)
			}
			return nil, err
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) release(key, token string) {
	deleted, err := releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Int64()
	if err != nil {
		l.log.Error().Err(err).Str("key", key).Msg("lock release failed")
		return
	}
	if deleted == 0 {
		// 锁已过期，可能已被其他请求持有
		l.log.Warn().Str("key", key).Dur("ttl", l.ttl).Msg("lock expired before release")
	}
}
