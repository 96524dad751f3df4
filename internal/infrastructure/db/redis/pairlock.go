package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/miniblog/social-api/internal/core/domain"
)

// defaultLockTTL must outlast service.MaxLockHold, or a lock can expire under
// a toggle that is still writing.
const (
	defaultLockTTL  = 30 * time.Second
	defaultLockWait = 5 * time.Second
	lockRetryEvery  = 20 * time.Millisecond
)

// ErrLockTimeout is returned when a lock could not be acquired in time.
var ErrLockTimeout = fmt.Errorf("%w: lock wait timed out", domain.ErrBusy)

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PairLock is a Redis mutex (SET NX PX + compare-and-delete) used to
// serialize read-modify-write sequences on one key across API instances.
type PairLock struct {
	client redis.Cmdable
	ttl    time.Duration
	wait   time.Duration
	log    zerolog.Logger
}

func NewPairLock(client redis.Cmdable, log zerolog.Logger) *PairLock {
	return &PairLock{client: client, ttl: defaultLockTTL, wait: defaultLockWait, log: log}
}

// Lock blocks until key is acquired, ctx ends, or the wait budget is spent.
func (l *PairLock) Lock(ctx context.Context, key string) (func(), error) {
	k := lockKey(key)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(lockRetryEvery)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(waitCtx, k, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if acquired {
			return func() { l.release(k, token) }, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("lock %s: %w", key, ErrLockTimeout)
		case <-ticker.C:
		}
	}
}

func (l *PairLock) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("failed to release lock; it will expire")
	}
}

func lockKey(key string) string {
	return "lock:" + key
}
