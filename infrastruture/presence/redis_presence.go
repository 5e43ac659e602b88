package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var _ i.SessionManager = &RedisPresence{}

// RedisPresence keeps the players connected to each game channel in a Redis
// hash of connection counts, so several api instances share one view of who
// is online.
type RedisPresence struct {
	client *redis.Client
	locker *redsync.Redsync
	ttl    time.Duration
	logger i.Logger
}

// NewRedisPresence initializes a RedisPresence. Hashes expire ttlSeconds after
// their last change so abandoned channels do not pile up.
func NewRedisPresence(client *redis.Client, ttlSeconds int, logger i.Logger) *RedisPresence {
	pool := goredis.NewPool(client)
	return &RedisPresence{
		client: client,
		locker: redsync.New(pool),
		ttl:    time.Duration(ttlSeconds) * time.Second,
		logger: logger,
	}
}

// Register implements i.SessionManager. Each player holds a connection counter
// in the hash of code.
func (rp *RedisPresence) Register(ctx context.Context, code string, playerID uuid.UUID) (bool, error) {
	first := false
	err := rp.withLock(ctx, code, func() error {
		key := presenceKey(code)
		n, err := rp.client.HIncrBy(ctx, key, playerID.String(), 1).Result()
		if err != nil {
			return err
		}
		first = n == 1
		if rp.ttl > 0 {
			if err := rp.client.Expire(ctx, key, rp.ttl).Err(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	rp.logger.Info(fmt.Sprintf("player %s connected to %s", playerID, code))
	return first, nil
}

// Remove implements i.SessionManager. The hash is deleted with its last player.
func (rp *RedisPresence) Remove(ctx context.Context, code string, playerID uuid.UUID) (bool, error) {
	removed := false
	found := false
	err := rp.withLock(ctx, code, func() error {
		key := presenceKey(code)
		n, err := rp.client.HGet(ctx, key, playerID.String()).Int64()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		if n > 1 {
			return rp.client.HIncrBy(ctx, key, playerID.String(), -1).Err()
		}
		if err := rp.client.HDel(ctx, key, playerID.String()).Err(); err != nil {
			return err
		}
		removed = true

		left, err := rp.client.HLen(ctx, key).Result()
		if err != nil {
			return err
		}
		if left == 0 {
			return rp.client.Del(ctx, key).Err()
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if found {
		rp.logger.Info(fmt.Sprintf("player %s disconnected from %s", playerID, code))
	}
	return removed, nil
}

// Exists implements i.SessionManager.
func (rp *RedisPresence) Exists(ctx context.Context, code string) (bool, error) {
	n, err := rp.client.Exists(ctx, presenceKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Players implements i.SessionManager.
func (rp *RedisPresence) Players(ctx context.Context, code string) ([]uuid.UUID, error) {
	members, err := rp.client.HKeys(ctx, presenceKey(code)).Result()
	if err != nil {
		return nil, err
	}

	players := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			rp.logger.Warning(fmt.Sprintf("skipping malformed member %q of %s", m, code))
			continue
		}
		players = append(players, id)
	}
	return players, nil
}

// Clear implements i.SessionManager.
func (rp *RedisPresence) Clear(ctx context.Context, code string) error {
	return rp.withLock(ctx, code, func() error {
		return rp.client.Del(ctx, presenceKey(code)).Err()
	})
}

// withLock runs fn while holding the distributed lock of code.
func (rp *RedisPresence) withLock(ctx context.Context, code string, fn func() error) error {
	mutex := rp.locker.NewMutex(presenceKey(code) + ":lock")
	if err := mutex.LockContext(ctx); err != nil {
		return err
	}
	defer func() {
		_, _ = mutex.UnlockContext(ctx)
	}()

	return fn()
}

func presenceKey(code string) string {
	return "presence:" + code
}
