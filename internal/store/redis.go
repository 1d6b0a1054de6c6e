package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/makeroom/internal/metrics"
	"github.com/eldtechnologies/makeroom/internal/models"
)

const (
	ownerTTL          = 30 * 24 * time.Hour
	defaultLockTTL    = 10 * time.Second
	lockRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes a lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps room owner bindings and provisioning locks in Redis so
// they are shared between bot processes and survive restarts.
type RedisStore struct {
	client  *redis.Client
	lockTTL time.Duration
	logger  zerolog.Logger
}

// NewRedisStore creates a new Redis store. lockTTL bounds how long a crashed
// holder can keep a provisioning lock; zero selects the default.
func NewRedisStore(ctx context.Context, redisURL string, lockTTL time.Duration, logger zerolog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &RedisStore{
		client:  client,
		lockTTL: lockTTL,
		logger:  logger.With().Str("component", "redis").Logger(),
	}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// roomOwnerKey returns the key for a room's owner binding.
func roomOwnerKey(roomID string) string {
	return fmt.Sprintf("room:%s:owner", roomID)
}

// lockKey returns the key for a provisioning lock.
func lockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

func observeRedis(start time.Time) {
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
}

// Bind stores the owner of a room.
func (s *RedisStore) Bind(ctx context.Context, owner models.RoomOwner) error {
	defer observeRedis(time.Now())

	if owner.CreatedAt.IsZero() {
		owner.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(owner)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roomOwnerKey(owner.RoomID), data, ownerTTL).Err()
}

// Owner returns the owner of a room, or nil when none is bound.
func (s *RedisStore) Owner(ctx context.Context, roomID string) (*models.RoomOwner, error) {
	defer observeRedis(time.Now())

	data, err := s.client.Get(ctx, roomOwnerKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var owner models.RoomOwner
	if err := json.Unmarshal(data, &owner); err != nil {
		return nil, fmt.Errorf("decode owner of room %s: %w", roomID, err)
	}
	return &owner, nil
}

// Unbind removes a room's owner binding. Missing bindings are not an error.
func (s *RedisStore) Unbind(ctx context.Context, roomID string) error {
	defer observeRedis(time.Now())
	return s.client.Del(ctx, roomOwnerKey(roomID)).Err()
}

// Lock acquires a lease on key, polling until it is free or ctx is done.
// The lease expires after the store's lock TTL even if never released.
func (s *RedisStore) Lock(ctx context.Context, key string) (func(), error) {
	k := lockKey(key)
	token := uuid.NewString()

	for {
		ok, err := s.client.SetNX(ctx, k, token, s.lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even if the caller's context is already done.
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			s.release(releaseCtx, k, token)
		})
	}, nil
}

// release drops a lease held under token. A failed release only delays the
// next holder until the TTL runs out, so it is logged and not returned.
func (s *RedisStore) release(ctx context.Context, key, token string) {
	defer observeRedis(time.Now())
	n, err := releaseScript.Run(ctx, s.client, []string{key}, token).Int()
	switch {
	case err != nil:
		s.logger.Debug().Err(err).Str("key", key).Msg("lock release failed")
	case n == 0:
		s.logger.Debug().Str("key", key).Msg("lock lease already lost")
	}
}
