package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per profile under <prefix>:profile:<userID>.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: strings.Trim(prefix, ":")}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + ":profile:" + userID
}

func (s *RedisStore) Role(ctx context.Context, userID string) (string, error) {
	role, err := s.rdb.HGet(ctx, s.key(userID), "role").Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

func (s *RedisStore) SetRole(ctx context.Context, userID, role string) error {
	return s.rdb.HSet(ctx, s.key(userID), "role", role).Err()
}
