package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "prefs:flag:"

// RedisFlagStore persists boolean client flags without expiry, so they survive across sessions.
type RedisFlagStore struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedisFlagStore(client *redis.Client, logger zerolog.Logger) *RedisFlagStore {
	logger = logger.With().Str("component", "RedisFlagStore").Logger()
	return &RedisFlagStore{client: client, logger: logger}
}

// Get returns def when the flag was never set.
func (s *RedisFlagStore) Get(ctx context.Context, key string, def bool) (bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Str("raw", raw).Msg("unreadable flag, using default")
		return def, nil
	}
	return v, nil
}

func (s *RedisFlagStore) Set(ctx context.Context, key string, value bool) error {
	s.logger.Debug().Str("key", key).Bool("value", value).Msg("setting flag")
	return s.client.Set(ctx, keyPrefix+key, strconv.FormatBool(value), 0).Err()
}
