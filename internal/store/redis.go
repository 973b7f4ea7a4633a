package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding player -> head count.
const DefaultRedisKey = "headdrop:heads"

// RedisClient is the subset of *redis.Client the Redis store uses.
type RedisClient interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Redis keeps head counts as fields of a single hash.
type Redis struct {
	client RedisClient
	key    string
	close  func() error
}

// OpenRedis connects using a redis:// or rediss:// URL.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	s := NewRedis(client, DefaultRedisKey)
	s.close = client.Close
	return s, nil
}

// NewRedis wraps an existing client. Close does not close it.
func NewRedis(client RedisClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (s *Redis) Snapshot(ctx context.Context) (map[string]int64, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}

	out := make(map[string]int64, len(fields))
	for name, raw := range fields {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("head count for %s is not an integer: %w", name, err)
		}
		out[name] = count
	}
	return out, nil
}

func (s *Redis) Increment(ctx context.Context, player string, delta int64) error {
	if err := validateIncrement(player, delta); err != nil {
		return err
	}
	if err := s.client.HIncrBy(ctx, s.key, player, delta).Err(); err != nil {
		return fmt.Errorf("increment head count for %s: %w", player, err)
	}
	return nil
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Redis) Close() error {
	if s.close != nil {
		return s.close()
	}
	return nil
}
