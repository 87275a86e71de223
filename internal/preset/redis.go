package preset

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/blacktop/postcraft/internal/compose"
	"github.com/blacktop/postcraft/internal/logutil"
)

const presetsKey = "postcraft:presets" // hash: preset name -> JSON preset

// RedisStore shares presets between machines through a Redis hash.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis connects to a redis:// URL and checks the server answers.
func DialRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client), nil
}

// List returns presets sorted by name.
func (s *RedisStore) List(ctx context.Context) ([]compose.Preset, error) {
	raw, err := s.client.HGetAll(ctx, presetsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}

	presets := make([]compose.Preset, 0, len(raw))
	for name, data := range raw {
		var p compose.Preset
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			logutil.Warnf("skipping malformed preset %q: %v", name, err)
			continue
		}
		p.Name = name
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, nil
}

// Save stores or replaces presets by name in one pipeline.
func (s *RedisStore) Save(ctx context.Context, presets ...compose.Preset) error {
	if len(presets) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, p := range presets {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal preset %q: %w", p.Name, err)
		}
		pipe.HSet(ctx, presetsKey, p.Name, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
