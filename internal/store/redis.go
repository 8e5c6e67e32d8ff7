package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

const (
	lastMoodKey = "mood:last"
	historyKey  = "mood:history"
)

// RedisStore keeps the last mood in a string key and a capped history list.
type RedisStore struct {
	client *redis.Client
	limit  int
}

// Ensure RedisStore implements MoodStore at compile time.
var _ MoodStore = (*RedisStore)(nil)

// NewRedisStore connects to redisURL (redis://[:password@]host:port/db).
func NewRedisStore(ctx context.Context, redisURL string, limit int) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewRedisStoreFromClient(client, limit), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, limit int) *RedisStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &RedisStore{client: client, limit: limit}
}

// SaveResult sets the last mood and pushes rec onto the capped history.
func (s *RedisStore) SaveResult(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lastMoodKey, string(rec.Mood), 0)
		pipe.LPush(ctx, historyKey, data)
		pipe.LTrim(ctx, historyKey, 0, int64(s.limit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// LastMood returns the value of the last-mood key.
func (s *RedisStore) LastMood(ctx context.Context) (mood.Label, error) {
	val, err := s.client.Get(ctx, lastMoodKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting last mood: %w", err)
	}
	return mood.Label(val), nil
}

// History returns up to limit records, newest first.
func (s *RedisStore) History(ctx context.Context, limit int) ([]Record, error) {
	limit = clampLimit(limit, s.limit)

	items, err := s.client.LRange(ctx, historyKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
