// history/redis.go
package history

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sammcj/promptlab/types"
)

const keyPrefix = "promptlab:history:"

// RedisStore keeps one JSON list per session
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A zero ttl keeps sessions forever.
func NewRedisStore(client *goredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisStoreFromURL connects with a redis:// URL and checks the server answers
func NewRedisStoreFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, &types.ConfigError{Field: "history.redis_url", Message: "invalid redis URL", Err: err}
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, &types.HistoryError{Operation: "open", Message: "redis ping failed", Err: err}
	}
	return NewRedisStore(client, ttl), nil
}

func key(session string) string { return keyPrefix + session }

func (s *RedisStore) Messages(ctx context.Context, session string) ([]types.Message, error) {
	items, err := s.client.LRange(ctx, key(session), 0, -1).Result()
	if err != nil && err != goredis.Nil {
		return nil, &types.HistoryError{Operation: "read", Session: session, Message: "LRANGE failed", Err: err}
	}

	msgs := make([]types.Message, 0, len(items))
	for _, item := range items {
		var m types.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, &types.HistoryError{Operation: "read", Session: session, Message: "corrupt entry", Err: err}
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *RedisStore) Append(ctx context.Context, session string, msgs ...types.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]interface{}, len(msgs))
	for i, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return &types.HistoryError{Operation: "append", Session: session, Message: "encode failed", Err: err}
		}
		values[i] = data
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, key(session), values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key(session), s.ttl)
		}
		return nil
	})
	if err != nil {
		return &types.HistoryError{Operation: "append", Session: session, Message: "RPUSH failed", Err: err}
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, session string) error {
	if err := s.client.Del(ctx, key(session)).Err(); err != nil {
		return &types.HistoryError{Operation: "clear", Session: session, Message: "DEL failed", Err: err}
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
