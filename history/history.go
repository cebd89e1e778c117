// history/history.go
package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sammcj/promptlab/config"
	"github.com/sammcj/promptlab/types"
)

// Store keeps chat transcripts keyed by session id
type Store interface {
	Messages(ctx context.Context, session string) ([]types.Message, error)
	Append(ctx context.Context, session string, msgs ...types.Message) error
	Clear(ctx context.Context, session string) error
	Close() error
}

// NewSessionID returns a fresh session identifier
func NewSessionID() string {
	return uuid.NewString()
}

// Open creates the store selected by cfg.Backend
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "redis":
		return NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.TTL)
	default:
		return nil, &types.ConfigError{Field: "history.backend", Message: fmt.Sprintf("unknown backend %q", cfg.Backend)}
	}
}
