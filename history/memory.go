package history

import (
	"context"
	"sync"

	"github.com/sammcj/promptlab/types"
)

// MemoryStore keeps transcripts for the life of the process
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]types.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]types.Message)}
}

func (s *MemoryStore) Messages(_ context.Context, session string) ([]types.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Message(nil), s.sessions[session]...), nil
}

func (s *MemoryStore) Append(_ context.Context, session string, msgs ...types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session] = append(s.sessions[session], msgs...)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
