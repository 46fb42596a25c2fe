package memory

import (
	"context"
	"sync"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/ports"
)

// MemoryPresenceStore is the single-instance fallback for the presence
// mirror. Duplicate adds and absent removes are no-ops.
type MemoryPresenceStore struct {
	online map[domain.UserID]struct{}
	mu     sync.RWMutex
}

func NewMemoryPresenceStore() ports.PresenceStore {
	return &MemoryPresenceStore{
		online: make(map[domain.UserID]struct{}),
	}
}

func (s *MemoryPresenceStore) Add(ctx context.Context, identity domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.online[identity] = struct{}{}
	return nil
}

func (s *MemoryPresenceStore) Remove(ctx context.Context, identity domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.online, identity)
	return nil
}

func (s *MemoryPresenceStore) List(ctx context.Context) ([]domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identities := make([]domain.UserID, 0, len(s.online))
	for identity := range s.online {
		identities = append(identities, identity)
	}
	return identities, nil
}
