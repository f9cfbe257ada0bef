package session

import (
	"context"
	"encoding/json"
	"sync"

	"docbridge/internal/models"
)

// MemoryStore is the single-node Store used by tests and demo runs. It
// round-trips the user through JSON so its semantics (including the
// malformed-data-is-absent rule) match the redis implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	token string
	user  []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(_ context.Context, sid string, token string, user models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sid] = memoryEntry{token: token, user: payload}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sid string) (string, models.User, bool) {
	s.mu.RLock()
	entry, exists := s.data[sid]
	s.mu.RUnlock()

	if !exists || entry.token == "" || len(entry.user) == 0 {
		return "", models.User{}, false
	}

	var user models.User
	if err := json.Unmarshal(entry.user, &user); err != nil {
		return "", models.User{}, false
	}
	if user.ID == "" || !user.UserType.Valid() {
		return "", models.User{}, false
	}

	return entry.token, user, true
}

func (s *MemoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sid)
	return nil
}

// Corrupt overwrites the stored user payload with garbage. Test hook.
func (s *MemoryStore) Corrupt(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, exists := s.data[sid]; exists {
		entry.user = []byte("{not json")
		s.data[sid] = entry
	}
}
