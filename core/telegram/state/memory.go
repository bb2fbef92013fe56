package state

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type memoryStore struct {
	// mu orders the read-modify-write of an entry with its expiry refresh.
	mu       sync.Mutex
	sessions *gocache.Cache
	sliding  bool
}

// NewMemoryStore returns a process-local Store. Sessions idle for longer than
// ttl are dropped; any GetOrCreate or Update counts as activity. ttl <= 0
// keeps them for the lifetime of the process.
func NewMemoryStore(ttl time.Duration) Store {
	exp, cleanup := gocache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		exp, cleanup = ttl, ttl/2
		if cleanup < time.Second {
			cleanup = time.Second
		}
	}
	return &memoryStore{sessions: gocache.New(exp, cleanup), sliding: ttl > 0}
}

func key(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (m *memoryStore) GetOrCreate(ctx context.Context, chatID int64) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := key(chatID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.sessions.Get(k); ok {
		if m.sliding {
			m.sessions.Set(k, v, gocache.DefaultExpiration)
		}
		return v.(*Session).Clone(), nil
	}
	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Values:    make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions.Set(k, s, gocache.DefaultExpiration)
	return s.Clone(), nil
}

func (m *memoryStore) Update(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil {
		return ErrNotFound
	}
	k := key(s.ChatID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions.Get(k); !ok {
		return ErrNotFound
	}
	cp := s.Clone()
	cp.UpdatedAt = time.Now().UTC()
	m.sessions.Set(k, cp, gocache.DefaultExpiration)
	s.UpdatedAt = cp.UpdatedAt
	return nil
}

func (m *memoryStore) Count(context.Context) (int, error) {
	return m.sessions.ItemCount(), nil
}
