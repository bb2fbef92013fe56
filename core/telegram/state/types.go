package state

import (
	"context"
	"errors"
	"maps"
	"time"
)

// ErrNotFound is returned by Update when the session does not exist.
var ErrNotFound = errors.New("state: session not found")

// Session stores the values collected for one chat.
type Session struct {
	ID        string
	ChatID    int64
	Values    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Values = maps.Clone(s.Values)
	if cp.Values == nil {
		cp.Values = make(map[string]string)
	}
	return &cp
}

// Store persists sessions keyed by chat ID.
// GetOrCreate is the only place a session comes into existence; concurrent
// first calls for the same chat must observe the same session.
type Store interface {
	GetOrCreate(ctx context.Context, chatID int64) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Count(ctx context.Context) (int, error)
}
