package dialogue

import (
	"context"
	"time"

	"github.com/m3rciful/travelbot/core/telegram/state"
	"github.com/m3rciful/travelbot/internal/slots"
)

// Conversation is the questionnaire progress of one chat.
type Conversation struct {
	ID        string
	ChatID    int64
	Slots     map[slots.Key]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Complete reports whether every slot of schema is filled.
func (c *Conversation) Complete(schema slots.Schema) bool {
	_, pending := schema.NextUnfilled(c.Slots)
	return !pending
}

// Store persists conversations. GetOrCreate is the only creation point and
// must be safe for concurrent first calls on the same chat.
type Store interface {
	GetOrCreate(ctx context.Context, chatID int64) (*Conversation, error)
	Update(ctx context.Context, conv *Conversation) error
}

type sessionStore struct {
	sessions state.Store
}

// SessionStore adapts chat sessions to the Store interface.
// Slot values are kept in the session's value map under their keys.
func SessionStore(s state.Store) Store {
	return sessionStore{sessions: s}
}

func (s sessionStore) GetOrCreate(ctx context.Context, chatID int64) (*Conversation, error) {
	sess, err := s.sessions.GetOrCreate(ctx, chatID)
	if err != nil {
		return nil, err
	}
	conv := &Conversation{
		ID:        sess.ID,
		ChatID:    sess.ChatID,
		Slots:     make(map[slots.Key]string, len(sess.Values)),
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
	for k, v := range sess.Values {
		conv.Slots[slots.Key(k)] = v
	}
	return conv, nil
}

func (s sessionStore) Update(ctx context.Context, conv *Conversation) error {
	sess := &state.Session{
		ID:        conv.ID,
		ChatID:    conv.ChatID,
		Values:    make(map[string]string, len(conv.Slots)),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	for k, v := range conv.Slots {
		sess.Values[string(k)] = v
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return err
	}
	conv.UpdatedAt = sess.UpdatedAt
	return nil
}
