package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	insertSessionSQL = `INSERT INTO chat_sessions (chat_id, id, slots, created_at, updated_at)
VALUES ($1, $2, '{}'::jsonb, $3, $3)
ON CONFLICT (chat_id) DO NOTHING`
	selectSessionSQL = `SELECT id, chat_id, slots, created_at, updated_at FROM chat_sessions WHERE chat_id = $1`
	updateSessionSQL = `UPDATE chat_sessions SET slots = $2, updated_at = $3 WHERE chat_id = $1`
	countSessionsSQL = `SELECT count(*) FROM chat_sessions`
)

type sessionRow struct {
	ID        string    `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Slots     []byte    `db:"slots"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns a Store backed by the chat_sessions table.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (p *postgresStore) GetOrCreate(ctx context.Context, chatID int64) (*Session, error) {
	if _, err := p.db.ExecContext(ctx, insertSessionSQL, chatID, uuid.NewString(), time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("state: insert session: %w", err)
	}
	var row sessionRow
	if err := p.db.GetContext(ctx, &row, selectSessionSQL, chatID); err != nil {
		return nil, fmt.Errorf("state: select session: %w", err)
	}
	values := make(map[string]string)
	if len(row.Slots) > 0 {
		if err := json.Unmarshal(row.Slots, &values); err != nil {
			return nil, fmt.Errorf("state: decode slots: %w", err)
		}
	}
	return &Session{
		ID:        row.ID,
		ChatID:    row.ChatID,
		Values:    values,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (p *postgresStore) Update(ctx context.Context, s *Session) error {
	if s == nil {
		return ErrNotFound
	}
	values := s.Values
	if values == nil {
		values = map[string]string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("state: encode slots: %w", err)
	}
	now := time.Now().UTC()
	res, err := p.db.ExecContext(ctx, updateSessionSQL, s.ChatID, raw, now)
	if err != nil {
		return fmt.Errorf("state: update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	s.UpdatedAt = now
	return nil
}

func (p *postgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.GetContext(ctx, &n, countSessionsSQL); err != nil {
		return 0, fmt.Errorf("state: count sessions: %w", err)
	}
	return n, nil
}
