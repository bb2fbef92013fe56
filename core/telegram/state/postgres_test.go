package state

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// TEST_DATABASE_DSN must point to a database where migrations/ has been applied.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	const chatID = int64(-100500)
	_, _ = db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE chat_id = $1`, chatID)

	st := NewPostgresStore(db)
	s, err := st.GetOrCreate(ctx, chatID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	s.Values["budget"] = "150000"
	if err := st.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := st.GetOrCreate(ctx, chatID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if got.ID != s.ID || got.Values["budget"] != "150000" {
		t.Fatalf("got %+v", got)
	}
}
