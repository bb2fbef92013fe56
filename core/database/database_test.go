package database

import (
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := Config{Host: "db", Name: "travel"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Port != "5432" || cfg.SSLMode != "disable" || cfg.MaxConnections != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := (&Config{Name: "x"}).Normalize(); err == nil {
		t.Fatal("expected error without host")
	}
}

func TestConfigURLEscapesCredentials(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss/word", Name: "travel", SSLMode: "disable"}
	got := cfg.URL()
	if !strings.HasPrefix(got, "postgres://bot:p%40ss%2Fword@db:5432/travel") {
		t.Fatalf("url = %s", got)
	}
	if !strings.HasSuffix(got, "?sslmode=disable") {
		t.Fatalf("url = %s", got)
	}
	if dsn := cfg.DSN(); !strings.Contains(dsn, "dbname=travel") {
		t.Fatalf("dsn = %s", dsn)
	}
}

func TestMigrationFileHelpers(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.up.sql":   {},
		"0001_a.up.sql":   {},
		"0001_a.down.sql": {},
		"README.md":       {},
	}
	files := upFiles(fsys)
	want := []string{"0001_a.up.sql", "0002_b.up.sql"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	if got := appliedBetween(files, 1, 2); !reflect.DeepEqual(got, []string{"0002_b.up.sql"}) {
		t.Fatalf("applied = %v", got)
	}
	if got := appliedBetween(files, 2, 2); got != nil {
		t.Fatalf("applied = %v, want none", got)
	}
}

func TestMigrationSource(t *testing.T) {
	embedded := fstest.MapFS{"0001_a.up.sql": {}}
	if _, origin, err := migrationSource(Config{Source: embedded}); err != nil || origin != "embedded" {
		t.Fatalf("origin = %q, err = %v", origin, err)
	}
	dir := t.TempDir()
	if _, origin, err := migrationSource(Config{Source: embedded, MigrationsDir: dir}); err != nil || origin != dir {
		t.Fatalf("origin = %q, err = %v; want directory override", origin, err)
	}
	if _, _, err := migrationSource(Config{}); err == nil {
		t.Fatal("expected error without any source")
	}
}
