package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestOpenPostgresWrapsOpenError(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	var gotDriver, gotDSN string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return nil, errors.New("boom")
	}

	_, err := OpenPostgres(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "open postgres: boom") {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDriver != "pgx" || gotDSN != defaultPostgresDSN {
		t.Fatalf("unexpected open args: %s %s", gotDriver, gotDSN)
	}
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("CARDBOOK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CARDBOOK_TEST_POSTGRES_DSN not set")
	}
	st, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		_, _ = st.db.Exec(`DELETE FROM cardbook_kv WHERE key IN ('cardbook_base', 'cardbook_other')`)
		_ = st.Close()
	})
	_, _ = st.db.Exec(`DELETE FROM cardbook_kv WHERE key IN ('cardbook_base', 'cardbook_other')`)
	exerciseBackend(t, st)
}
