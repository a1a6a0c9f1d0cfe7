package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := b.Get(ctx, "cardbook_base"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := b.Set(ctx, "cardbook_base", []byte(`{"1":{"hasCard":true,"repeats":0}}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := b.Set(ctx, "cardbook_other", []byte(`{}`)); err != nil {
		t.Fatalf("set other: %v", err)
	}
	if err := b.Set(ctx, "cardbook_base", []byte(`{"2":{"hasCard":true,"repeats":3}}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, ok, err := b.Get(ctx, "cardbook_base")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"2":{"hasCard":true,"repeats":3}}` {
		t.Fatalf("unexpected value: %s", got)
	}
	other, ok, err := b.Get(ctx, "cardbook_other")
	if err != nil || !ok || string(other) != `{}` {
		t.Fatalf("keys collided: %s ok=%v err=%v", other, ok, err)
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte("abc")
	if err := m.Set(context.Background(), "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'z'
	got, _, _ := m.Get(context.Background(), "k")
	if string(got) != "abc" {
		t.Fatalf("expected stored copy, got %s", got)
	}
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cardbook.db")
	st, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	exerciseBackend(t, st)
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	got, ok, err := reopened.Get(context.Background(), "cardbook_base")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(string(got), `"2"`) {
		t.Fatalf("unexpected value after reopen: %s", got)
	}
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	st, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	exerciseBackend(t, st)
	if _, err := os.Stat(filepath.Join(dir, "cardbook_base.json")); err != nil {
		t.Fatalf("expected json file: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestFileBackendRejectsPathKeys(t *testing.T) {
	st, err := OpenFile(t.TempDir())
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := st.Set(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := b.(*Memory); !ok {
		t.Fatalf("expected *Memory, got %T", b)
	}

	b, err = Open(ctx, Config{SQLitePath: filepath.Join(t.TempDir(), "default.db")})
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	t.Cleanup(func() {
		_ = b.Close()
	})
	if _, ok := b.(*SQLite); !ok {
		t.Fatalf("expected sqlite by default, got %T", b)
	}

	if _, err := Open(ctx, Config{Driver: "redis"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(ctx, Config{Driver: DriverFile}); err == nil {
		t.Fatalf("expected missing directory error")
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
