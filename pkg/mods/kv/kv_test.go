package kv

import (
	"path/filepath"
	"testing"

	. "src.furver.dev/pkg/eval/evaltest"
	"src.furver.dev/pkg/testutil"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(testutil.TempDir(t), "kv.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKV(t *testing.T) {
	db := openTemp(t)
	Test(t, db.Env(),
		That(`["kv-get", "a"]`).Returns(nil),
		That(`["kv-keys"]`).Returns([]any{}),
		That(`["kv-put", "a", {"x": [1, "y"]}]`).Returns(nil),
		That(`["kv-put", "b", 2]`).Returns(nil),
		That(`["kv-get", "a"]`).Returns(map[string]any{"x": []any{1.0, "y"}}),
		That(`["kv-keys"]`).Returns([]any{"a", "b"}),
		That(`["kv-delete", "a"]`).Returns(nil),
		That(`["kv-delete", "no-such-key"]`).Returns(nil),
		That(`["kv-keys"]`).Returns([]any{"b"}),
		That(`["kv-get", 1]`).ThrowsAny(),
	)
}

func TestOpen_Persists(t *testing.T) {
	path := filepath.Join(testutil.TempDir(t), "kv.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put("k", "v"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	v, err := db.Get("k")
	if v != "v" || err != nil {
		t.Errorf("Get -> (%v, %v), want (v, nil)", v, err)
	}
}

func TestOpen_NoPath(t *testing.T) {
	if _, err := Open(""); err != ErrNoPath {
		t.Errorf("Open(\"\") -> %v, want ErrNoPath", err)
	}
}
