package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewStoreDispatch(t *testing.T) {
	ctx := context.Background()

	mem, err := NewStore(ctx, "memory", Options{})
	if err != nil {
		t.Fatalf("NewStore memory: %v", err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", mem)
	}

	bolt, err := NewStore(ctx, " BBolt ", Options{BBoltPath: filepath.Join(t.TempDir(), "p.db")})
	if err != nil {
		t.Fatalf("NewStore bbolt: %v", err)
	}
	defer bolt.Close()
	if got := string(bolt.(*boltStore).bucket); got != defaultTable {
		t.Fatalf("expected default table bucket, got %q", got)
	}
}

func TestNewStoreValidation(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		typ  string
		opts Options
	}{
		{name: "empty type", typ: " "},
		{name: "unknown", typ: "cassandra"},
		{name: "bbolt without path", typ: TypeBBolt},
		{name: "postgres without dsn", typ: TypePostgres},
		{name: "redis without addr", typ: TypeRedis},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewStore(ctx, tc.typ, tc.opts); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}
