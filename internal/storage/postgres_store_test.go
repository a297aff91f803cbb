package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func TestPostgresSQLUsesSanitizedTable(t *testing.T) {
	table := pgx.Identifier{"promo_bot_mx_promos"}.Sanitize()
	if table != `"promo_bot_mx_promos"` {
		t.Fatalf("unexpected identifier %s", table)
	}
	if !strings.Contains(createTableSQL(table), "id TEXT PRIMARY KEY") {
		t.Fatalf("create statement missing primary key")
	}
	if !strings.Contains(insertSQL(table), "ON CONFLICT (id) DO NOTHING") {
		t.Fatalf("insert must not overwrite existing rows")
	}
	if !strings.HasSuffix(selectAllSQL(table), "FROM "+table) {
		t.Fatalf("select targets wrong table: %s", selectAllSQL(table))
	}
}

// Runs against a live database when HOT_PROMOS_TEST_POSTGRES_DSN is set.
func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("HOT_PROMOS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HOT_PROMOS_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := fmt.Sprintf("promos_it_%d", time.Now().UnixNano())
	store, err := NewStore(ctx, TypePostgres, Options{PostgresDSN: dsn, Table: table})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	pg := store.(*postgresStore)
	defer func() {
		_, _ = pg.pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+pg.table)
		_ = store.Close()
	}()

	if err := store.Put(ctx, samplePromo("1", "Deal A")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, samplePromo("1", "Deal A v2")); err != nil {
		t.Fatalf("Put duplicate: %v", err)
	}
	got, err := store.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Deal A" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}
