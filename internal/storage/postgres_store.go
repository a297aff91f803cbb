package storage

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/hot-promos/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresStore implements Store on a single Postgres table.
type postgresStore struct {
	pool  *pgxpool.Pool
	table string
}

func openPostgres(ctx context.Context, dsn, table string) (Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &postgresStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *postgresStore) initSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL(s.table)); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		temp TEXT,
		created_at BIGINT NOT NULL,
		link TEXT NOT NULL,
		price TEXT
	)`
}

func selectAllSQL(table string) string {
	return `SELECT id, title, COALESCE(temp, ''), created_at, link, COALESCE(price, '') FROM ` + table
}

func insertSQL(table string) string {
	return `INSERT INTO ` + table + ` (id, title, temp, created_at, link, price)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''))
		ON CONFLICT (id) DO NOTHING`
}

func (s *postgresStore) ScanAll(ctx context.Context) ([]domain.Promo, error) {
	rows, err := s.pool.Query(ctx, selectAllSQL(s.table))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []domain.Promo
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Temp, &rec.CreatedAt, &rec.Link, &rec.Price); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, rec.Promo())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.table, err)
	}
	return out, nil
}

func (s *postgresStore) Put(ctx context.Context, p domain.Promo) error {
	if err := checkPutable(p); err != nil {
		return err
	}
	rec := domain.RecordFromPromo(p)
	if _, err := s.pool.Exec(ctx, insertSQL(s.table), rec.ID, rec.Title, rec.Temp, rec.CreatedAt, rec.Link, rec.Price); err != nil {
		return fmt.Errorf("insert %s: %w", rec.ID, err)
	}
	return nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
