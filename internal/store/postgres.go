package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/wordquiz/internal/config"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS import_history (
	id                  UUID PRIMARY KEY,
	source              TEXT NOT NULL,
	mode                TEXT NOT NULL,
	header_detected     BOOLEAN NOT NULL,
	col_unknown         INTEGER NOT NULL,
	col_translation     INTEGER NOT NULL,
	col_transliteration INTEGER NOT NULL,
	row_count           INTEGER NOT NULL,
	entry_count         INTEGER NOT NULL,
	dropped_count       INTEGER NOT NULL,
	error               TEXT NOT NULL DEFAULT '',
	client_ip           TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS import_history_created_at_idx ON import_history (created_at DESC);
`

const insertSQL = `INSERT INTO import_history (
	id, source, mode, header_detected,
	col_unknown, col_translation, col_transliteration,
	row_count, entry_count, dropped_count, error, client_ip, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const recentSQL = `SELECT
	id, source, mode, header_detected,
	col_unknown, col_translation, col_transliteration,
	row_count, entry_count, dropped_count, error, client_ip, created_at
FROM import_history
ORDER BY created_at DESC
LIMIT $1`

// Postgres is a History backed by a PostgreSQL table.
type Postgres struct {
	db DB
}

// NewPostgres returns a Postgres history over db.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// Connect opens a connection pool sized from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the history table when it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate import_history: %w", err)
	}
	return nil
}

// Insert stores rec.
func (p *Postgres) Insert(ctx context.Context, rec ImportRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}

	tag, err := p.db.Exec(ctx, insertSQL,
		rec.ID, rec.Source, rec.Mode, rec.HeaderDetected,
		rec.Columns.Unknown, rec.Columns.Translation, rec.Columns.Transliteration,
		rec.Rows, rec.Entries, rec.Dropped, rec.Error, rec.ClientIP, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert import record: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("insert import record: %d rows affected", tag.RowsAffected())
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]ImportRecord, error) {
	rows, err := p.db.Query(ctx, recentSQL, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query import history: %w", err)
	}
	defer rows.Close()

	out := []ImportRecord{}
	for rows.Next() {
		var r ImportRecord
		if err := rows.Scan(
			&r.ID, &r.Source, &r.Mode, &r.HeaderDetected,
			&r.Columns.Unknown, &r.Columns.Translation, &r.Columns.Transliteration,
			&r.Rows, &r.Entries, &r.Dropped, &r.Error, &r.ClientIP, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan import record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import history: %w", err)
	}
	return out, nil
}
