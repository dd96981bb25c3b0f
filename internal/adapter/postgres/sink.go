// Package postgres appends tables to PostgreSQL using COPY.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
)

// DB is the subset of *pgxpool.Pool used by the sink.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Sink appends each table to a SQL table named after its slug, creating the
// table on first use.
type Sink struct {
	db     DB
	logger *slog.Logger
}

// NewSink creates a Postgres sink over db.
func NewSink(db DB, logger *slog.Logger) *Sink {
	return &Sink{db: db, logger: logger}
}

func (s *Sink) Name() string { return "postgres" }

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (s *Sink) Append(ctx context.Context, table domain.Table) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, createTableSQL(table)); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("create table %s: %w", table.Slug(), err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table.Slug()}, table.Header(), pgx.CopyFromRows(copyRows(table)))
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("copy into %s: %w", table.Slug(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Debug("rows copied", "table", table.Slug(), "rows", n)
	return nil
}

// createTableSQL declares numeric columns as DOUBLE PRECISION and the rest
// as TEXT.
func createTableSQL(table domain.Table) string {
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		typ := "TEXT"
		if c.Numeric {
			typ = "DOUBLE PRECISION"
		}
		cols[i] = pgx.Identifier{c.Name}.Sanitize() + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgx.Identifier{table.Slug()}.Sanitize(), strings.Join(cols, ", "))
}

// copyRows converts cells to the Go types matching the declared columns.
func copyRows(table domain.Table) [][]any {
	rows := make([][]any, len(table.Rows))
	for i, row := range table.Rows {
		out := make([]any, len(row))
		for j, v := range row {
			if j < len(table.Columns) && table.Columns[j].Numeric {
				f, _ := v.(float64)
				out[j] = f
				continue
			}
			out[j] = domain.CellText(v)
		}
		rows[i] = out
	}
	return rows
}
