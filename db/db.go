// Package db persists benchmark reports to Postgres for cross-run history.
// The sink is optional: it only runs when the operator configures a database
// URI.
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Batches     int
	Invocations int
	Succeeded   int
	Failed      int
}

type Batch struct {
	ID             int
	RunID          string
	Test           string
	Parallel       int
	Asset          string
	Launched       int
	Succeeded      int
	AverageSeconds int64
	TotalSeconds   int64
	ClipSeconds    int64
	Percent        *int // nil when the clip duration was unknown
	Error          string
}

type Connection interface {
	Begin() (Transactor, error)
	Close() error
}

type Transactor interface {
	InsertRun(ctx context.Context, r Run) error
	InsertBatch(ctx context.Context, b Batch) (int, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context)
}

type PGXDB struct {
	conn *pgxpool.Pool
}

func New(ctx context.Context, uri string) (*PGXDB, error) {
	conn, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	return &PGXDB{conn: conn}, nil
}

func (p *PGXDB) Begin() (Transactor, error) {
	tx, err := p.conn.Begin(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &PGXTransactor{tx: tx}, nil
}

func (p *PGXDB) Close() error {
	p.conn.Close()
	return nil
}

type PGXTransactor struct {
	tx  pgx.Tx
	mtx sync.Mutex
}

func (p *PGXTransactor) InsertRun(ctx context.Context, r Run) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	sql := `
INSERT INTO runs (id, started_at, finished_at, batches, invocations, succeeded, failed)
VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT DO NOTHING
`

	if _, err := p.tx.Exec(ctx,
		sql,
		r.ID,
		r.StartedAt,
		r.FinishedAt,
		r.Batches,
		r.Invocations,
		r.Succeeded,
		r.Failed,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (p *PGXTransactor) InsertBatch(ctx context.Context, b Batch) (int, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	sql := `
INSERT INTO batches (run_id, test, parallel, asset, launched, succeeded,
                     average_seconds, total_seconds, clip_seconds, realtime_percent, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id
`

	row := p.tx.QueryRow(ctx,
		sql,
		b.RunID,
		b.Test,
		b.Parallel,
		b.Asset,
		b.Launched,
		b.Succeeded,
		b.AverageSeconds,
		b.TotalSeconds,
		b.ClipSeconds,
		b.Percent,
		b.Error,
	)
	var id int
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}
	return id, nil
}

func (p *PGXTransactor) Commit(ctx context.Context) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.tx.Commit(ctx)
}

func (p *PGXTransactor) Rollback(ctx context.Context) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if err := p.tx.Rollback(context.Background()); err != nil {
		slog.Error("error rolling back transaction", "err", err)
	}
}
