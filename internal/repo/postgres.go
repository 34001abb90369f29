/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package repo

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// RebuildLockKey guards the scheduled rebuild across replicas.
const RebuildLockKey int64 = 0x6a67616e7474

var ErrNoRuns = errors.New("repo: no timeline runs recorded")

//go:embed migrations/*.sql
var migrations embed.FS

type DB struct {
	Pool *pgxpool.Pool
	log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(ctx2); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
	db  *DB
	log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

// EnsureSchema applies the embedded migrations that have not run yet, in file
// name order.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
        name TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`
	if _, err := r.db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}
	names, err := migrationNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		var applied bool
		if err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name=$1)`, name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}
		body, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		err = pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations(name) VALUES($1)`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		r.log.Info().Str("migration", name).Msg("migration applied")
	}
	return nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Lock is a session advisory lock. It pins the pooled connection that took it
// until Release.
type Lock struct {
	conn *pgxpool.Conn
	key  int64
}

// TryAdvisoryLock returns a nil Lock and no error when another session holds key.
func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (*Lock, error) {
	conn, err := r.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return nil, err
	}
	if !ok {
		conn.Release()
		return nil, nil
	}
	return &Lock{conn: conn, key: key}, nil
}

func (l *Lock) Release(ctx context.Context) error {
	defer l.conn.Release()
	var ok bool
	err := l.conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", l.key).Scan(&ok)
	if !ok && err == nil {
		return errors.New("advisory unlock returned false")
	}
	return err
}

// Snapshot is the raw Jira document of one issue as last ingested.
type Snapshot struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// UpsertSnapshots stores the latest payload per issue key.
func (r *Repository) UpsertSnapshots(ctx context.Context, snaps []Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	const q = `INSERT INTO issue_snapshots(key, payload, fetched_at)
        VALUES($1,$2,$3)
        ON CONFLICT(key) DO UPDATE SET payload=EXCLUDED.payload, fetched_at=EXCLUDED.fetched_at`
	for _, s := range snaps {
		batch.Queue(q, s.Key, []byte(s.Payload), s.FetchedAt)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range snaps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
	}
	return nil
}

// LoadSnapshots returns up to limit snapshots ordered by key.
func (r *Repository) LoadSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 5000
	}
	const q = `SELECT key, payload, fetched_at FROM issue_snapshots ORDER BY key LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer rows.Close()
	out := []Snapshot{}
	for rows.Next() {
		var s Snapshot
		var payload []byte
		if err := rows.Scan(&s.Key, &payload, &s.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Payload = payload
		out = append(out, s)
	}
	return out, rows.Err()
}

// RunStats is what a finished run records.
type RunStats struct {
	Issues        int
	Tasks         int
	BlockedIssues int
	RejectedEdges int
}

func (r *Repository) StartRun(ctx context.Context, runID, source string) (int64, error) {
	const q = `INSERT INTO timeline_runs(run_id, source, started_at, success) VALUES($1, $2, now(), false) RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, runID, source).Scan(&id); err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

func (r *Repository) FinishRun(ctx context.Context, id int64, st RunStats, success bool, errStr string) error {
	const q = `UPDATE timeline_runs SET finished_at=now(), issues=$2, tasks=$3, blocked_issues=$4,
        rejected_edges=$5, success=$6, error=$7 WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id, st.Issues, st.Tasks, st.BlockedIssues, st.RejectedEdges, success, errStr)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

type LastRun struct {
	RunID         string     `json:"run_id"`
	Source        string     `json:"source"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	Issues        int        `json:"issues"`
	Tasks         int        `json:"tasks"`
	BlockedIssues int        `json:"blocked_issues"`
	RejectedEdges int        `json:"rejected_edges"`
	Success       bool       `json:"success"`
	Error         string     `json:"error"`
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
	const q = `SELECT run_id::text, source, started_at, finished_at,
        coalesce(issues,0), coalesce(tasks,0), coalesce(blocked_issues,0), coalesce(rejected_edges,0),
        success, coalesce(error,'')
        FROM timeline_runs ORDER BY id DESC LIMIT 1`
	lr := &LastRun{}
	err := r.db.Pool.QueryRow(ctx, q).Scan(&lr.RunID, &lr.Source, &lr.StartedAt, &lr.FinishedAt,
		&lr.Issues, &lr.Tasks, &lr.BlockedIssues, &lr.RejectedEdges, &lr.Success, &lr.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return lr, nil
}
