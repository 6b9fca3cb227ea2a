package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-job-harvester/internal/classifier"
	"go-job-harvester/internal/corpus"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_postings (
	url        TEXT PRIMARY KEY,
	fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
	raw        TEXT,
	run_id     TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertPosting = `
	INSERT INTO job_postings (url, fields, raw, run_id, updated_at)
	VALUES ($1, $2::jsonb, $3, $4, $5)
	ON CONFLICT (url)
	DO UPDATE SET fields = EXCLUDED.fields, raw = EXCLUDED.raw, run_id = EXCLUDED.run_id, updated_at = EXCLUDED.updated_at`

// Repository mirrors the corpus into Postgres. It satisfies corpus.Store.
type Repository struct {
	db    *pgxpool.Pool
	runID string
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Connection poolers in transaction mode do not support prepared
	// statements; the statement cache must stay off.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// ForRun tags every row saved through the returned repository with runID.
// The pool is shared.
func (r *Repository) ForRun(runID string) *Repository {
	return &Repository{db: r.db, runID: runID}
}

// EnsureSchema creates the job_postings table when it is missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save upserts every posting of c in a single transaction.
func (r *Repository) Save(ctx context.Context, c *corpus.Corpus) error {
	rows, err := postingRows(c)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertPosting, row.URL, string(row.Fields), row.Raw, r.runID, now)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save postings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit postings: %w", err)
	}
	return nil
}

// Count returns how many postings are stored.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM job_postings").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}
	return n, nil
}

type postingRow struct {
	URL    string
	Fields []byte
	Raw    *string
}

// postingRows splits each record into the JSONB category fields and the
// raw text column, in corpus order.
func postingRows(c *corpus.Corpus) ([]postingRow, error) {
	var rows []postingRow
	for _, url := range c.URLs() {
		rec, _ := c.Get(url)
		fields := make(map[string]string, len(rec))
		var raw *string
		for k, v := range rec {
			v := v
			if k == classifier.RawKey {
				raw = &v
				continue
			}
			fields[k] = v
		}
		data, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("marshal fields for %s: %w", url, err)
		}
		rows = append(rows, postingRow{URL: url, Fields: data, Raw: raw})
	}
	return rows, nil
}
