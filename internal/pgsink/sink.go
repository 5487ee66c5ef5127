// Package pgsink mirrors finished runs into Postgres.
package pgsink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopscrape/pkg/models"
)

const defaultBatch = 200

// DB is the part of *pgxpool.Pool the sink uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Sink struct {
	DB     DB
	Schema string
	Batch  int
}

// Open connects to dsn and creates the tables if needed.
func Open(ctx context.Context, dsn string) (*Sink, *pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse pg dsn: %w", err)
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pg connect: %w", err)
	}

	s := &Sink{DB: pool, Schema: "public"}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

func (s *Sink) table(name string) string {
	schema := s.Schema
	if schema == "" {
		schema = "public"
	}
	return fmt.Sprintf(`"%s".%s`, strings.ReplaceAll(schema, `"`, ""), name)
}

func (s *Sink) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table("scrape_runs") + ` (
			id          TEXT PRIMARY KEY,
			site        TEXT NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			records     INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + s.table("scrape_records") + ` (
			run_id           TEXT NOT NULL,
			position         INTEGER NOT NULL,
			product_id       TEXT NOT NULL,
			product_name     TEXT NOT NULL,
			sku              TEXT,
			barcode          TEXT,
			category         TEXT,
			vendor           TEXT,
			product_type     TEXT,
			price            TEXT,
			compare_at_price TEXT,
			stock_status     TEXT NOT NULL,
			product_url      TEXT,
			PRIMARY KEY (run_id, position)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pg ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun inserts the run and its records. Rows that already exist are
// left untouched.
func (s *Sink) SaveRun(ctx context.Context, run models.Run, records []models.Record) error {
	if _, err := s.DB.Exec(ctx,
		`INSERT INTO `+s.table("scrape_runs")+`
		(id, site, status, error, started_at, finished_at, records)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING`,
		run.ID, run.Site, run.Status, nullable(run.Error), run.StartedAt, run.FinishedAt, len(records),
	); err != nil {
		return fmt.Errorf("pg insert run %s: %w", run.ID, err)
	}

	_, err := s.insertRecords(ctx, run.ID, records)
	return err
}

func (s *Sink) insertRecords(ctx context.Context, runID string, records []models.Record) (int, error) {
	batch := s.Batch
	if batch <= 0 {
		batch = defaultBatch
	}
	table := s.table("scrape_records")
	total := 0

	for i := 0; i < len(records); i += batch {
		j := min(i+batch, len(records))
		b := &pgx.Batch{}
		for k, r := range records[i:j] {
			b.Queue(
				`INSERT INTO `+table+`
				(run_id, position, product_id, product_name, sku, barcode, category, vendor,
				 product_type, price, compare_at_price, stock_status, product_url)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
				ON CONFLICT (run_id, position) DO NOTHING`,
				runID, i+k, r.ProductID, r.Name, nullable(r.SKU), nullable(r.Barcode), nullable(r.Category),
				nullable(r.Vendor), nullable(r.ProductType), nullable(r.Price), nullable(r.CompareAtPrice),
				r.Availability.String(), nullable(r.URL),
			)
		}

		br := s.DB.SendBatch(ctx, b)
		for k := 0; k < b.Len(); k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, fmt.Errorf("pg insert records: %w", err)
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, fmt.Errorf("pg insert records: %w", err)
		}
	}
	return total, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
