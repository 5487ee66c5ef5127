package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopscrape/pkg/models"
)

var ErrNotFound = errors.New("run not found")

type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	Site   string
	Status string
	Limit  int
	Offset int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// SaveRun stores the run and its records in one transaction. Saving the
// same run id again replaces its records.
func (r *Repo) SaveRun(ctx context.Context, run models.Run, records []models.Record) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	s := run.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, site, status, error, output_path, started_at, finished_at,
		                  records, products, categories, in_stock, sold_out, unknown_stock, on_sale,
		                  min_price, max_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  status = excluded.status,
		  error = excluded.error,
		  output_path = excluded.output_path,
		  finished_at = excluded.finished_at,
		  records = excluded.records,
		  products = excluded.products,
		  categories = excluded.categories,
		  in_stock = excluded.in_stock,
		  sold_out = excluded.sold_out,
		  unknown_stock = excluded.unknown_stock,
		  on_sale = excluded.on_sale,
		  min_price = excluded.min_price,
		  max_price = excluded.max_price
	`,
		run.ID, run.Site, run.Status, run.Error, run.OutputPath, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		s.Records, s.Products, s.Categories, s.InStock, s.SoldOut, s.Unknown, s.OnSale,
		s.MinPrice, s.MaxPrice,
	); err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_records WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear records for %s: %w", run.ID, err)
	}

	if len(records) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO run_records (run_id, position, product_id, product_name, sku, barcode, category,
			                         vendor, product_type, price, compare_at_price, stock_status, product_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare stmt: %w", err)
		}
		defer stmt.Close()

		for i, rec := range records {
			if _, err := stmt.ExecContext(ctx,
				run.ID, i, rec.ProductID, rec.Name, rec.SKU, rec.Barcode, rec.Category,
				rec.Vendor, rec.ProductType, rec.Price, rec.CompareAtPrice, rec.Availability.String(), rec.URL,
			); err != nil {
				return fmt.Errorf("insert record %d of %s: %w", i, run.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const runColumns = `id, site, status, error, output_path, started_at, finished_at,
	records, products, categories, in_stock, sold_out, unknown_stock, on_sale, min_price, max_price`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (models.Run, error) {
	var (
		run        models.Run
		runErr     sql.NullString
		outputPath sql.NullString
		minPrice   sql.NullString
		maxPrice   sql.NullString
		started    time.Time
		finished   time.Time
	)
	s := &run.Summary
	if err := row.Scan(
		&run.ID, &run.Site, &run.Status, &runErr, &outputPath, &started, &finished,
		&s.Records, &s.Products, &s.Categories, &s.InStock, &s.SoldOut, &s.Unknown, &s.OnSale,
		&minPrice, &maxPrice,
	); err != nil {
		return models.Run{}, err
	}
	run.Error = runErr.String
	run.OutputPath = outputPath.String
	run.StartedAt = started.UTC()
	run.FinishedAt = finished.UTC()
	s.MinPrice = minPrice.String
	s.MaxPrice = maxPrice.String
	return run, nil
}

func (r *Repo) GetRun(ctx context.Context, id string) (models.Run, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Run{}, ErrNotFound
	}
	if err != nil {
		return models.Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

// ListRuns returns matching runs, newest first, and the total match count.
func (r *Repo) ListRuns(ctx context.Context, q ListQuery) ([]models.Run, int, error) {
	where, args := buildRunFilter(q)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	limit, offset := clampPage(q.Limit, q.Offset, 20)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs`+where+` ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func buildRunFilter(q ListQuery) (string, []any) {
	var where []string
	var args []any
	if s := strings.TrimSpace(q.Site); s != "" {
		where = append(where, "site = ?")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		where = append(where, "status = ?")
		args = append(args, strings.ToLower(s))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ListRecords returns a page of a run's records in output order. A limit
// of -1 returns every record.
func (r *Repo) ListRecords(ctx context.Context, runID string, limit, offset int) ([]models.Record, error) {
	if limit != -1 {
		limit, offset = clampPage(limit, offset, 100)
	} else if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT product_id, product_name, sku, barcode, category, vendor, product_type,
		       price, compare_at_price, stock_status, product_url
		FROM run_records
		WHERE run_id = ?
		ORDER BY position ASC
		LIMIT ? OFFSET ?
	`, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var (
			rec                                   models.Record
			sku, barcode, category, vendor, ptype sql.NullString
			price, compare, url                   sql.NullString
			stock                                 string
		)
		if err := rows.Scan(&rec.ProductID, &rec.Name, &sku, &barcode, &category, &vendor, &ptype,
			&price, &compare, &stock, &url); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.SKU = sku.String
		rec.Barcode = barcode.String
		rec.Category = category.String
		rec.Vendor = vendor.String
		rec.ProductType = ptype.String
		rec.Price = price.String
		rec.CompareAtPrice = compare.String
		rec.Availability = models.ParseAvailability(stock)
		rec.URL = url.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// AllRecords returns every record of a run.
func (r *Repo) AllRecords(ctx context.Context, runID string) ([]models.Record, error) {
	return r.ListRecords(ctx, runID, -1, 0)
}

func clampPage(limit, offset, def int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
