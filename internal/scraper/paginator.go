package scraper

import (
	"context"
	"log/slog"
	"time"

	"shopscrape/pkg/models"
)

// DefaultPageSize is the largest page the storefront API serves.
const DefaultPageSize = 250

// Paginator walks a Source page by page. The API has no "has more" flag: a
// page shorter than PageSize, an empty page or a failed read ends the stream.
type Paginator struct {
	PageSize int
	Delay    time.Duration // pause after every full page
	MaxPages int           // 0 means unbounded
	Pause    func(ctx context.Context, d time.Duration) error
	Logger   *slog.Logger
	Notify   func(Event)
}

// Walk returns every product the source yields, tagged with its label.
// Read failures end the walk without an error; only cancellation of ctx
// is returned, in which case the partial result is dropped.
func (p *Paginator) Walk(ctx context.Context, src Source) ([]models.Product, error) {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	logger := p.logger().With("source", src.Name)

	var out []models.Product
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, err := src.Fetch(ctx, page, size)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("listing ended on failed page", "page", page, "error", err)
			break
		}

		for i := range items {
			items[i].Category = src.Label
		}
		out = append(out, items...)
		logger.Info("page fetched", "page", page, "products", len(items))
		p.notify(Event{Type: EventPage, Source: src.Label, Page: page, Count: len(items), Total: len(out)})

		if len(items) < size {
			break
		}
		if p.MaxPages > 0 && page >= p.MaxPages {
			logger.Warn("page cap reached", "max_pages", p.MaxPages)
			break
		}
		if err := p.pause(ctx, p.Delay); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Paginator) pause(ctx context.Context, d time.Duration) error {
	if p.Pause != nil {
		return p.Pause(ctx, d)
	}
	return Sleep(ctx, d)
}

func (p *Paginator) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Paginator) notify(ev Event) {
	if p.Notify != nil {
		p.Notify(ev)
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
