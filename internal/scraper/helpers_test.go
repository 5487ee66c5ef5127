package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"shopscrape/pkg/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noPause(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// makeProducts returns n single-variant products with ids prefix-0..n-1.
func makeProducts(prefix string, n int) []models.Product {
	yes := true
	out := make([]models.Product, n)
	for i := range out {
		id := fmt.Sprintf("%s-%d", prefix, i)
		out[i] = models.Product{
			ID:     models.Text(id),
			Title:  "Product " + id,
			Handle: id,
			Variants: []models.Variant{{
				SKU:       models.Text("SKU-" + id),
				Title:     models.DefaultVariantTitle,
				Price:     "10.00",
				Available: &yes,
			}},
		}
	}
	return out
}

// pagedSource serves fixed pages and records every page number requested.
type pagedSource struct {
	mu    sync.Mutex
	pages [][]models.Product
	fail  map[int]error
	calls []int
}

func (s *pagedSource) fetch(_ context.Context, page, _ int) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, page)
	if err := s.fail[page]; err != nil {
		return nil, err
	}
	if page-1 >= len(s.pages) {
		return []models.Product{}, nil
	}
	// copy so tagging does not leak between walks
	return append([]models.Product(nil), s.pages[page-1]...), nil
}

// fakeCatalog is an in-memory Catalog.
type fakeCatalog struct {
	base        string
	detect      bool
	collections []models.Collection
	collErr     error
	byHandle    map[string]*pagedSource
	global      *pagedSource
}

func (f *fakeCatalog) BaseURL() string                 { return f.base }
func (f *fakeCatalog) Detect(ctx context.Context) bool { return f.detect }

func (f *fakeCatalog) Collections(ctx context.Context) ([]models.Collection, error) {
	return f.collections, f.collErr
}

func (f *fakeCatalog) CollectionProducts(ctx context.Context, handle string, page, limit int) ([]models.Product, error) {
	src, ok := f.byHandle[handle]
	if !ok {
		return nil, errors.New("404")
	}
	return src.fetch(ctx, page, limit)
}

func (f *fakeCatalog) Products(ctx context.Context, page, limit int) ([]models.Product, error) {
	if f.global == nil {
		return []models.Product{}, nil
	}
	return f.global.fetch(ctx, page, limit)
}
