package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shopscrape/pkg/models"
)

// AllCollectionHandle is the storefront's built-in collection of every
// product. It is skipped because the global listing already covers it.
const AllCollectionHandle = "all"

var (
	// ErrNoCollections means collection discovery failed or found nothing to walk.
	ErrNoCollections = errors.New("no collections found")
	// ErrNotStorefront means the site does not expose the storefront JSON API.
	ErrNotStorefront = errors.New("site does not expose the storefront JSON API")
)

// Pipeline collects, normalizes and deduplicates the catalog of one site.
// It issues one request at a time.
type Pipeline struct {
	Catalog       Catalog
	Paginator     *Paginator
	Keys          KeyFields
	AllItemsLabel string
	Delay         time.Duration // pause after every collection
	Logger        *slog.Logger
	Notify        func(Event)
}

// Collect walks every non-empty collection in listing order, then the global
// listing, and returns the deduplicated records.
//
// A failed collection walk is logged and skipped. Failure to discover any
// collection is fatal and returned as ErrNoCollections.
func (p *Pipeline) Collect(ctx context.Context) ([]models.Record, error) {
	logger := p.logger()
	baseURL := p.Catalog.BaseURL()

	collections, err := p.Catalog.Collections(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNoCollections, err)
	}
	usable := UsableCollections(collections)
	if len(usable) == 0 {
		return nil, ErrNoCollections
	}
	logger.Info("collections discovered", "listed", len(collections), "usable", len(usable))
	p.notify(Event{Type: EventCollections, Count: len(usable), Total: len(collections)})

	var all []models.Record
	for _, col := range usable {
		products, err := p.Paginator.Walk(ctx, CollectionSource(p.Catalog, col))
		if err != nil {
			return nil, err
		}
		all = appendNormalized(all, products, baseURL)
		logger.Info("collection done", "collection", col.Title, "products", len(products))
		p.notify(Event{Type: EventSourceDone, Source: col.Title, Count: len(products), Total: len(all)})

		if err := p.pause(ctx); err != nil {
			return nil, err
		}
	}
	fromCollections := len(all)

	products, err := p.Paginator.Walk(ctx, GlobalSource(p.Catalog, p.AllItemsLabel))
	if err != nil {
		return nil, err
	}
	all = appendNormalized(all, products, baseURL)
	logger.Info("global listing done", "products", len(products),
		"records_from_collections", fromCollections, "records_total", len(all))
	p.notify(Event{Type: EventSourceDone, Source: p.AllItemsLabel, Count: len(products), Total: len(all)})

	unique := Deduplicate(all, p.Keys)
	logger.Info("deduplicated", "before", len(all), "after", len(unique))
	p.notify(Event{Type: EventDeduplicated, Count: len(unique), Total: len(all)})
	return unique, nil
}

// UsableCollections drops collections that claim no products, have no
// handle, or are the built-in "all" collection.
func UsableCollections(in []models.Collection) []models.Collection {
	out := make([]models.Collection, 0, len(in))
	for _, c := range in {
		if c.ProductsCount <= 0 || c.Handle == "" || c.Handle == AllCollectionHandle {
			continue
		}
		out = append(out, c)
	}
	return out
}

func appendNormalized(dst []models.Record, products []models.Product, baseURL string) []models.Record {
	for _, prod := range products {
		dst = append(dst, Normalize(prod, baseURL)...)
	}
	return dst
}

func (p *Pipeline) pause(ctx context.Context) error {
	if p.Paginator != nil && p.Paginator.Pause != nil {
		return p.Paginator.Pause(ctx, p.Delay)
	}
	return Sleep(ctx, p.Delay)
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Pipeline) notify(ev Event) {
	if p.Notify != nil {
		p.Notify(ev)
	}
}
