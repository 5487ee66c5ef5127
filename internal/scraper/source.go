package scraper

import (
	"context"

	"shopscrape/pkg/models"
)

// Catalog is the storefront read API the scraper depends on.
// *storefront.Client implements it.
type Catalog interface {
	BaseURL() string
	Detect(ctx context.Context) bool
	Collections(ctx context.Context) ([]models.Collection, error)
	CollectionProducts(ctx context.Context, handle string, page, limit int) ([]models.Product, error)
	Products(ctx context.Context, page, limit int) ([]models.Product, error)
}

// PageFunc reads one page of a paged product listing.
type PageFunc func(ctx context.Context, page, limit int) ([]models.Product, error)

// Source is one paged product listing. Every product it yields is tagged with
// Label as its category.
type Source struct {
	Name  string
	Label string
	Fetch PageFunc
}

// CollectionSource walks one collection's product listing.
func CollectionSource(cat Catalog, col models.Collection) Source {
	return Source{
		Name:  "collection:" + col.Handle,
		Label: col.Title,
		Fetch: func(ctx context.Context, page, limit int) ([]models.Product, error) {
			return cat.CollectionProducts(ctx, col.Handle, page, limit)
		},
	}
}

// GlobalSource walks the unscoped product listing, which also reaches
// products that belong to no collection.
func GlobalSource(cat Catalog, label string) Source {
	return Source{
		Name:  "all",
		Label: label,
		Fetch: cat.Products,
	}
}
