package scraper

import (
	"strings"

	"shopscrape/pkg/models"
)

// Normalize flattens one product into records: one per variant in source
// order, or a single record with empty codes and unknown stock when the
// product has no variants.
func Normalize(p models.Product, baseURL string) []models.Record {
	base := models.Record{
		ProductID:   p.ID.String(),
		Name:        p.Title,
		Category:    p.Category,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		URL:         productURL(baseURL, p.Handle),
	}

	if len(p.Variants) == 0 {
		return []models.Record{base}
	}

	out := make([]models.Record, 0, len(p.Variants))
	for _, v := range p.Variants {
		r := base
		r.Name = variantName(p.Title, v.Title)
		r.SKU = v.SKU.String()
		r.Barcode = v.Barcode.String()
		r.Price = v.Price.String()
		r.CompareAtPrice = v.CompareAtPrice.String()
		r.Availability = models.AvailabilityOf(v.Available)
		out = append(out, r)
	}
	return out
}

func variantName(title, variant string) string {
	if variant == "" || variant == models.DefaultVariantTitle {
		return title
	}
	return title + " - " + variant
}

func productURL(baseURL, handle string) string {
	return strings.TrimRight(baseURL, "/") + "/products/" + handle
}
