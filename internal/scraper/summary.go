package scraper

import (
	"strings"

	"github.com/shopspring/decimal"

	"shopscrape/pkg/models"
)

// Summarize computes run statistics from deduplicated records. Prices that
// do not parse as decimals are ignored for the price range and sale count.
func Summarize(records []models.Record) models.Summary {
	s := models.Summary{Records: len(records)}

	products := make(map[string]struct{})
	categories := make(map[string]struct{})
	var minPrice, maxPrice decimal.Decimal
	seenPrice := false

	for _, r := range records {
		products[r.ProductID] = struct{}{}
		for _, c := range splitCategories(r.Category) {
			categories[c] = struct{}{}
		}

		switch r.Availability {
		case models.InStock:
			s.InStock++
		case models.SoldOut:
			s.SoldOut++
		default:
			s.Unknown++
		}

		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			continue
		}
		if !seenPrice || price.LessThan(minPrice) {
			minPrice = price
		}
		if !seenPrice || price.GreaterThan(maxPrice) {
			maxPrice = price
		}
		seenPrice = true

		if compare, err := decimal.NewFromString(r.CompareAtPrice); err == nil && compare.GreaterThan(price) {
			s.OnSale++
		}
	}

	s.Products = len(products)
	s.Categories = len(categories)
	if seenPrice {
		s.MinPrice = minPrice.StringFixed(2)
		s.MaxPrice = maxPrice.StringFixed(2)
	}
	return s
}

func splitCategories(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(s, CategorySeparator) {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
