package scraper

import (
	"fmt"
	"strings"

	"shopscrape/pkg/models"
)

// CategorySeparator joins the categories of a record seen in several sources.
const CategorySeparator = "; "

// KeyFields selects which variant codes join the product id in the identity
// key of a record.
type KeyFields struct {
	SKU     bool
	Barcode bool
}

// ParseKeyFields builds KeyFields from names such as ["sku", "barcode"].
func ParseKeyFields(names []string) (KeyFields, error) {
	var k KeyFields
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "sku":
			k.SKU = true
		case "barcode":
			k.Barcode = true
		case "":
		default:
			return KeyFields{}, fmt.Errorf("unknown identity field %q", n)
		}
	}
	return k, nil
}

type recordKey struct {
	productID string
	sku       string
	barcode   string
}

func (k KeyFields) key(r models.Record) recordKey {
	key := recordKey{productID: r.ProductID}
	if k.SKU {
		key.sku = r.SKU
	}
	if k.Barcode {
		key.barcode = r.Barcode
	}
	return key
}

// Deduplicate keeps the first record seen for each identity key, in
// first-seen order. Later duplicates only contribute their category label;
// their prices and stock are discarded.
func Deduplicate(records []models.Record, keys KeyFields) []models.Record {
	out := make([]models.Record, 0, len(records))
	index := make(map[recordKey]int, len(records))

	for _, r := range records {
		k := keys.key(r)
		if i, ok := index[k]; ok {
			out[i].Category = mergeCategory(out[i].Category, r.Category)
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// mergeCategory appends incoming unless it is empty or already occurs
// anywhere in existing. The check is a substring match, so "Shirts" is
// absorbed by "T-Shirts".
func mergeCategory(existing, incoming string) string {
	if incoming == "" || strings.Contains(existing, incoming) {
		return existing
	}
	return existing + CategorySeparator + incoming
}
