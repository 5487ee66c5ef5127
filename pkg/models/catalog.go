package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultVariantTitle is the label the storefront gives the only variant of a
// product that has no options. It is never appended to a record name.
const DefaultVariantTitle = "Default Title"

// Collection is one grouping listed by /collections.json.
type Collection struct {
	Handle        string `json:"handle"`
	Title         string `json:"title"`
	ProductsCount int    `json:"products_count"`
}

// Product is a catalog entry as returned by the products endpoints.
//
// Category is not part of the payload: it is the label of the source that
// produced the product and is set during acquisition.
type Product struct {
	ID          Text      `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	Vendor      string    `json:"vendor,omitempty"`
	ProductType string    `json:"product_type,omitempty"`
	Variants    []Variant `json:"variants"`
	Category    string    `json:"-"`
}

// Variant belongs to exactly one Product. Available is nil when the source
// omitted the field.
type Variant struct {
	SKU            Text   `json:"sku"`
	Barcode        Text   `json:"barcode,omitempty"`
	Title          string `json:"title"`
	Price          Text   `json:"price"`
	CompareAtPrice Text   `json:"compare_at_price"`
	Available      *bool  `json:"available,omitempty"`
}

// Text decodes a JSON string, number or null into a plain string. Storefronts
// are inconsistent about quoting ids, prices and codes.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	// booleans and anything else scalar are kept verbatim
	*t = Text(strings.Trim(string(b), `"`))
	return nil
}

func (t Text) String() string { return string(t) }
