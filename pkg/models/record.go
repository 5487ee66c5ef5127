package models

// Availability is the tri-state stock flag of a variant.
type Availability int

const (
	Unknown Availability = iota // source omitted the flag
	InStock
	SoldOut
)

// AvailabilityOf maps the raw variant flag onto the tri-state.
func AvailabilityOf(available *bool) Availability {
	switch {
	case available == nil:
		return Unknown
	case *available:
		return InStock
	default:
		return SoldOut
	}
}

func (a Availability) String() string {
	switch a {
	case InStock:
		return "in_stock"
	case SoldOut:
		return "sold_out"
	default:
		return "unknown"
	}
}

func (a Availability) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Availability) UnmarshalText(b []byte) error {
	*a = ParseAvailability(string(b))
	return nil
}

// ParseAvailability is the inverse of String. Unrecognised values map to Unknown.
func ParseAvailability(s string) Availability {
	switch s {
	case "in_stock":
		return InStock
	case "sold_out":
		return SoldOut
	default:
		return Unknown
	}
}

// Record is one flat output row: exactly one per variant, or one per product
// without variants.
type Record struct {
	ProductID      string       `json:"product_id"`
	Name           string       `json:"product_name"`
	SKU            string       `json:"sku"`
	Barcode        string       `json:"barcode,omitempty"`
	Category       string       `json:"category"`
	Vendor         string       `json:"vendor,omitempty"`
	ProductType    string       `json:"product_type,omitempty"`
	Price          string       `json:"price"`
	CompareAtPrice string       `json:"compare_at_price"`
	Availability   Availability `json:"stock_status"`
	URL            string       `json:"product_url"`
}
