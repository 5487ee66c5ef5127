package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"shopscrape/pkg/models"
	"shopscrape/pkg/utils"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Column is one output column.
type Column struct {
	Name string
	// Optional columns are dropped when no record has a value for them.
	Optional bool
	Value    func(r models.Record, l models.Labels) string
}

var (
	colName           = Column{Name: "product_name", Value: func(r models.Record, _ models.Labels) string { return r.Name }}
	colSKU            = Column{Name: "sku", Value: func(r models.Record, _ models.Labels) string { return r.SKU }}
	colBarcode        = Column{Name: "barcode", Optional: true, Value: func(r models.Record, _ models.Labels) string { return r.Barcode }}
	colCategory       = Column{Name: "category", Value: func(r models.Record, _ models.Labels) string { return r.Category }}
	colVendor         = Column{Name: "vendor", Optional: true, Value: func(r models.Record, _ models.Labels) string { return r.Vendor }}
	colProductType    = Column{Name: "product_type", Optional: true, Value: func(r models.Record, _ models.Labels) string { return r.ProductType }}
	colPrice          = Column{Name: "price", Value: func(r models.Record, _ models.Labels) string { return r.Price }}
	colCompareAtPrice = Column{Name: "compare_at_price", Value: func(r models.Record, _ models.Labels) string { return r.CompareAtPrice }}
	colStockStatus    = Column{Name: "stock_status", Value: func(r models.Record, l models.Labels) string { return l.Stock(r.Availability) }}
	colURL            = Column{Name: "product_url", Value: func(r models.Record, _ models.Labels) string { return r.URL }}
)

// Profile returns the declared column set of a profile, in output order.
func Profile(name string) ([]Column, error) {
	switch name {
	case utils.ProfileFull:
		return []Column{colName, colSKU, colBarcode, colCategory, colVendor, colProductType,
			colPrice, colCompareAtPrice, colStockStatus, colURL}, nil
	case utils.ProfileBasic:
		return []Column{colName, colSKU, colCategory, colPrice, colCompareAtPrice, colURL}, nil
	default:
		return nil, fmt.Errorf("unknown column profile %q", name)
	}
}

// Columns narrows a profile to the columns the records actually carry.
func Columns(profile []Column, records []models.Record, labels models.Labels) []Column {
	out := make([]Column, 0, len(profile))
	for _, c := range profile {
		if c.Optional && !anyValue(c, records, labels) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func anyValue(c Column, records []models.Record, labels models.Labels) bool {
	for _, r := range records {
		if c.Value(r, labels) != "" {
			return true
		}
	}
	return false
}

// WriteCSV writes a UTF-8 BOM, a header row and one row per record.
func WriteCSV(w io.Writer, cols []Column, records []models.Record, labels models.Labels) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(cols))
	for _, r := range records {
		for i, c := range cols {
			row[i] = c.Value(r, labels)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path. The file only appears once it has been
// written completely.
func WriteFile(path string, cols []Column, records []models.Record, labels models.Labels) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".shopscrape-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, cols, records, labels); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-.]`)

// Filename derives "<host>_products.csv" from a site base URL.
func Filename(baseURL string) string {
	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return unsafeFilenameChars.ReplaceAllString(host, "_") + "_products.csv"
}
