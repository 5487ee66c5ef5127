package scraper

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopscrape/pkg/models"
)

func rec(id, sku, barcode, category, price string) models.Record {
	return models.Record{ProductID: id, SKU: sku, Barcode: barcode, Category: category, Price: price}
}

func TestDeduplicateMergesCategoriesFirstWins(t *testing.T) {
	in := []models.Record{
		rec("1", "A", "", "Shirts", "10.00"),
		rec("2", "B", "", "Shirts", "20.00"),
		rec("1", "A", "", "Sale", "8.00"),
		rec("1", "A", "", "All Items", "8.00"),
		rec("3", "C", "", "All Items", "30.00"),
	}

	got := Deduplicate(in, KeyFields{SKU: true})
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ProductID)
	assert.Equal(t, "Shirts; Sale; All Items", got[0].Category)
	assert.Equal(t, "10.00", got[0].Price, "later duplicates do not overwrite fields")
	assert.Equal(t, "2", got[1].ProductID)
	assert.Equal(t, "3", got[2].ProductID)
}

func TestDeduplicateDoesNotRepeatLabel(t *testing.T) {
	in := []models.Record{
		rec("1", "A", "", "Shirts", ""),
		rec("1", "A", "", "Shirts", ""),
		rec("1", "A", "", "", ""),
	}
	got := Deduplicate(in, KeyFields{SKU: true})
	require.Len(t, got, 1)
	assert.Equal(t, "Shirts", got[0].Category)
}

func TestDeduplicateLabelMatchIsSubstring(t *testing.T) {
	cases := map[string]struct {
		first, later string
		want         string
	}{
		"contained label is absorbed":  {"T-Shirts", "Shirts", "T-Shirts"},
		"containing label is appended": {"Shirts", "T-Shirts", "Shirts; T-Shirts"},
		"empty stored label":           {"", "Sale", "; Sale"},
		"empty incoming label":         {"Hats", "", "Hats"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := Deduplicate([]models.Record{
				rec("1", "A", "", tc.first, ""),
				rec("1", "A", "", tc.later, ""),
			}, KeyFields{SKU: true})
			require.Len(t, got, 1)
			assert.Equal(t, tc.want, got[0].Category)
		})
	}
}

func TestDeduplicateKeyFields(t *testing.T) {
	in := []models.Record{
		rec("1", "A", "111", "X", ""),
		rec("1", "A", "222", "Y", ""),
		rec("1", "B", "111", "Z", ""),
	}

	assert.Len(t, Deduplicate(in, KeyFields{}), 1, "product id only")
	assert.Len(t, Deduplicate(in, KeyFields{SKU: true}), 2)
	assert.Len(t, Deduplicate(in, KeyFields{SKU: true, Barcode: true}), 3)
}

func TestDeduplicateEmptySKUStillKeyedByProduct(t *testing.T) {
	in := []models.Record{
		rec("1", "", "", "Shirts", ""),
		rec("2", "", "", "Shirts", ""),
		rec("1", "", "", "All Items", ""),
	}
	got := Deduplicate(in, KeyFields{SKU: true})
	require.Len(t, got, 2)
	assert.Equal(t, "Shirts; All Items", got[0].Category)
}

func TestParseKeyFields(t *testing.T) {
	k, err := ParseKeyFields([]string{"SKU", " barcode "})
	require.NoError(t, err)
	assert.Equal(t, KeyFields{SKU: true, Barcode: true}, k)

	k, err = ParseKeyFields(nil)
	require.NoError(t, err)
	assert.Equal(t, KeyFields{}, k)

	_, err = ParseKeyFields([]string{"gtin"})
	assert.Error(t, err)
}

func genRecords() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(
		gen.IntRange(1, 5),
		gen.OneConstOf("", "A", "B"),
		gen.OneConstOf("Shirts", "Hats", "Sale", "All Items", ""),
	).Map(func(v []any) models.Record {
		return models.Record{
			ProductID: string(rune('0' + v[0].(int))),
			SKU:       v[1].(string),
			Category:  v[2].(string),
		}
	}))
}

func TestDeduplicateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	keys := KeyFields{SKU: true}

	properties.Property("deduplicating twice changes nothing", prop.ForAll(
		func(in []models.Record) bool {
			once := Deduplicate(in, keys)
			twice := Deduplicate(once, keys)
			if len(once) != len(twice) {
				return false
			}
			for i := range once {
				if once[i] != twice[i] {
					return false
				}
			}
			return true
		},
		genRecords(),
	))

	properties.Property("output keys are unique and cover the input", prop.ForAll(
		func(in []models.Record) bool {
			out := Deduplicate(in, keys)
			seen := map[recordKey]bool{}
			for _, r := range out {
				k := keys.key(r)
				if seen[k] {
					return false
				}
				seen[k] = true
			}
			for _, r := range in {
				if !seen[keys.key(r)] {
					return false
				}
			}
			return len(out) <= len(in)
		},
		genRecords(),
	))

	properties.TestingRun(t)
}
