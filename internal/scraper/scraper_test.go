package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopscrape/pkg/models"
)

func shirtsCatalog() *fakeCatalog {
	yes, no := true, false
	tee := models.Product{ID: "1", Title: "Tee", Handle: "tee", Variants: []models.Variant{
		{SKU: "T-S", Title: "S", Price: "10.00", Available: &yes},
		{SKU: "T-M", Title: "M", Price: "10.00", Available: &no},
	}}
	card := models.Product{ID: "2", Title: "Card", Handle: "card"}
	return &fakeCatalog{
		base:        "https://shop.example",
		detect:      true,
		collections: []models.Collection{{Handle: "shirts", Title: "Shirts", ProductsCount: 2}},
		byHandle: map[string]*pagedSource{
			"shirts": {pages: [][]models.Product{{tee, card}}},
		},
		global: &pagedSource{pages: [][]models.Product{{tee, card}}},
	}
}

func newPipeline(cat Catalog) *Pipeline {
	return &Pipeline{
		Catalog:       cat,
		Paginator:     &Paginator{PageSize: 250, Pause: noPause, Logger: quietLogger()},
		Keys:          KeyFields{SKU: true},
		AllItemsLabel: "All Items",
		Logger:        quietLogger(),
	}
}

func TestCollectShirtsScenario(t *testing.T) {
	got, err := newPipeline(shirtsCatalog()).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	names := []string{got[0].Name, got[1].Name, got[2].Name}
	assert.Equal(t, []string{"Tee - S", "Tee - M", "Card"}, names)
	for _, r := range got {
		assert.Equal(t, "Shirts; All Items", r.Category)
	}
	assert.Equal(t, models.InStock, got[0].Availability)
	assert.Equal(t, models.SoldOut, got[1].Availability)

	assert.Equal(t, "2", got[2].ProductID)
	assert.Empty(t, got[2].SKU)
	assert.Empty(t, got[2].Price)
	assert.Equal(t, models.Unknown, got[2].Availability)
	assert.Equal(t, "https://shop.example/products/card", got[2].URL)
}

func TestCollectGlobalOnlyProductsKeepAllItemsLabel(t *testing.T) {
	cat := shirtsCatalog()
	cat.global.pages[0] = append(cat.global.pages[0], models.Product{ID: "9", Title: "Gift Card", Handle: "gift-card"})

	got, err := newPipeline(cat).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Gift Card", got[3].Name)
	assert.Equal(t, "All Items", got[3].Category)
}

func TestCollectSkipsUnusableCollections(t *testing.T) {
	cat := shirtsCatalog()
	cat.collections = append(cat.collections,
		models.Collection{Handle: "empty", Title: "Empty", ProductsCount: 0},
		models.Collection{Handle: "all", Title: "All", ProductsCount: 3},
		models.Collection{Handle: "", Title: "Broken", ProductsCount: 1},
	)

	_, err := newPipeline(cat).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cat.byHandle["shirts"].calls)
}

func TestCollectFailedCollectionIsSkipped(t *testing.T) {
	cat := shirtsCatalog()
	cat.collections = append([]models.Collection{{Handle: "gone", Title: "Gone", ProductsCount: 5}}, cat.collections...)

	got, err := newPipeline(cat).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCollectNoCollections(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		cat := shirtsCatalog()
		cat.collections = nil
		_, err := newPipeline(cat).Collect(context.Background())
		assert.ErrorIs(t, err, ErrNoCollections)
		assert.Empty(t, cat.global.calls, "global listing is not walked")
	})

	t.Run("only empty collections", func(t *testing.T) {
		cat := shirtsCatalog()
		cat.collections = []models.Collection{{Handle: "x", Title: "X"}}
		_, err := newPipeline(cat).Collect(context.Background())
		assert.ErrorIs(t, err, ErrNoCollections)
	})

	t.Run("discovery failed", func(t *testing.T) {
		cat := shirtsCatalog()
		cat.collErr = errors.New("status 500")
		_, err := newPipeline(cat).Collect(context.Background())
		assert.ErrorIs(t, err, ErrNoCollections)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestCollectPausesAfterEachCollection(t *testing.T) {
	cat := shirtsCatalog()
	cat.collections = append(cat.collections, models.Collection{Handle: "hats", Title: "Hats", ProductsCount: 1})
	cat.byHandle["hats"] = &pagedSource{pages: [][]models.Product{makeProducts("hat", 1)}}

	pl := newPipeline(cat)
	var pauses int
	pl.Paginator.Pause = func(ctx context.Context, _ time.Duration) error {
		pauses++
		return nil
	}

	_, err := pl.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pauses, "one per collection; short pages do not pause")
}

func TestCollectEvents(t *testing.T) {
	pl := newPipeline(shirtsCatalog())
	var types []string
	pl.Notify = func(ev Event) { types = append(types, ev.Type) }

	_, err := pl.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{EventCollections, EventSourceDone, EventSourceDone, EventDeduplicated}, types)
}
