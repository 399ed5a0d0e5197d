package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/cache"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local, err := cache.NewLocal(context.Background(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	store := newMemStore()
	pub := &recordingPublisher{}
	tiered := cache.NewTiered(local, nil)
	return &fixture{
		store: store,
		pub:   pub,
		cache: tiered,
		query: NewCatalogQueryService(store, store, store, tiered, nil),
		cmd:   NewCatalogCommandService(store, store, store, passTx{}, pub, tiered),
	}
}

func TestListProductsRejectsUnknownSort(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.query.ListProducts(context.Background(), ListProductsQuery{Sort: "popularity"})
	assert.ErrorIs(t, err, domain.ErrInvalidSort)
}

func TestListProductsCapsPageSize(t *testing.T) {
	f := newFixture(t)
	f.store.seed("lavender", 5)

	items, total, err := f.query.ListProducts(context.Background(), ListProductsQuery{Page: 2, Size: 500, Sort: domain.SortRating})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)
	assert.Equal(t, 100, f.store.lastFilter.Limit)
	assert.Equal(t, 100, f.store.lastFilter.Offset)
}

func TestListProductsRejectsInvertedPriceRange(t *testing.T) {
	f := newFixture(t)
	lo, hi := decimal.NewFromInt(30), decimal.NewFromInt(10)
	_, _, err := f.query.ListProducts(context.Background(), ListProductsQuery{MinPrice: &lo, MaxPrice: &hi})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestGetProductBySlugIsCached(t *testing.T) {
	f := newFixture(t)
	f.store.seed("eucalyptus", 3)
	ctx := context.Background()

	first, err := f.query.GetProductBySlug(ctx, "eucalyptus")
	require.NoError(t, err)
	second, err := f.query.GetProductBySlug(ctx, "eucalyptus")
	require.NoError(t, err)

	assert.Equal(t, first.Slug, second.Slug)
	assert.Equal(t, 1, f.store.slugReads)
}

func TestAdjustStockInvalidatesCacheAndLogs(t *testing.T) {
	f := newFixture(t)
	_, v := f.store.seed("rose", 4)
	ctx := context.Background()

	_, err := f.query.GetProductBySlug(ctx, "rose")
	require.NoError(t, err)

	stock, err := f.cmd.AdjustStock(ctx, AdjustStockCommand{VariantID: v.ID, Delta: 6, ActorID: 9})
	require.NoError(t, err)
	assert.Equal(t, 10, stock)

	require.Len(t, f.store.logs, 1)
	assert.Equal(t, 10, f.store.logs[0].StockAfter)
	assert.Equal(t, domain.ReasonAdjustment, f.store.logs[0].Reason)
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, domain.TopicProductStockChanged, f.pub.events[0].topic)

	var cached ProductDetail
	assert.ErrorIs(t, f.cache.GetJSON(ctx, detailKey("rose"), &cached), cache.ErrMiss)
}

func TestAdjustStockNeverGoesNegative(t *testing.T) {
	f := newFixture(t)
	_, v := f.store.seed("cedar", 2)

	_, err := f.cmd.AdjustStock(context.Background(), AdjustStockCommand{VariantID: v.ID, Delta: -3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, f.store.variants[v.ID].Stock)
	assert.Empty(t, f.store.logs)
}

func TestDecrementAndRestoreStock(t *testing.T) {
	f := newFixture(t)
	_, v := f.store.seed("mint", 2)
	ctx := context.Background()

	require.NoError(t, f.cmd.DecrementStock(ctx, v.ID, 2))
	assert.ErrorIs(t, f.cmd.DecrementStock(ctx, v.ID, 1), domain.ErrInsufficientStock)
	require.NoError(t, f.cmd.RestoreStock(ctx, v.ID, 1, domain.ReasonCancel))
	assert.Equal(t, 1, f.store.variants[v.ID].Stock)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cmd.CreateProduct(ctx, CreateProductCommand{
		Slug: "bergamot", Name: "Bergamot", CategorySlug: "oils",
		Variants: []VariantInput{{SKU: "BERG-10", Price: decimal.Zero}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = f.cmd.CreateProduct(ctx, CreateProductCommand{
		Slug: "bergamot", Name: "Bergamot", CategorySlug: "unknown",
		Variants: []VariantInput{{SKU: "BERG-10", Price: decimal.NewFromInt(12)}},
	})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCreateProductPublishesAndLogsInitialStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.cmd.CreateCategory(ctx, "diffusers", "Diffusers")
	require.NoError(t, err)
	_, err = f.cmd.CreateTag(ctx, "calming", "Calming")
	require.NoError(t, err)

	detail, err := f.cmd.CreateProduct(ctx, CreateProductCommand{
		Slug: "stone-diffuser", Name: " Stone Diffuser ", CategorySlug: "diffusers", TagSlugs: []string{"calming"},
		IsActive: true,
		Variants: []VariantInput{{SKU: "dif-stone", Name: "Grey", Price: decimal.RequireFromString("39.999"), Stock: 8, IsActive: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Stone Diffuser", detail.Name)
	assert.Equal(t, []string{"calming"}, detail.Tags)
	require.Len(t, detail.Variants, 1)
	assert.Equal(t, "DIF-STONE", detail.Variants[0].SKU)
	assert.Equal(t, "40", detail.Variants[0].Price.String())
	assert.True(t, detail.InStock)

	require.Len(t, f.store.logs, 1)
	assert.Equal(t, domain.ReasonRestock, f.store.logs[0].Reason)
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, domain.TopicProductCreated, f.pub.events[0].topic)
}
