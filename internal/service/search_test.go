package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopikant21/jumbotail/internal/cache"
	"github.com/gopikant21/jumbotail/internal/catalog"
	"github.com/gopikant21/jumbotail/internal/domain"
	"github.com/gopikant21/jumbotail/internal/normalizer"
	"github.com/gopikant21/jumbotail/internal/ranking"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService() *SearchService {
	return NewSearchService(
		catalog.NewStore(),
		normalizer.New(),
		ranking.NewEngine(),
		cache.New(100, cache.DefaultTTL),
		newTestLogger(),
		"",
		nil,
	)
}

func sampleInput(title, brand, category string, price, rating float64, stock int) ProductInput {
	return ProductInput{
		Title:       title,
		Description: title + " with warranty",
		Brand:       brand,
		Category:    category,
		Price:       price,
		MRP:         price * 1.2,
		Currency:    "INR",
		Rating:      rating,
		RatingCount: 150,
		Stock:       stock,
	}
}

func seedPhones(t *testing.T, svc *SearchService) {
	t.Helper()
	ctx := context.Background()

	inputs := []ProductInput{
		sampleInput("Samsung Galaxy S24", "Samsung", "Electronics", 49999, 4.5, 30),
		sampleInput("Samsung Galaxy M14", "Samsung", "Electronics", 13999, 4.1, 120),
		sampleInput("Xiaomi Redmi Note 13", "Xiaomi", "Electronics", 16999, 4.2, 80),
		sampleInput("Nike Revolution Running Shoes", "Nike", "Fashion", 3499, 4.3, 60),
	}
	result := svc.BulkLoad(ctx, inputs)
	require.Equal(t, len(inputs), result.SuccessCount)
}

func TestSearch_TextQuery(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	resp, err := svc.Search(ctx, SearchParams{Query: "samsung galaxy"})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalResults)
	for _, r := range resp.Data {
		assert.Equal(t, "Samsung", r.Brand)
	}
	assert.Greater(t, resp.Data[0].Score, 0.0)
}

func TestSearch_NormalizesRegionalAndMisspelledTerms(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	// "samsng" corrects to samsung; "sasta" rewrites to cheap, which matches
	// nothing but must not break the query.
	resp, err := svc.Search(ctx, SearchParams{Query: "sasta samsng"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalResults)
}

func TestSearch_ConcurrentWithMetadataUpdates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	id, err := svc.IndexProduct(ctx, sampleInput("Galaxy S24 Ultra", "Samsung", "Electronics", 49999, 4.5, 30))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 300; i++ {
			_, err := svc.UpdateProductMetadata(ctx, id, map[string]string{
				"revision": strconv.Itoa(i),
			})
			assert.NoError(t, err)
		}
	}()

	// Distinct offsets give every search its own cache key, so each one
	// misses the cache and scores the live catalog record.
	for i := 0; i < 300; i++ {
		offset := i
		_, err := svc.Search(ctx, SearchParams{Query: "galaxy", Offset: &offset})
		assert.NoError(t, err)
	}

	wg.Wait()
}

func TestSearch_RegionalTermMatchesCanonicalTitle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.IndexProduct(ctx, sampleInput("Cheap Bluetooth Earphones", "Boat", "Electronics", 499, 3.9, 200))
	require.NoError(t, err)

	resp, err := svc.Search(ctx, SearchParams{Query: "sasta earphones"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalResults)
}

func TestSearch_RepeatQueryIsCachedAndIdentical(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	params := SearchParams{Query: "samsung"}

	first, err := svc.Search(ctx, params)
	require.NoError(t, err)
	second, err := svc.Search(ctx, params)
	require.NoError(t, err)

	// The cached payload is returned as-is, execution time included.
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), svc.cache.Counters().Hits)
}

func TestSearch_CatalogMutationInvalidatesNothingButNewQueriesSeeIt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	_, err := svc.Search(ctx, SearchParams{Query: "samsung"})
	require.NoError(t, err)

	_, err = svc.IndexProduct(ctx, sampleInput("Samsung QLED TV", "Samsung", "Electronics", 59999, 4.6, 12))
	require.NoError(t, err)

	// Same key still serves the cached (now stale) payload until TTL.
	resp, err := svc.Search(ctx, SearchParams{Query: "samsung"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalResults)

	// A different key sees the new product.
	limit := 50
	resp, err = svc.Search(ctx, SearchParams{Query: "samsung", Limit: &limit})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalResults)
}

func TestSearch_Pagination(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	inputs := make([]ProductInput, 0, 50)
	for i := 0; i < 50; i++ {
		inputs = append(inputs, sampleInput("Titan Analog Watch", "Titan", "Fashion", float64(1000+i*10), 4.0, 25))
	}
	require.Equal(t, 50, svc.BulkLoad(ctx, inputs).SuccessCount)

	limit := 20
	offset := 0
	resp, err := svc.Search(ctx, SearchParams{Query: "watch", Limit: &limit, Offset: &offset, SortBy: domain.SortPriceLow})
	require.NoError(t, err)
	assert.Equal(t, 50, resp.TotalResults)
	assert.Len(t, resp.Data, 20)
	assert.True(t, resp.Pagination.HasNext)
	assert.False(t, resp.Pagination.HasPrevious)

	offset = 40
	resp, err = svc.Search(ctx, SearchParams{Query: "watch", Limit: &limit, Offset: &offset, SortBy: domain.SortPriceLow})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 10)
	assert.False(t, resp.Pagination.HasNext)
	assert.True(t, resp.Pagination.HasPrevious)

	// Offset beyond the result set yields an empty page, not an error.
	offset = 500
	resp, err = svc.Search(ctx, SearchParams{Query: "watch", Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
	assert.Equal(t, 50, resp.TotalResults)
}

func TestSearch_Filters(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	resp, err := svc.Search(ctx, SearchParams{Query: "samsung", Brand: "samsung", Category: "ELECTRONICS"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalResults)

	minPrice := 20000.0
	resp, err = svc.Search(ctx, SearchParams{Query: "samsung", MinPrice: &minPrice})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "Samsung Galaxy S24", resp.Data[0].Title)

	minRating := 4.3
	resp, err = svc.Search(ctx, SearchParams{MinRating: &minRating})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalResults)

	resp, err = svc.Search(ctx, SearchParams{PriceRange: domain.PriceEconomy})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "Nike Revolution Running Shoes", resp.Data[0].Title)
}

func TestSearch_InStockFilter(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	in := sampleInput("Available Speaker", "JBL", "Electronics", 2999, 4.0, 10)
	out := sampleInput("Sold Out Speaker", "JBL", "Electronics", 2999, 4.0, 0)
	svc.BulkLoad(ctx, []ProductInput{in, out})

	inStock := true
	resp, err := svc.Search(ctx, SearchParams{Query: "speaker", InStock: &inStock})
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "Available Speaker", resp.Data[0].Title)
}

func TestSearch_SoftDeletedProductsExcluded(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	resp, err := svc.Search(ctx, SearchParams{Query: "xiaomi"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalResults)
	id := resp.Data[0].ID

	require.NoError(t, svc.DeleteProduct(ctx, id))

	limit := 5
	resp, err = svc.Search(ctx, SearchParams{Query: "xiaomi", Limit: &limit})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalResults)
}

func TestSearch_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	badLimit := 101
	_, err := svc.Search(ctx, SearchParams{Limit: &badLimit})
	assert.Error(t, err)

	badOffset := -1
	_, err = svc.Search(ctx, SearchParams{Offset: &badOffset})
	assert.Error(t, err)

	_, err = svc.Search(ctx, SearchParams{SortBy: "price_asc"})
	assert.Error(t, err)

	minPrice, maxPrice := 500.0, 100.0
	_, err = svc.Search(ctx, SearchParams{MinPrice: &minPrice, MaxPrice: &maxPrice})
	assert.Error(t, err)

	badRating := 6.0
	_, err = svc.Search(ctx, SearchParams{MinRating: &badRating})
	assert.Error(t, err)
}

func TestSearch_SortByPrice(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	resp, err := svc.Search(ctx, SearchParams{Query: "samsung xiaomi", SortBy: domain.SortPriceLow})
	require.NoError(t, err)
	require.Equal(t, 3, resp.TotalResults)
	assert.Equal(t, "Samsung Galaxy M14", resp.Data[0].Title)
	assert.Equal(t, "Samsung Galaxy S24", resp.Data[2].Title)
}

func TestSearch_ResultProjection(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	in := sampleInput("Samsung Galaxy S24", "Samsung", "Electronics", 40000, 4.5, 30)
	in.MRP = 50000
	in.Images = []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}
	_, err := svc.IndexProduct(ctx, in)
	require.NoError(t, err)

	resp, err := svc.Search(ctx, SearchParams{Query: "galaxy"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)

	r := resp.Data[0]
	assert.Equal(t, 20, r.Discount)
	assert.Equal(t, string(domain.StockMedium), r.StockStatus)
	assert.Len(t, r.Images, 3, "image list is truncated in the projection")
}

func TestSuggest_NormalizesPrefix(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	got := svc.Suggest(ctx, "sams", 10)
	assert.Contains(t, got, "samsung")
}

func TestSimilarProducts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	resp, err := svc.Search(ctx, SearchParams{Query: "redmi"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalResults)
	id := resp.Data[0].ID

	similar, err := svc.SimilarProducts(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, similar, 2, "same-category products excluding the anchor")
	for _, r := range similar {
		assert.NotEqual(t, id, r.ID)
		assert.Equal(t, "Electronics", r.Category)
	}

	// Unknown id yields an empty result, not an error.
	similar, err = svc.SimilarProducts(ctx, 99999, 10)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestBulkLoad_CountsPerItemFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	inputs := []ProductInput{
		sampleInput("Valid Product", "Boat", "Electronics", 999, 4.0, 50),
		{Title: "", Price: 100}, // invalid: empty title
		sampleInput("Another Valid", "Boat", "Electronics", 1299, 4.1, 40),
	}

	result := svc.BulkLoad(ctx, inputs)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seedPhones(t, svc)

	_, err := svc.Search(ctx, SearchParams{Query: "samsung"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, SearchParams{Query: "samsung"})
	require.NoError(t, err)

	stats := svc.GetStats(ctx)
	assert.Equal(t, 4, stats.TotalProducts)
	assert.Equal(t, 4, stats.ActiveProducts)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, 0.5, stats.CacheHitRate)
	assert.Greater(t, stats.TokenCount, 0)
}

func TestUpdateProduct_ChangesSearchability(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	id, err := svc.IndexProduct(ctx, sampleInput("Old Fashioned Radio", "Philips", "Electronics", 1999, 3.9, 15))
	require.NoError(t, err)

	title := "Bluetooth Speaker Deluxe"
	_, err = svc.UpdateProduct(ctx, id, domain.ProductPatch{Title: &title})
	require.NoError(t, err)

	resp, err := svc.Search(ctx, SearchParams{Query: "bluetooth speaker"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalResults)

	resp, err = svc.Search(ctx, SearchParams{Query: "radio"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalResults)
}
