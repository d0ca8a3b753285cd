package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopikant21/jumbotail/internal/domain"
)

func phone(title, brand string, price, rating float64, stock int) *domain.Product {
	return &domain.Product{
		Title:    title,
		Brand:    brand,
		Category: "Electronics",
		Price:    price,
		Rating:   rating,
		Stock:    stock,
		IsActive: true,
	}
}

func TestStore_AddAssignsMonotonicIDs(t *testing.T) {
	s := NewStore()

	id1, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)
	id2, err := s.Add(phone("Redmi Note", "Xiaomi", 12999, 4.1, 80))
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	// An explicit high id advances the sequence.
	explicit := phone("iPhone 16", "Apple", 79999, 4.7, 10)
	explicit.ID = 100
	id3, err := s.Add(explicit)
	require.NoError(t, err)
	assert.Equal(t, int64(100), id3)

	id4, err := s.Add(phone("Pixel 9", "Google", 69999, 4.4, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(101), id4)
}

func TestStore_AddRejectsInvalidProduct(t *testing.T) {
	s := NewStore()

	_, err := s.Add(&domain.Product{Title: "", Price: 10})
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_AddUpsertReplacesIndexEntries(t *testing.T) {
	s := NewStore()

	first := phone("Galaxy S24", "Samsung", 49999, 4.5, 30)
	id, err := s.Add(first)
	require.NoError(t, err)

	replacement := phone("Redmi Note 13", "Xiaomi", 12999, 4.1, 80)
	replacement.ID = id
	_, err = s.Add(replacement)
	require.NoError(t, err)

	assert.Empty(t, s.TokenPostings("galaxy"))
	assert.Equal(t, []int64{id}, s.TokenPostings("redmi"))
	assert.Equal(t, 1, s.Len())
}

func TestStore_CandidatesTokenUnion(t *testing.T) {
	s := NewStore()

	_, err := s.Add(phone("Samsung Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)
	_, err = s.Add(phone("Samsung Galaxy Tab", "Samsung", 29999, 4.2, 15))
	require.NoError(t, err)
	_, err = s.Add(phone("Sony Bravia TV", "Sony", 59999, 4.6, 8))
	require.NoError(t, err)

	// OR semantics: any token match makes a product a candidate.
	got := s.Candidates([]string{"galaxy", "bravia"}, Filters{})
	assert.Len(t, got, 3)

	got = s.Candidates([]string{"galaxy"}, Filters{})
	assert.Len(t, got, 2)

	got = s.Candidates([]string{"nonexistent"}, Filters{})
	assert.Empty(t, got)
}

func TestStore_CandidatesFilterIntersection(t *testing.T) {
	s := NewStore()

	_, err := s.Add(phone("Samsung Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)
	_, err = s.Add(phone("Samsung Galaxy Tab", "Samsung", 29999, 4.2, 15))
	require.NoError(t, err)
	_, err = s.Add(phone("Sony Bravia TV", "Sony", 59999, 4.6, 8))
	require.NoError(t, err)

	got := s.Candidates([]string{"galaxy", "bravia"}, Filters{Brand: "Samsung"})
	assert.Len(t, got, 2)

	// Filters alone define the candidate set when no tokens are given.
	got = s.Candidates(nil, Filters{Brand: "sony"})
	assert.Len(t, got, 1)

	// No tokens, no filters: every product is a candidate.
	got = s.Candidates(nil, Filters{})
	assert.Len(t, got, 3)
}

func TestStore_CandidatesPriceAndRatingBuckets(t *testing.T) {
	s := NewStore()

	_, err := s.Add(phone("Budget Phone", "Micromax", 899, 3.2, 100))
	require.NoError(t, err)
	_, err = s.Add(phone("Premium Phone", "Samsung", 49999, 4.8, 20))
	require.NoError(t, err)

	got := s.Candidates(nil, Filters{PriceRange: domain.PriceBudget})
	require.Len(t, got, 1)
	assert.Equal(t, "Budget Phone", got[0].Title)

	got = s.Candidates(nil, Filters{RatingRange: domain.RatingExcellent})
	require.Len(t, got, 1)
	assert.Equal(t, "Premium Phone", got[0].Title)
}

func TestStore_MutationsSwapRecordsInsteadOfMutating(t *testing.T) {
	s := NewStore()

	id, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)

	before, err := s.Get(id)
	require.NoError(t, err)

	_, err = s.UpdateMetadata(id, map[string]string{"color": "titanium"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(id))

	// The pointer handed out before the mutations is an untouched snapshot.
	assert.Empty(t, before.Metadata)
	assert.True(t, before.IsActive)
	assert.NotContains(t, before.SearchableText, "titanium")

	after, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "titanium", after.Metadata["color"])
	assert.Contains(t, after.SearchableText, "titanium")
	assert.False(t, after.IsActive)
}

func TestStore_CandidatesStockStatusFilter(t *testing.T) {
	s := NewStore()

	_, err := s.Add(phone("In Stock Phone", "Samsung", 9999, 4.0, 120))
	require.NoError(t, err)
	_, err = s.Add(phone("Last Units Phone", "Samsung", 9999, 4.0, 3))
	require.NoError(t, err)

	got := s.Candidates(nil, Filters{StockStatus: string(domain.StockLow)})
	require.Len(t, got, 1)
	assert.Equal(t, "Last Units Phone", got[0].Title)
}

func TestStore_ByCategoryAndByBrand(t *testing.T) {
	s := NewStore()

	_, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)
	_, err = s.Add(phone("Galaxy Tab", "Samsung", 29999, 4.2, 15))
	require.NoError(t, err)
	shoe := phone("Running Shoes", "Nike", 2999, 4.3, 60)
	shoe.Category = "Fashion"
	_, err = s.Add(shoe)
	require.NoError(t, err)

	got := s.ByCategory("electronics", 0)
	assert.Len(t, got, 2)

	// Results come back in id order and honor the limit.
	got = s.ByBrand("Samsung", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Galaxy S24", got[0].Title)

	assert.Empty(t, s.ByBrand("unknown", 10))
}

func TestStore_UpdateReindexes(t *testing.T) {
	s := NewStore()

	id, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)

	title := "Galaxy Z Fold"
	price := 899.0
	_, err = s.Update(id, domain.ProductPatch{Title: &title, Price: &price})
	require.NoError(t, err)

	assert.Empty(t, s.TokenPostings("s24"))
	assert.Equal(t, []int64{id}, s.TokenPostings("fold"))

	// Price bucket moved from premium to budget.
	got := s.Candidates(nil, Filters{PriceRange: domain.PriceBudget})
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Empty(t, s.Candidates(nil, Filters{PriceRange: domain.PricePremium}))
}

func TestStore_UpdateRejectedLeavesStoreUnchanged(t *testing.T) {
	s := NewStore()

	id, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)

	bad := -5.0
	_, err = s.Update(id, domain.ProductPatch{Price: &bad})
	require.Error(t, err)

	p, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 49999.0, p.Price)
	assert.Equal(t, []int64{id}, s.TokenPostings("galaxy"))
}

func TestStore_UpdateMetadataAffectsTokenIndex(t *testing.T) {
	s := NewStore()

	id, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)

	_, err = s.UpdateMetadata(id, map[string]string{"color": "titanium"})
	require.NoError(t, err)

	assert.Equal(t, []int64{id}, s.TokenPostings("titanium"))
}

func TestStore_SoftDeleteKeepsIndexes(t *testing.T) {
	s := NewStore()

	id, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))

	p, err := s.Get(id)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.True(t, s.ContainsInAnyIndex(id))
}

func TestStore_RemoveLeavesNoIndexEntries(t *testing.T) {
	s := NewStore()

	id, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)
	other, err := s.Add(phone("Redmi Note", "Xiaomi", 12999, 4.1, 80))
	require.NoError(t, err)

	require.NoError(t, s.Remove(id))

	assert.False(t, s.ContainsInAnyIndex(id))
	assert.True(t, s.ContainsInAnyIndex(other))

	_, err = s.Get(id)
	assert.Error(t, err)
}

func TestStore_Suggest(t *testing.T) {
	s := NewStore()

	_, err := s.Add(phone("Samsung Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)
	_, err = s.Add(phone("Samsung Galaxy Tab", "Samsung", 29999, 4.2, 15))
	require.NoError(t, err)
	_, err = s.Add(phone("Samosa Maker", "Prestige", 1499, 4.0, 50))
	require.NoError(t, err)

	got := s.Suggest("sam", 10)
	// "samsung" occurs in two products, "samosa" in one.
	require.NotEmpty(t, got)
	assert.Equal(t, "samsung", got[0])
	assert.Contains(t, got, "samosa")

	assert.Empty(t, s.Suggest("", 10))
	assert.Len(t, s.Suggest("sam", 1), 1)
}

func TestStore_Maxima(t *testing.T) {
	s := NewStore()

	units1, units2 := int64(100), int64(900)
	p1 := phone("A Phone", "A", 1000, 4.0, 10)
	p1.Analytics.UnitsSold = &units1
	p1.RatingCount = 50
	p2 := phone("B Phone", "B", 2000, 4.5, 10)
	p2.Analytics.UnitsSold = &units2
	p2.RatingCount = 500

	_, err := s.Add(p1)
	require.NoError(t, err)
	_, err = s.Add(p2)
	require.NoError(t, err)

	maxUnits, maxRatings := s.Maxima()
	assert.Equal(t, int64(900), maxUnits)
	assert.Equal(t, 500, maxRatings)

	// Mutation invalidates the memoized maxima.
	require.NoError(t, s.Remove(p2.ID))
	maxUnits, maxRatings = s.Maxima()
	assert.Equal(t, int64(100), maxUnits)
	assert.Equal(t, 50, maxRatings)
}

func TestStore_CategoriesAndBrands(t *testing.T) {
	s := NewStore()

	_, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)
	shoe := phone("Running Shoes", "Nike", 2999, 4.3, 60)
	shoe.Category = "Fashion"
	_, err = s.Add(shoe)
	require.NoError(t, err)

	assert.Equal(t, []string{"electronics", "fashion"}, s.Categories())
	assert.Equal(t, []string{"nike", "samsung"}, s.Brands())
}

func TestStore_GetStats(t *testing.T) {
	s := NewStore()

	id, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)
	_, err = s.Add(phone("Redmi Note", "Xiaomi", 12999, 4.1, 80))
	require.NoError(t, err)
	require.NoError(t, s.Delete(id))

	stats := s.GetStats()
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 1, stats.ActiveProducts)
	assert.Greater(t, stats.TokenCount, 0)
	assert.Greater(t, stats.IndexEntries, 0)
	assert.Greater(t, stats.ApproxMemBytes, int64(0))
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()

	_, err := s.Add(phone("Galaxy S24", "Samsung", 49999, 4.5, 30))
	require.NoError(t, err)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Categories())

	// ID sequence restarts after a clear.
	id, err := s.Add(phone("Redmi Note", "Xiaomi", 12999, 4.1, 80))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}
