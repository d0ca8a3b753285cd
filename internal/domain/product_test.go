package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockStatusFor(t *testing.T) {
	assert.Equal(t, StockOut, StockStatusFor(0))
	assert.Equal(t, StockOut, StockStatusFor(-3))
	assert.Equal(t, StockLow, StockStatusFor(1))
	assert.Equal(t, StockLow, StockStatusFor(10))
	assert.Equal(t, StockMedium, StockStatusFor(11))
	assert.Equal(t, StockMedium, StockStatusFor(50))
	assert.Equal(t, StockHigh, StockStatusFor(51))
}

func TestPriceBucketFor(t *testing.T) {
	assert.Equal(t, PriceBudget, PriceBucketFor(999))
	assert.Equal(t, PriceEconomy, PriceBucketFor(1000))
	assert.Equal(t, PriceEconomy, PriceBucketFor(4999))
	assert.Equal(t, PriceMid, PriceBucketFor(5000))
	assert.Equal(t, PricePremium, PriceBucketFor(15000))
	assert.Equal(t, PriceLuxury, PriceBucketFor(50000))
}

func TestRatingBucketFor(t *testing.T) {
	assert.Equal(t, RatingPoor, RatingBucketFor(1.9))
	assert.Equal(t, RatingAverage, RatingBucketFor(2))
	assert.Equal(t, RatingGood, RatingBucketFor(3.5))
	assert.Equal(t, RatingExcellent, RatingBucketFor(4))
	assert.Equal(t, RatingExcellent, RatingBucketFor(5))
}

func TestProduct_Discount(t *testing.T) {
	p := &Product{Price: 45000, MRP: 50000}
	assert.Equal(t, 10, p.Discount())

	p = &Product{Price: 100, MRP: 0}
	assert.Equal(t, 0, p.Discount())

	p = &Product{Price: 100, MRP: 100}
	assert.Equal(t, 0, p.Discount())

	// 1/3 off rounds to 33.
	p = &Product{Price: 200, MRP: 300}
	assert.Equal(t, 33, p.Discount())
}

func TestProduct_Validate(t *testing.T) {
	valid := Product{Title: "Galaxy S24", Price: 49999, MRP: 54999, Rating: 4.3}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *Product)
	}{
		{"empty title", func(p *Product) { p.Title = "  " }},
		{"zero price", func(p *Product) { p.Price = 0 }},
		{"mrp below price", func(p *Product) { p.MRP = p.Price - 1 }},
		{"rating above 5", func(p *Product) { p.Rating = 5.1 }},
		{"negative rating count", func(p *Product) { p.RatingCount = -1 }},
		{"negative stock", func(p *Product) { p.Stock = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestAnalytics_WithDefaults(t *testing.T) {
	r := Analytics{}.WithDefaults()
	assert.Equal(t, int64(0), r.UnitsSold)
	assert.Equal(t, DefaultReturnRate, r.ReturnRate)
	assert.Equal(t, DefaultProfitMargin, r.ProfitMargin)

	units := int64(1200)
	margin := 0.42
	r = Analytics{UnitsSold: &units, ProfitMargin: &margin, IsTrending: true}.WithDefaults()
	assert.Equal(t, int64(1200), r.UnitsSold)
	assert.Equal(t, 0.42, r.ProfitMargin)
	assert.Equal(t, DefaultReturnRate, r.ReturnRate)
	assert.True(t, r.IsTrending)
}

func TestProduct_RecomputeSearchableText(t *testing.T) {
	p := &Product{
		Title:       "Galaxy S24 Ultra",
		Description: "Flagship smartphone",
		Brand:       "Samsung",
		Category:    "Electronics",
		Tags:        []string{"bestseller"},
		Metadata:    map[string]string{"color": "Titanium Black", "asin": "B0XYZ"},
	}
	p.RecomputeSearchableText()

	assert.Contains(t, p.SearchableText, "galaxy s24 ultra")
	assert.Contains(t, p.SearchableText, "samsung")
	assert.Contains(t, p.SearchableText, "bestseller")
	// Metadata values appear in key order: asin before color.
	assert.Contains(t, p.SearchableText, "b0xyz titanium black")
}

func TestProduct_Clone_IsDeep(t *testing.T) {
	units := int64(10)
	p := &Product{
		Title:     "Original",
		Price:     100,
		Metadata:  map[string]string{"color": "red"},
		Tags:      []string{"a"},
		Analytics: Analytics{UnitsSold: &units},
	}

	cp := p.Clone()
	cp.Metadata["color"] = "blue"
	cp.Tags[0] = "b"
	*cp.Analytics.UnitsSold = 99

	assert.Equal(t, "red", p.Metadata["color"])
	assert.Equal(t, "a", p.Tags[0])
	assert.Equal(t, int64(10), *p.Analytics.UnitsSold)
}

func TestProductPatch_Apply(t *testing.T) {
	p := &Product{Title: "Old Title", Price: 100, Stock: 5, Metadata: map[string]string{"color": "red"}}

	title := "New Title"
	stock := 0
	patch := ProductPatch{
		Title:    &title,
		Stock:    &stock,
		Metadata: map[string]string{"size": "XL"},
	}
	patch.Apply(p)

	assert.Equal(t, "New Title", p.Title)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, float64(100), p.Price)
	// Metadata merges rather than replaces.
	assert.Equal(t, "red", p.Metadata["color"])
	assert.Equal(t, "XL", p.Metadata["size"])
	assert.Contains(t, p.SearchableText, "new title")
}
