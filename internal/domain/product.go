package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/gopikant21/jumbotail/pkg/errors"
)

// StockStatus is the discretized availability of a product, derived from the
// raw stock count at fixed thresholds (0 / 10 / 50).
type StockStatus string

const (
	StockOut    StockStatus = "OUT_OF_STOCK"
	StockLow    StockStatus = "LOW_STOCK"
	StockMedium StockStatus = "MEDIUM_STOCK"
	StockHigh   StockStatus = "HIGH_STOCK"
)

// StockStatusFor maps a raw stock count to its status bucket.
func StockStatusFor(stock int) StockStatus {
	switch {
	case stock <= 0:
		return StockOut
	case stock <= 10:
		return StockLow
	case stock <= 50:
		return StockMedium
	default:
		return StockHigh
	}
}

// Price range buckets used as secondary index keys.
const (
	PriceBudget  = "budget"  // < 1,000
	PriceEconomy = "economy" // < 5,000
	PriceMid     = "mid"     // < 15,000
	PricePremium = "premium" // < 50,000
	PriceLuxury  = "luxury"  // >= 50,000
)

// PriceBucketFor maps a price to its range bucket.
func PriceBucketFor(price float64) string {
	switch {
	case price < 1000:
		return PriceBudget
	case price < 5000:
		return PriceEconomy
	case price < 15000:
		return PriceMid
	case price < 50000:
		return PricePremium
	default:
		return PriceLuxury
	}
}

// Rating range buckets used as secondary index keys.
const (
	RatingPoor      = "poor"      // < 2
	RatingAverage   = "average"   // < 3
	RatingGood      = "good"      // < 4
	RatingExcellent = "excellent" // <= 5
)

// RatingBucketFor maps a rating to its range bucket.
func RatingBucketFor(rating float64) string {
	switch {
	case rating < 2:
		return RatingPoor
	case rating < 3:
		return RatingAverage
	case rating < 4:
		return RatingGood
	default:
		return RatingExcellent
	}
}

// Analytics holds optional business signals attached to a product. Absent
// fields are resolved to named defaults once, at score-computation entry,
// via WithDefaults.
type Analytics struct {
	UnitsSold    *int64   `json:"units_sold,omitempty"`
	ReturnRate   *float64 `json:"return_rate,omitempty"`
	ProfitMargin *float64 `json:"profit_margin,omitempty"`
	IsTrending   bool     `json:"is_trending"`
	IsOnSale     bool     `json:"is_on_sale"`
}

// ResolvedAnalytics is Analytics with all defaults applied.
type ResolvedAnalytics struct {
	UnitsSold    int64
	ReturnRate   float64
	ProfitMargin float64
	IsTrending   bool
	IsOnSale     bool
}

// Default analytics values substituted for absent fields at scoring time.
const (
	DefaultReturnRate   = 0.1
	DefaultProfitMargin = 0.2
)

// WithDefaults resolves absent analytics fields to their named defaults.
func (a Analytics) WithDefaults() ResolvedAnalytics {
	r := ResolvedAnalytics{
		ReturnRate:   DefaultReturnRate,
		ProfitMargin: DefaultProfitMargin,
		IsTrending:   a.IsTrending,
		IsOnSale:     a.IsOnSale,
	}
	if a.UnitsSold != nil {
		r.UnitsSold = *a.UnitsSold
	}
	if a.ReturnRate != nil {
		r.ReturnRate = *a.ReturnRate
	}
	if a.ProfitMargin != nil {
		r.ProfitMargin = *a.ProfitMargin
	}
	return r
}

// Product is the authoritative catalog record.
type Product struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory"`
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	Price       float64           `json:"price"`
	MRP         float64           `json:"mrp"`
	Currency    string            `json:"currency"`
	Rating      float64           `json:"rating"`
	RatingCount int               `json:"rating_count"`
	Stock       int               `json:"stock"`
	IsActive    bool              `json:"is_active"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Analytics   Analytics         `json:"analytics"`
	Tags        []string          `json:"tags,omitempty"`
	Images      []string          `json:"images,omitempty"`

	// SearchableText is derived from the text-bearing fields and must be
	// recomputed whenever any of them changes.
	SearchableText string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the product invariants. It returns an InvalidInput
// AppError naming the first violated field.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return apperrors.InvalidInput("product title must not be empty")
	}
	if p.Price <= 0 {
		return apperrors.InvalidInput("product price must be positive")
	}
	if p.MRP != 0 && p.MRP < p.Price {
		return apperrors.InvalidInput("product mrp must not be below price")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return apperrors.InvalidInput("product rating must be between 0 and 5")
	}
	if p.RatingCount < 0 {
		return apperrors.InvalidInput("product rating count must not be negative")
	}
	if p.Stock < 0 {
		return apperrors.InvalidInput("product stock must not be negative")
	}
	return nil
}

// StockStatus returns the derived availability bucket.
func (p *Product) StockStatus() StockStatus {
	return StockStatusFor(p.Stock)
}

// PriceBucket returns the derived price range bucket.
func (p *Product) PriceBucket() string {
	return PriceBucketFor(p.Price)
}

// RatingBucket returns the derived rating range bucket.
func (p *Product) RatingBucket() string {
	return RatingBucketFor(p.Rating)
}

// Discount returns the discount percentage implied by MRP vs price,
// rounded to the nearest integer. A product without an MRP (or with
// MRP <= price) has no discount.
func (p *Product) Discount() int {
	if p.MRP <= 0 || p.Price <= 0 || p.MRP <= p.Price {
		return 0
	}
	return int(math.Round((p.MRP - p.Price) / p.MRP * 100))
}

// RecomputeSearchableText rebuilds the derived search text from every
// text-bearing field. Metadata values are appended in key order so the
// result is deterministic.
func (p *Product) RecomputeSearchableText() {
	parts := make([]string, 0, 8+len(p.Tags)+len(p.Metadata))
	parts = append(parts, p.Title, p.Description, p.Brand, p.Model, p.Category, p.Subcategory)
	parts = append(parts, p.Tags...)

	if len(p.Metadata) > 0 {
		keys := make([]string, 0, len(p.Metadata))
		for k := range p.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, p.Metadata[k])
		}
	}

	p.SearchableText = strings.ToLower(strings.Join(parts, " "))
}

// Clone returns a deep copy of the product.
func (p *Product) Clone() *Product {
	cp := *p
	if p.Metadata != nil {
		cp.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Images = append([]string(nil), p.Images...)
	if p.Analytics.UnitsSold != nil {
		v := *p.Analytics.UnitsSold
		cp.Analytics.UnitsSold = &v
	}
	if p.Analytics.ReturnRate != nil {
		v := *p.Analytics.ReturnRate
		cp.Analytics.ReturnRate = &v
	}
	if p.Analytics.ProfitMargin != nil {
		v := *p.Analytics.ProfitMargin
		cp.Analytics.ProfitMargin = &v
	}
	return &cp
}

// ProductPatch carries a partial update. Nil fields are left unchanged.
type ProductPatch struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Subcategory *string            `json:"subcategory,omitempty"`
	Brand       *string            `json:"brand,omitempty"`
	Model       *string            `json:"model,omitempty"`
	Price       *float64           `json:"price,omitempty"`
	MRP         *float64           `json:"mrp,omitempty"`
	Currency    *string            `json:"currency,omitempty"`
	Rating      *float64           `json:"rating,omitempty"`
	RatingCount *int               `json:"rating_count,omitempty"`
	Stock       *int               `json:"stock,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
	Analytics   *Analytics         `json:"analytics,omitempty"`
	Tags        *[]string          `json:"tags,omitempty"`
	Images      *[]string          `json:"images,omitempty"`
}

// Apply merges the patch into the product and recomputes derived state.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Subcategory != nil {
		p.Subcategory = *patch.Subcategory
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Model != nil {
		p.Model = *patch.Model
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.MRP != nil {
		p.MRP = *patch.MRP
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.RatingCount != nil {
		p.RatingCount = *patch.RatingCount
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.Metadata != nil {
		if p.Metadata == nil {
			p.Metadata = make(map[string]string, len(patch.Metadata))
		}
		for k, v := range patch.Metadata {
			p.Metadata[k] = v
		}
	}
	if patch.Analytics != nil {
		p.Analytics = *patch.Analytics
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}

	p.RecomputeSearchableText()
	p.UpdatedAt = time.Now().UTC()
}

// FormatPrice renders a price for cache keys and logs without float noise.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
