package domain

import (
	"strconv"
	"strings"
)

// Sort options for search results.
const (
	SortRelevance  = "relevance"
	SortPriceLow   = "price_low"
	SortPriceHigh  = "price_high"
	SortRating     = "rating"
	SortPopularity = "popularity"
	SortNewest     = "newest"
)

// ValidSortOptions returns the list of valid sort options.
func ValidSortOptions() []string {
	return []string{SortRelevance, SortPriceLow, SortPriceHigh, SortRating, SortPopularity, SortNewest}
}

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	for _, s := range ValidSortOptions() {
		if s == sort {
			return true
		}
	}
	return false
}

// Pagination bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SearchQuery is the normalized, validated projection of raw search
// parameters. It is immutable once constructed.
type SearchQuery struct {
	Terms       []string `json:"terms"`
	RawQuery    string   `json:"raw_query"`
	Limit       int      `json:"limit"`
	Offset      int      `json:"offset"`
	SortBy      string   `json:"sort_by"`
	Category    string   `json:"category,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	MinRating   *float64 `json:"min_rating,omitempty"`
	InStock     *bool    `json:"in_stock,omitempty"`
	PriceRange  string   `json:"price_range,omitempty"`
	RatingRange string   `json:"rating_range,omitempty"`
}

// CacheKey returns a deterministic encoding of every field that affects
// search output. Two queries with equal keys produce identical responses
// against an unchanged catalog.
func (q *SearchQuery) CacheKey() string {
	var b strings.Builder

	b.WriteString("q=")
	b.WriteString(strings.Join(q.Terms, "+"))
	b.WriteString("|limit=")
	b.WriteString(strconv.Itoa(q.Limit))
	b.WriteString("|offset=")
	b.WriteString(strconv.Itoa(q.Offset))
	b.WriteString("|sort=")
	b.WriteString(q.SortBy)
	b.WriteString("|cat=")
	b.WriteString(strings.ToLower(q.Category))
	b.WriteString("|brand=")
	b.WriteString(strings.ToLower(q.Brand))

	b.WriteString("|minp=")
	if q.MinPrice != nil {
		b.WriteString(FormatPrice(*q.MinPrice))
	}
	b.WriteString("|maxp=")
	if q.MaxPrice != nil {
		b.WriteString(FormatPrice(*q.MaxPrice))
	}
	b.WriteString("|minr=")
	if q.MinRating != nil {
		b.WriteString(FormatPrice(*q.MinRating))
	}
	b.WriteString("|stock=")
	if q.InStock != nil {
		b.WriteString(strconv.FormatBool(*q.InStock))
	}
	b.WriteString("|pr=")
	b.WriteString(q.PriceRange)
	b.WriteString("|rr=")
	b.WriteString(q.RatingRange)

	return b.String()
}
