// Package service implements the search orchestrator: the single entry point
// external callers use for catalog search, suggestions, and catalog
// maintenance operations.
package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gopikant21/jumbotail/internal/cache"
	"github.com/gopikant21/jumbotail/internal/catalog"
	"github.com/gopikant21/jumbotail/internal/domain"
	"github.com/gopikant21/jumbotail/internal/normalizer"
	"github.com/gopikant21/jumbotail/internal/ranking"
	apperrors "github.com/gopikant21/jumbotail/pkg/errors"
)

var (
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_request_duration_seconds",
		Help:    "End-to-end search execution time in seconds (cache misses only)",
		Buckets: prometheus.DefBuckets,
	})

	indexedProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "search_indexed_products",
		Help: "Current number of products in the catalog, active or not",
	})
)

// maxResultImages bounds the image list in the public result projection.
const maxResultImages = 3

// SearchService orchestrates the catalog store, query normalizer, ranking
// engine, and result cache behind the public search operations.
type SearchService struct {
	store  *catalog.Store
	norm   *normalizer.Normalizer
	ranker *ranking.Engine
	cache  *cache.ResultCache
	logger *slog.Logger

	feedURL string
	feed    FeedClient
}

// NewSearchService creates a search service. feedURL and feed may be empty
// when the deployment has no upstream product feed to reindex from.
func NewSearchService(
	store *catalog.Store,
	norm *normalizer.Normalizer,
	ranker *ranking.Engine,
	resultCache *cache.ResultCache,
	logger *slog.Logger,
	feedURL string,
	feed FeedClient,
) *SearchService {
	return &SearchService{
		store:   store,
		norm:    norm,
		ranker:  ranker,
		cache:   resultCache,
		logger:  logger,
		feedURL: feedURL,
		feed:    feed,
	}
}

// SearchParams is the raw, already-sanitized query-parameter object supplied
// by the transport collaborator.
type SearchParams struct {
	Query       string
	Limit       *int
	Offset      *int
	SortBy      string
	Category    string
	Brand       string
	MinPrice    *float64
	MaxPrice    *float64
	MinRating   *float64
	InStock     *bool
	PriceRange  string
	RatingRange string
}

// ProductResult is the public projection of a matched product.
type ProductResult struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Brand       string            `json:"brand,omitempty"`
	Category    string            `json:"category,omitempty"`
	Price       float64           `json:"price"`
	MRP         float64           `json:"mrp,omitempty"`
	Discount    int               `json:"discount"`
	Currency    string            `json:"currency,omitempty"`
	Rating      float64           `json:"rating"`
	RatingCount int               `json:"rating_count"`
	StockStatus string            `json:"stock_status"`
	Images      []string          `json:"images"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Score       float64           `json:"score"`
}

// AppliedFilters echoes the non-text filters that shaped the result set.
type AppliedFilters struct {
	Category    string   `json:"category,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	MinRating   *float64 `json:"min_rating,omitempty"`
	InStock     *bool    `json:"in_stock,omitempty"`
	PriceRange  string   `json:"price_range,omitempty"`
	RatingRange string   `json:"rating_range,omitempty"`
}

// Pagination describes the returned slice of the full result set.
type Pagination struct {
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// SearchResponse is the complete, cacheable response payload.
type SearchResponse struct {
	Data            []ProductResult `json:"data"`
	TotalResults    int             `json:"total_results"`
	Query           string          `json:"query"`
	Filters         AppliedFilters  `json:"filters"`
	Pagination      Pagination      `json:"pagination"`
	SortBy          string          `json:"sort_by"`
	ExecutionTimeMs float64         `json:"execution_time_ms"`
}

// buildQuery validates the raw parameters and constructs the immutable
// normalized SearchQuery.
func (s *SearchService) buildQuery(params SearchParams) (*domain.SearchQuery, error) {
	limit := domain.DefaultLimit
	if params.Limit != nil {
		limit = *params.Limit
		if limit < 1 || limit > domain.MaxLimit {
			return nil, apperrors.InvalidInput("limit must be between 1 and 100")
		}
	}

	offset := 0
	if params.Offset != nil {
		offset = *params.Offset
		if offset < 0 {
			return nil, apperrors.InvalidInput("offset must not be negative")
		}
	}

	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = domain.SortRelevance
	}
	if !domain.IsValidSort(sortBy) {
		return nil, apperrors.InvalidInput("unknown sort option: " + sortBy)
	}

	if params.MinPrice != nil && *params.MinPrice < 0 {
		return nil, apperrors.InvalidInput("min_price must not be negative")
	}
	if params.MaxPrice != nil && *params.MaxPrice < 0 {
		return nil, apperrors.InvalidInput("max_price must not be negative")
	}
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return nil, apperrors.InvalidInput("min_price must not exceed max_price")
	}
	if params.MinRating != nil && (*params.MinRating < 0 || *params.MinRating > 5) {
		return nil, apperrors.InvalidInput("min_rating must be between 0 and 5")
	}

	return &domain.SearchQuery{
		Terms:       s.norm.Terms(params.Query),
		RawQuery:    params.Query,
		Limit:       limit,
		Offset:      offset,
		SortBy:      sortBy,
		Category:    params.Category,
		Brand:       params.Brand,
		MinPrice:    params.MinPrice,
		MaxPrice:    params.MaxPrice,
		MinRating:   params.MinRating,
		InStock:     params.InStock,
		PriceRange:  params.PriceRange,
		RatingRange: params.RatingRange,
	}, nil
}

// Search executes the full pipeline: normalize, cache lookup, candidate
// retrieval, filter, score, sort, paginate, project, cache store.
func (s *SearchService) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	start := time.Now()

	query, err := s.buildQuery(params)
	if err != nil {
		return nil, err
	}

	key := query.CacheKey()
	if v, ok := s.cache.Get(key); ok {
		if resp, ok := v.(*SearchResponse); ok {
			s.logger.DebugContext(ctx, "search served from cache",
				slog.String("query", query.RawQuery),
			)
			return resp, nil
		}
	}

	candidates := s.store.Candidates(query.Terms, catalog.Filters{
		PriceRange:  query.PriceRange,
		RatingRange: query.RatingRange,
	})

	matched := make([]ranking.Scored, 0, len(candidates))
	maxUnits, maxRatings := s.store.Maxima()
	for _, p := range candidates {
		if !matchesFilters(p, query) {
			continue
		}
		matched = append(matched, ranking.Scored{
			Product: p,
			Score:   s.ranker.Score(p, query.Terms, maxUnits, maxRatings),
		})
	}

	ranking.Sort(matched, query.SortBy)

	total := len(matched)
	startIdx := query.Offset
	if startIdx > total {
		startIdx = total
	}
	endIdx := startIdx + query.Limit
	if endIdx > total {
		endIdx = total
	}

	data := make([]ProductResult, 0, endIdx-startIdx)
	for _, m := range matched[startIdx:endIdx] {
		data = append(data, projectResult(m.Product, m.Score))
	}

	elapsed := time.Since(start)
	searchDuration.Observe(elapsed.Seconds())

	resp := &SearchResponse{
		Data:         data,
		TotalResults: total,
		Query:        query.RawQuery,
		Filters: AppliedFilters{
			Category:    query.Category,
			Brand:       query.Brand,
			MinPrice:    query.MinPrice,
			MaxPrice:    query.MaxPrice,
			MinRating:   query.MinRating,
			InStock:     query.InStock,
			PriceRange:  query.PriceRange,
			RatingRange: query.RatingRange,
		},
		Pagination: Pagination{
			Limit:       query.Limit,
			Offset:      query.Offset,
			HasNext:     query.Offset+query.Limit < total,
			HasPrevious: query.Offset > 0,
		},
		SortBy:          query.SortBy,
		ExecutionTimeMs: math.Round(float64(elapsed.Microseconds())/10) / 100,
	}

	s.cache.Put(key, resp)

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", query.RawQuery),
		slog.Int("total", total),
		slog.Duration("took", elapsed),
	)

	return resp, nil
}

// matchesFilters applies the exact-match, non-text predicate pass. Inactive
// products never match: soft-deleted records stay indexed but are filtered
// here at the store boundary.
func matchesFilters(p *domain.Product, q *domain.SearchQuery) bool {
	if !p.IsActive {
		return false
	}
	if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	if q.Brand != "" && !strings.EqualFold(p.Brand, q.Brand) {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.MinRating != nil && p.Rating < *q.MinRating {
		return false
	}
	if q.InStock != nil && *q.InStock && p.Stock <= 0 {
		return false
	}
	if q.PriceRange != "" && p.PriceBucket() != q.PriceRange {
		return false
	}
	if q.RatingRange != "" && p.RatingBucket() != q.RatingRange {
		return false
	}
	return true
}

// projectResult maps a product to its public result projection. Applied
// uniformly to every result; there is exactly one projection path.
func projectResult(p *domain.Product, score float64) ProductResult {
	images := p.Images
	if len(images) > maxResultImages {
		images = images[:maxResultImages]
	}
	if images == nil {
		images = []string{}
	}

	return ProductResult{
		ID:          p.ID,
		Title:       p.Title,
		Brand:       p.Brand,
		Category:    p.Category,
		Price:       p.Price,
		MRP:         p.MRP,
		Discount:    p.Discount(),
		Currency:    p.Currency,
		Rating:      p.Rating,
		RatingCount: p.RatingCount,
		StockStatus: string(p.StockStatus()),
		Images:      images,
		Metadata:    p.Metadata,
		Tags:        p.Tags,
		Score:       math.Round(score*10000) / 10000,
	}
}
