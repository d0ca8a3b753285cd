package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gopikant21/jumbotail/internal/catalog"
	"github.com/gopikant21/jumbotail/internal/domain"
	"github.com/gopikant21/jumbotail/internal/ranking"
	apperrors "github.com/gopikant21/jumbotail/pkg/errors"
)

// ProductInput holds the parameters for indexing one product. It is shared
// by the HTTP index endpoints, the bulk loader, the event consumer, and the
// seed generator.
type ProductInput struct {
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
	IsActive    *bool             `json:"is_active,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Analytics   *domain.Analytics `json:"analytics,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Images      []string          `json:"images,omitempty"`
}

// toProduct builds a catalog record from the input. Products default to
// active; derived fields are computed by the store on insert.
func (in ProductInput) toProduct() *domain.Product {
	p := &domain.Product{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Brand:       in.Brand,
		Model:       in.Model,
		Price:       in.Price,
		MRP:         in.MRP,
		Currency:    in.Currency,
		Rating:      in.Rating,
		RatingCount: in.RatingCount,
		Stock:       in.Stock,
		IsActive:    true,
		Metadata:    in.Metadata,
		Tags:        in.Tags,
		Images:      in.Images,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Analytics != nil {
		p.Analytics = *in.Analytics
	}
	return p
}

// IndexProduct adds (or replaces) a single product in the catalog.
func (s *SearchService) IndexProduct(ctx context.Context, input ProductInput) (int64, error) {
	id, err := s.store.Add(input.toProduct())
	if err != nil {
		return 0, apperrors.Wrap(err, "index product")
	}

	indexedProducts.Set(float64(s.store.Len()))

	s.logger.InfoContext(ctx, "product indexed",
		slog.Int64("product_id", id),
		slog.String("title", input.Title),
	)
	return id, nil
}

// UpdateProduct merges a partial update into an existing product.
func (s *SearchService) UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error) {
	p, err := s.store.Update(id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.Int64("product_id", id),
	)
	return p, nil
}

// UpdateProductMetadata merges attribute entries into a product's metadata.
func (s *SearchService) UpdateProductMetadata(ctx context.Context, id int64, metadata map[string]string) (*domain.Product, error) {
	p, err := s.store.UpdateMetadata(id, metadata)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product metadata updated",
		slog.Int64("product_id", id),
		slog.Int("keys", len(metadata)),
	)
	return p, nil
}

// DeleteProduct soft-deletes a product: it stays indexed but stops matching
// searches.
func (s *SearchService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product soft-deleted",
		slog.Int64("product_id", id),
	)
	return nil
}

// RemoveProduct hard-deletes a product from the catalog and every index.
// Used when the upstream catalog reports the product gone.
func (s *SearchService) RemoveProduct(ctx context.Context, id int64) error {
	if err := s.store.Remove(id); err != nil {
		return err
	}
	indexedProducts.Set(float64(s.store.Len()))

	s.logger.InfoContext(ctx, "product removed from catalog",
		slog.Int64("product_id", id),
	)
	return nil
}

// BulkLoadResult reports the outcome of a bulk load. Per-item failures are
// counted, never fatal to the batch.
type BulkLoadResult struct {
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
}

// BulkLoad indexes a batch of products, tolerating per-item failures.
func (s *SearchService) BulkLoad(ctx context.Context, inputs []ProductInput) BulkLoadResult {
	var result BulkLoadResult
	for i := range inputs {
		if _, err := s.store.Add(inputs[i].toProduct()); err != nil {
			result.ErrorCount++
			continue
		}
		result.SuccessCount++
	}
	indexedProducts.Set(float64(s.store.Len()))

	s.logger.InfoContext(ctx, "bulk load completed",
		slog.Int("success", result.SuccessCount),
		slog.Int("errors", result.ErrorCount),
	)
	return result
}

// Suggest returns autocomplete suggestions for the prefix, drawn from the
// indexed token vocabulary and ranked by frequency across catalog fields.
func (s *SearchService) Suggest(ctx context.Context, prefix string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	return s.store.Suggest(s.norm.Normalize(prefix), limit)
}

// SimilarProducts returns up to limit active products from the same
// category, ranked by their query-independent score. A missing product id
// yields an empty result set, not an error.
func (s *SearchService) SimilarProducts(ctx context.Context, id int64, limit int) ([]ProductResult, error) {
	if limit <= 0 {
		limit = 10
	}

	p, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return []ProductResult{}, nil
		}
		return nil, err
	}

	candidates := s.store.Candidates(nil, catalog.Filters{Category: p.Category})
	maxUnits, maxRatings := s.store.Maxima()

	scored := make([]ranking.Scored, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == id || !c.IsActive {
			continue
		}
		scored = append(scored, ranking.Scored{
			Product: c,
			Score:   s.ranker.Score(c, nil, maxUnits, maxRatings),
		})
	}

	ranking.Sort(scored, domain.SortRelevance)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]ProductResult, 0, len(scored))
	for _, m := range scored {
		out = append(out, projectResult(m.Product, m.Score))
	}
	return out, nil
}

// Categories returns all indexed categories, sorted.
func (s *SearchService) Categories(ctx context.Context) []string {
	return s.store.Categories()
}

// Brands returns all indexed brands, sorted.
func (s *SearchService) Brands(ctx context.Context) []string {
	return s.store.Brands()
}

// ServiceStats aggregates catalog and cache observability counters.
type ServiceStats struct {
	TotalProducts     int     `json:"total_products"`
	ActiveProducts    int     `json:"active_products"`
	TokenCount        int     `json:"token_count"`
	TotalIndexEntries int     `json:"total_index_entries"`
	ApproxMemBytes    int64   `json:"approx_memory_bytes"`
	CacheHits         int64   `json:"cache_hits"`
	CacheMisses       int64   `json:"cache_misses"`
	CacheEvictions    int64   `json:"cache_evictions"`
	CacheSize         int     `json:"cache_size"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
}

// GetStats reports catalog size, index footprint, and cache effectiveness.
func (s *SearchService) GetStats(ctx context.Context) ServiceStats {
	cs := s.store.GetStats()
	cc := s.cache.Counters()

	return ServiceStats{
		TotalProducts:     cs.TotalProducts,
		ActiveProducts:    cs.ActiveProducts,
		TokenCount:        cs.TokenCount,
		TotalIndexEntries: cs.IndexEntries,
		ApproxMemBytes:    cs.ApproxMemBytes,
		CacheHits:         cc.Hits,
		CacheMisses:       cc.Misses,
		CacheEvictions:    cc.Evictions,
		CacheSize:         cc.Size,
		CacheHitRate:      cc.HitRate(),
	}
}
