// Package http exposes the search and catalog maintenance API over HTTP.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gopikant21/jumbotail/internal/domain"
	"github.com/gopikant21/jumbotail/internal/service"
	"github.com/gopikant21/jumbotail/pkg/httputil"
	"github.com/gopikant21/jumbotail/pkg/validator"
)

// SearchHandler handles HTTP requests for search and catalog endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger

	// baseCtx parents background work spawned by handlers so it is
	// cancelled on application shutdown rather than outliving it.
	baseCtx context.Context
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(baseCtx context.Context, svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// --- Request DTOs ---

// IndexProductRequest is the JSON request body for indexing a product.
type IndexProductRequest struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title" validate:"required,min=1"`
	Description string            `json:"description"`
	Category    string            `json:"category" validate:"required,min=1"`
	Subcategory string            `json:"subcategory"`
	Brand       string            `json:"brand"`
	Model       string            `json:"model"`
	Price       float64           `json:"price" validate:"gt=0"`
	MRP         float64           `json:"mrp"`
	Currency    string            `json:"currency"`
	Rating      float64           `json:"rating" validate:"gte=0,lte=5"`
	RatingCount int               `json:"rating_count" validate:"gte=0"`
	Stock       int               `json:"stock" validate:"gte=0"`
	IsActive    *bool             `json:"is_active,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Analytics   *domain.Analytics `json:"analytics,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Images      []string          `json:"images,omitempty"`
}

// BulkIndexRequest is the JSON request body for bulk indexing products.
type BulkIndexRequest struct {
	Products []IndexProductRequest `json:"products" validate:"required,min=1,max=500,dive"`
}

func (req IndexProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Brand:       req.Brand,
		Model:       req.Model,
		Price:       req.Price,
		MRP:         req.MRP,
		Currency:    req.Currency,
		Rating:      req.Rating,
		RatingCount: req.RatingCount,
		Stock:       req.Stock,
		IsActive:    req.IsActive,
		Metadata:    req.Metadata,
		Analytics:   req.Analytics,
		Tags:        req.Tags,
		Images:      req.Images,
	}
}

// --- Handlers ---

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := service.SearchParams{
		Query:       strings.TrimSpace(q.Get("q")),
		SortBy:      q.Get("sort"),
		Category:    q.Get("category"),
		Brand:       q.Get("brand"),
		PriceRange:  q.Get("price_range"),
		RatingRange: q.Get("rating_range"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeInvalidParam(w, "limit must be a valid integer")
			return
		}
		params.Limit = &n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeInvalidParam(w, "offset must be a valid integer")
			return
		}
		params.Offset = &n
	}
	if v := q.Get("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeInvalidParam(w, "min_price must be a valid number")
			return
		}
		params.MinPrice = &f
	}
	if v := q.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeInvalidParam(w, "max_price must be a valid number")
			return
		}
		params.MaxPrice = &f
	}
	if v := q.Get("min_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeInvalidParam(w, "min_rating must be a valid number")
			return
		}
		params.MinRating = &f
	}
	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeInvalidParam(w, "in_stock must be true or false")
			return
		}
		params.InStock = &b
	}

	result, err := h.service.Search(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Suggest handles GET /api/v1/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	if prefix == "" {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": []string{}}})
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 20 {
			limit = l
		}
	}

	suggestions := h.service.Suggest(r.Context(), prefix, limit)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": suggestions}})
}

// Categories handles GET /api/v1/categories
func (h *SearchHandler) Categories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"categories": h.service.Categories(r.Context())},
	})
}

// Brands handles GET /api/v1/brands
func (h *SearchHandler) Brands(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"brands": h.service.Brands(r.Context())},
	})
}

// Stats handles GET /api/v1/search/stats
func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.GetStats(r.Context())})
}

// Similar handles GET /api/v1/products/{id}/similar
func (h *SearchHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	results, err := h.service.SimilarProducts(r.Context(), id, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"products": results}})
}

// IndexProduct handles POST /api/v1/products
func (h *SearchHandler) IndexProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req IndexProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	id, err := h.service.IndexProduct(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: map[string]any{"id": id, "status": "indexed"}})
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *SearchHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var patch domain.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// UpdateMetadata handles PATCH /api/v1/products/{id}/metadata
func (h *SearchHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var metadata map[string]string
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	if len(metadata) == 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "metadata must not be empty"},
		})
		return
	}

	p, err := h.service.UpdateProductMetadata(r.Context(), id, metadata)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// DeleteProduct handles DELETE /api/v1/products/{id}. The product is
// soft-deleted; ?hard=true removes it from the catalog entirely.
func (h *SearchHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var err error
	if hard, _ := strconv.ParseBool(r.URL.Query().Get("hard")); hard {
		err = h.service.RemoveProduct(r.Context(), id)
	} else {
		err = h.service.DeleteProduct(r.Context(), id)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"id": id, "status": "deleted"}})
}

// BulkIndex handles POST /api/v1/products/bulk
func (h *SearchHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20) // 10MB limit for bulk endpoint

	var req BulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	inputs := make([]service.ProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		inputs = append(inputs, p.toInput())
	}

	result := h.service.BulkLoad(r.Context(), inputs)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Reindex handles POST /api/v1/search/reindex. The rebuild runs in the
// background, detached from the request but tied to application shutdown.
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	go func() {
		if _, err := h.service.Reindex(h.baseCtx); err != nil {
			h.logger.ErrorContext(h.baseCtx, "background reindex failed", "error", err)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}

func writeInvalidParam(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}
