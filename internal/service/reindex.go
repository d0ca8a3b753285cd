package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/gopikant21/jumbotail/pkg/errors"
)

// reindexPageSize is the page size requested from the upstream product feed.
const reindexPageSize = 100

// FeedClient fetches pages from the upstream product feed. Satisfied by
// httpclient.CircuitBreakerClient.
type FeedClient interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// feedPage is one page of the upstream product feed response.
type feedPage struct {
	Data       []ProductInput `json:"data"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// ReindexResult reports the outcome of a full reindex.
type ReindexResult struct {
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
	Pages        int `json:"pages"`
}

// Reindex rebuilds the catalog from the upstream product feed. The store and
// result cache are cleared once the first page arrives, so a feed that is
// down leaves the current catalog untouched.
func (s *SearchService) Reindex(ctx context.Context) (*ReindexResult, error) {
	if s.feed == nil || s.feedURL == "" {
		return nil, apperrors.InvalidInput("no product feed configured")
	}

	var result ReindexResult
	for page := 1; ; page++ {
		fp, err := s.fetchFeedPage(ctx, page)
		if err != nil {
			return nil, err
		}

		if page == 1 {
			s.store.Clear()
			s.cache.Clear()
		}

		r := s.BulkLoad(ctx, fp.Data)
		result.SuccessCount += r.SuccessCount
		result.ErrorCount += r.ErrorCount
		result.Pages = page

		if page >= fp.TotalPages || len(fp.Data) == 0 {
			break
		}
	}

	s.logger.InfoContext(ctx, "reindex completed",
		slog.Int("pages", result.Pages),
		slog.Int("success", result.SuccessCount),
		slog.Int("errors", result.ErrorCount),
	)
	return &result, nil
}

func (s *SearchService) fetchFeedPage(ctx context.Context, page int) (*feedPage, error) {
	url := fmt.Sprintf("%s/api/v1/products?page=%d&per_page=%d", s.feedURL, page, reindexPageSize)

	resp, err := s.feed.Get(ctx, url)
	if err != nil {
		return nil, apperrors.Wrap(err, "fetch product feed page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Internal(fmt.Errorf("product feed returned status %d", resp.StatusCode))
	}

	var fp feedPage
	if err := json.NewDecoder(resp.Body).Decode(&fp); err != nil {
		return nil, apperrors.Wrap(err, "decode product feed page")
	}
	return &fp, nil
}
