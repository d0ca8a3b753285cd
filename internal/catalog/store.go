// Package catalog owns the authoritative product map and the six secondary
// indexes used for candidate lookup. Every mutation runs as one write-locked
// unit so a reader never observes a product present in the primary map but
// partially indexed. Stored records are never mutated in place: updates swap
// in a clone, so product pointers handed out by lookups stay stable snapshots
// even after the read lock is released.
package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gopikant21/jumbotail/internal/domain"
	"github.com/gopikant21/jumbotail/internal/normalizer"
	apperrors "github.com/gopikant21/jumbotail/pkg/errors"
)

// idSet is a posting list: the set of product ids under one index key.
type idSet map[int64]struct{}

// index is one secondary index: key -> posting list. Empty key entries are
// removed so no orphaned keys accumulate.
type index map[string]idSet

func (ix index) add(key string, id int64) {
	if key == "" {
		return
	}
	set, ok := ix[key]
	if !ok {
		set = make(idSet)
		ix[key] = set
	}
	set[id] = struct{}{}
}

func (ix index) remove(key string, id int64) {
	if key == "" {
		return
	}
	if set, ok := ix[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(ix, key)
		}
	}
}

func (ix index) entryCount() int {
	n := 0
	for _, set := range ix {
		n += len(set)
	}
	return n
}

// Filters narrows a candidate lookup to specific secondary-index keys.
// Empty fields are ignored.
type Filters struct {
	Category    string
	Brand       string
	PriceRange  string
	RatingRange string
	StockStatus string
}

// Stats reports catalog size and index footprint.
type Stats struct {
	TotalProducts  int   `json:"total_products"`
	ActiveProducts int   `json:"active_products"`
	TokenCount     int   `json:"token_count"`
	IndexEntries   int   `json:"index_entries"`
	ApproxMemBytes int64 `json:"approx_memory_bytes"`
}

// Store is the in-process catalog: a primary product map plus six secondary
// indexes (token, category, brand, price bucket, rating bucket, stock status).
type Store struct {
	mu sync.RWMutex

	nextID   int64
	products map[int64]*domain.Product

	tokens     index
	categories index
	brands     index
	prices     index
	ratings    index
	stock      index

	// Catalog-wide maxima used by popularity scoring, memoized and
	// invalidated on any mutation.
	maxUnitsSold   int64
	maxRatingCount int
	maximaValid    bool
}

// NewStore creates an empty catalog store.
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.nextID = 0
	s.products = make(map[int64]*domain.Product)
	s.tokens = make(index)
	s.categories = make(index)
	s.brands = make(index)
	s.prices = make(index)
	s.ratings = make(index)
	s.stock = make(index)
	s.maximaValid = false
}

// indexProduct inserts the product into every secondary index derived from
// its current field values. Caller holds the write lock.
func (s *Store) indexProduct(p *domain.Product) {
	for _, tok := range normalizer.Tokenize(p.SearchableText) {
		s.tokens.add(tok, p.ID)
	}
	s.categories.add(strings.ToLower(p.Category), p.ID)
	s.brands.add(strings.ToLower(p.Brand), p.ID)
	s.prices.add(p.PriceBucket(), p.ID)
	s.ratings.add(p.RatingBucket(), p.ID)
	s.stock.add(string(p.StockStatus()), p.ID)
}

// deindexProduct removes the product from every secondary index keyed by its
// current field values. Caller holds the write lock.
func (s *Store) deindexProduct(p *domain.Product) {
	for _, tok := range normalizer.Tokenize(p.SearchableText) {
		s.tokens.remove(tok, p.ID)
	}
	s.categories.remove(strings.ToLower(p.Category), p.ID)
	s.brands.remove(strings.ToLower(p.Brand), p.ID)
	s.prices.remove(p.PriceBucket(), p.ID)
	s.ratings.remove(p.RatingBucket(), p.ID)
	s.stock.remove(string(p.StockStatus()), p.ID)
}

// Add validates and inserts a product, assigning a monotonic id when none
// is supplied. Re-adding an existing id replaces the previous record
// (de-indexing its prior state first).
func (s *Store) Add(p *domain.Product) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		s.nextID++
		p.ID = s.nextID
	} else if p.ID > s.nextID {
		s.nextID = p.ID
	}

	if prev, ok := s.products[p.ID]; ok {
		s.deindexProduct(prev)
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.RecomputeSearchableText()

	s.products[p.ID] = p
	s.indexProduct(p)
	s.maximaValid = false

	return p.ID, nil
}

// Get returns the product with the given id.
func (s *Store) Get(id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return p, nil
}

// Update merges a partial update into an existing product. The product is
// removed from all indexes keyed by its prior values, the patch is applied,
// derived fields are recomputed, and the product is re-indexed. The merged
// result is validated before any index is touched, so a rejected update
// leaves the store unchanged.
func (s *Store) Update(id int64, patch domain.ProductPatch) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}

	merged := p.Clone()
	patch.Apply(merged)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	s.deindexProduct(p)
	s.products[id] = merged
	s.indexProduct(merged)
	s.maximaValid = false

	return merged, nil
}

// UpdateMetadata merges attribute entries into the product's metadata map.
// Metadata only contributes to searchable text, so only the token index is
// de-indexed and re-indexed. The stored record is replaced by a merged clone;
// readers holding the prior pointer keep a fully consistent snapshot.
func (s *Store) UpdateMetadata(id int64, metadata map[string]string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}

	merged := p.Clone()
	if merged.Metadata == nil {
		merged.Metadata = make(map[string]string, len(metadata))
	}
	for k, v := range metadata {
		merged.Metadata[k] = v
	}
	merged.RecomputeSearchableText()
	merged.UpdatedAt = time.Now().UTC()

	for _, tok := range normalizer.Tokenize(p.SearchableText) {
		s.tokens.remove(tok, p.ID)
	}
	s.products[id] = merged
	for _, tok := range normalizer.Tokenize(merged.SearchableText) {
		s.tokens.add(tok, merged.ID)
	}
	s.maximaValid = false

	return merged, nil
}

// Delete soft-deletes a product: IsActive is cleared and every index entry
// stays in place. Filtering on active status is the caller's concern. The
// stored record is swapped for an inactive clone rather than flipped in place
// so unlocked readers never see a torn write.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return apperrors.NotFound("product", id)
	}

	deleted := p.Clone()
	deleted.IsActive = false
	deleted.UpdatedAt = time.Now().UTC()
	s.products[id] = deleted
	return nil
}

// Remove hard-deletes a product: it is taken out of the primary map and
// every index bucket it populated, leaving no dangling ids.
func (s *Store) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return apperrors.NotFound("product", id)
	}
	s.deindexProduct(p)
	delete(s.products, id)
	s.maximaValid = false
	return nil
}

// Candidates returns the products matching any of the given tokens (OR
// semantics across terms, to maximize recall; precision is recovered by
// ranking), intersected with whichever secondary-index filters are supplied.
// With no tokens, the filter intersection alone defines the candidate set;
// with neither tokens nor filters, every product is a candidate.
func (s *Store) Candidates(tokens []string, f Filters) []*domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates idSet

	if len(tokens) > 0 {
		candidates = make(idSet)
		for _, tok := range tokens {
			for id := range s.tokens[tok] {
				candidates[id] = struct{}{}
			}
		}
	}

	for _, sel := range []struct {
		ix  index
		key string
	}{
		{s.categories, strings.ToLower(f.Category)},
		{s.brands, strings.ToLower(f.Brand)},
		{s.prices, f.PriceRange},
		{s.ratings, f.RatingRange},
		{s.stock, f.StockStatus},
	} {
		if sel.key == "" {
			continue
		}
		set := sel.ix[sel.key]
		if candidates == nil {
			candidates = make(idSet, len(set))
			for id := range set {
				candidates[id] = struct{}{}
			}
			continue
		}
		for id := range candidates {
			if _, ok := set[id]; !ok {
				delete(candidates, id)
			}
		}
	}

	if candidates == nil {
		out := make([]*domain.Product, 0, len(s.products))
		for _, p := range s.products {
			out = append(out, p)
		}
		return out
	}

	out := make([]*domain.Product, 0, len(candidates))
	for id := range candidates {
		out = append(out, s.products[id])
	}
	return out
}

// ByCategory returns up to limit products in the given category.
func (s *Store) ByCategory(category string, limit int) []*domain.Product {
	return s.byIndex(s.categories, strings.ToLower(category), limit)
}

// ByBrand returns up to limit products of the given brand.
func (s *Store) ByBrand(brand string, limit int) []*domain.Product {
	return s.byIndex(s.brands, strings.ToLower(brand), limit)
}

func (s *Store) byIndex(ix index, key string, limit int) []*domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := ix[key]
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.products[id])
	}
	return out
}

// Categories returns all category index keys, sorted lexicographically.
func (s *Store) Categories() []string {
	return s.indexKeys(s.categories)
}

// Brands returns all brand index keys, sorted lexicographically.
func (s *Store) Brands() []string {
	return s.indexKeys(s.brands)
}

func (s *Store) indexKeys(ix index) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(ix))
	for k := range ix {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Suggest returns up to limit indexed tokens with the given prefix, ranked
// by frequency of occurrence across catalog fields (posting-list size),
// ties broken lexicographically for determinism.
func (s *Store) Suggest(prefix string, limit int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return []string{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type candidate struct {
		token string
		freq  int
	}
	matches := make([]candidate, 0, 16)
	for tok, set := range s.tokens {
		if strings.HasPrefix(tok, prefix) {
			matches = append(matches, candidate{token: tok, freq: len(set)})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].freq != matches[j].freq {
			return matches[i].freq > matches[j].freq
		}
		return matches[i].token < matches[j].token
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.token
	}
	return out
}

// Maxima returns the catalog-wide maximum units sold and rating count,
// recomputing them only when a mutation has invalidated the memoized values.
func (s *Store) Maxima() (maxUnitsSold int64, maxRatingCount int) {
	s.mu.RLock()
	if s.maximaValid {
		defer s.mu.RUnlock()
		return s.maxUnitsSold, s.maxRatingCount
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maximaValid {
		return s.maxUnitsSold, s.maxRatingCount
	}

	s.maxUnitsSold = 0
	s.maxRatingCount = 0
	for _, p := range s.products {
		a := p.Analytics.WithDefaults()
		if a.UnitsSold > s.maxUnitsSold {
			s.maxUnitsSold = a.UnitsSold
		}
		if p.RatingCount > s.maxRatingCount {
			s.maxRatingCount = p.RatingCount
		}
	}
	s.maximaValid = true
	return s.maxUnitsSold, s.maxRatingCount
}

// Clear resets all catalog state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Len returns the number of products in the primary map.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// GetStats reports catalog counts and an approximate memory footprint.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	var memBytes int64
	for _, p := range s.products {
		if p.IsActive {
			active++
		}
		memBytes += int64(len(p.Title) + len(p.Description) + len(p.SearchableText))
		memBytes += 256 // struct overhead estimate per product
	}

	entries := s.tokens.entryCount() + s.categories.entryCount() + s.brands.entryCount() +
		s.prices.entryCount() + s.ratings.entryCount() + s.stock.entryCount()
	memBytes += int64(entries) * 16

	return Stats{
		TotalProducts:  len(s.products),
		ActiveProducts: active,
		TokenCount:     len(s.tokens),
		IndexEntries:   entries,
		ApproxMemBytes: memBytes,
	}
}

// TokenPostings returns the ids indexed under the given token. Intended for
// tests asserting index/primary-map symmetry.
func (s *Store) TokenPostings(token string) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.tokens[token]
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ContainsInAnyIndex reports whether the id appears in any secondary index.
// Intended for tests asserting index/primary-map symmetry after Remove.
func (s *Store) ContainsInAnyIndex(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ix := range []index{s.tokens, s.categories, s.brands, s.prices, s.ratings, s.stock} {
		for _, set := range ix {
			if _, ok := set[id]; ok {
				return true
			}
		}
	}
	return false
}
