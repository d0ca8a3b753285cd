// Package ranking maps a (product, normalized query) pair to a bounded
// relevance score in [0,1]. Quality, popularity, and business sub-scores are
// query-independent; only text relevance depends on the query terms.
package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gopikant21/jumbotail/internal/domain"
	"github.com/gopikant21/jumbotail/internal/normalizer"
)

// Sub-score weights. They sum to 1 so the weighted base score is in [0,1].
const (
	weightText       = 0.40
	weightQuality    = 0.25
	weightPopularity = 0.20
	weightBusiness   = 0.15
)

// Text relevance credits per query token, capped at 1.0 per token.
const (
	creditTitleExact     = 1.0
	creditTitlePrefix    = 0.8
	creditTitleSubstring = 0.6
	creditDescription    = 0.4
	creditSearchableText = 0.2
	creditFuzzyMax       = 0.3
	fuzzyThreshold       = 0.7
)

// neutralTextScore is used when the query carries no terms.
const neutralTextScore = 0.5

// popularBrands get a small multiplicative boost.
var popularBrands = map[string]struct{}{
	"samsung": {},
	"apple":   {},
	"sony":    {},
	"lg":      {},
	"xiaomi":  {},
	"nike":    {},
	"adidas":  {},
	"boat":    {},
	"titan":   {},
}

// BoostFunc returns a multiplicative boost factor for a product. Factors are
// independent multipliers, so application order does not matter. Returning 1
// means no boost.
type BoostFunc func(p *domain.Product, a domain.ResolvedAnalytics, now time.Time) float64

// DefaultBoosts returns the standard boost-factor list. Seasonal or campaign
// boosting plugs in as extra entries rather than a parallel scoring path.
func DefaultBoosts() []BoostFunc {
	return []BoostFunc{
		recencyBoost,
		func(p *domain.Product, a domain.ResolvedAnalytics, _ time.Time) float64 {
			if a.IsTrending {
				return 1.1
			}
			return 1
		},
		func(p *domain.Product, a domain.ResolvedAnalytics, _ time.Time) float64 {
			if a.IsOnSale {
				return 1.15
			}
			return 1
		},
		func(p *domain.Product, _ domain.ResolvedAnalytics, _ time.Time) float64 {
			if p.Stock > 0 && p.Stock <= 10 {
				return 1.05 // low-stock urgency
			}
			return 1
		},
		func(p *domain.Product, a domain.ResolvedAnalytics, _ time.Time) float64 {
			if a.ProfitMargin > 0.3 {
				return 1.1
			}
			return 1
		},
		func(p *domain.Product, _ domain.ResolvedAnalytics, _ time.Time) float64 {
			if _, ok := popularBrands[strings.ToLower(p.Brand)]; ok {
				return 1.05
			}
			return 1
		},
		func(p *domain.Product, _ domain.ResolvedAnalytics, _ time.Time) float64 {
			if p.Price >= 5000 && p.Price <= 30000 {
				return 1.1 // sweet-spot price band
			}
			return 1
		},
	}
}

// recencyBoost rewards products created within the last 30 days, decaying
// linearly from 2x at creation to 1x at the end of the window.
func recencyBoost(p *domain.Product, _ domain.ResolvedAnalytics, now time.Time) float64 {
	const window = 30 * 24 * time.Hour
	age := now.Sub(p.CreatedAt)
	if age < 0 || age >= window {
		return 1
	}
	return 2 - age.Seconds()/window.Seconds()
}

// Engine computes relevance scores and sorts scored candidates.
type Engine struct {
	boosts []BoostFunc
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithBoosts appends extra boost factors to the default list.
func WithBoosts(extra ...BoostFunc) Option {
	return func(e *Engine) {
		e.boosts = append(e.boosts, extra...)
	}
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a ranking engine with the default boost list.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		boosts: DefaultBoosts(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the bounded relevance score for the product against the
// normalized query terms. maxUnitsSold and maxRatingCount are the current
// catalog-wide maxima used to normalize popularity.
func (e *Engine) Score(p *domain.Product, terms []string, maxUnitsSold int64, maxRatingCount int) float64 {
	a := p.Analytics.WithDefaults()

	score := weightText*e.textScore(p, terms) +
		weightQuality*qualityScore(p, a) +
		weightPopularity*popularityScore(p, a, maxUnitsSold, maxRatingCount) +
		weightBusiness*businessScore(p, a)

	now := e.now().UTC()
	for _, boost := range e.boosts {
		score *= boost(p, a, now)
	}

	return clamp01(score)
}

// textScore awards partial credit per query token for presence in the
// title, description, and full searchable text, plus fuzzy credit against
// title tokens, capped at 1.0 per token and averaged across tokens.
func (e *Engine) textScore(p *domain.Product, terms []string) float64 {
	if len(terms) == 0 {
		return neutralTextScore
	}

	titleLower := strings.ToLower(p.Title)
	titleTokens := normalizer.Tokenize(titleLower)
	descLower := strings.ToLower(p.Description)

	total := 0.0
	for _, term := range terms {
		credit := 0.0

		switch {
		case containsToken(titleTokens, term):
			credit += creditTitleExact
		case hasAffixMatch(titleTokens, term):
			credit += creditTitlePrefix
		case strings.Contains(titleLower, term):
			credit += creditTitleSubstring
		}

		if strings.Contains(descLower, term) {
			credit += creditDescription
		}
		if strings.Contains(p.SearchableText, term) {
			credit += creditSearchableText
		}

		if sim := bestTitleSimilarity(titleTokens, term); sim > fuzzyThreshold {
			credit += creditFuzzyMax * sim
		}

		if credit > 1 {
			credit = 1
		}
		total += credit
	}

	return total / float64(len(terms))
}

func containsToken(tokens []string, term string) bool {
	for _, t := range tokens {
		if t == term {
			return true
		}
	}
	return false
}

// hasAffixMatch reports whether the term is a strict prefix or suffix of any
// title token.
func hasAffixMatch(tokens []string, term string) bool {
	for _, t := range tokens {
		if t == term {
			continue
		}
		if strings.HasPrefix(t, term) || strings.HasSuffix(t, term) {
			return true
		}
	}
	return false
}

// bestTitleSimilarity returns the highest edit-distance similarity between
// the term and any title token.
func bestTitleSimilarity(tokens []string, term string) float64 {
	best := 0.0
	for _, t := range tokens {
		if sim := Similarity(t, term); sim > best {
			best = sim
		}
	}
	return best
}

// qualityScore blends rating with return rate.
func qualityScore(p *domain.Product, a domain.ResolvedAnalytics) float64 {
	returnRate := math.Min(1, a.ReturnRate)
	return 0.6*(p.Rating/5) + 0.4*(1-returnRate)
}

// popularityScore normalizes units sold and rating count logarithmically
// against the catalog-wide maxima.
func popularityScore(p *domain.Product, a domain.ResolvedAnalytics, maxUnitsSold int64, maxRatingCount int) float64 {
	units := 0.0
	if maxUnitsSold > 0 {
		units = math.Log(float64(a.UnitsSold)+1) / math.Log(float64(maxUnitsSold)+1)
	}
	ratings := 0.0
	if maxRatingCount > 0 {
		ratings = math.Log(float64(p.RatingCount)+1) / math.Log(float64(maxRatingCount)+1)
	}
	return 0.7*units + 0.3*ratings
}

// businessScore blends stock availability, discount-based price
// competitiveness, and profit margin.
func businessScore(p *domain.Product, a domain.ResolvedAnalytics) float64 {
	var stock float64
	switch {
	case p.Stock > 100:
		stock = 1.0
	case p.Stock > 10:
		stock = 0.8
	case p.Stock > 0:
		stock = 0.5
	}

	discount := math.Min(1, float64(p.Discount())/50)
	margin := math.Min(1, a.ProfitMargin/0.5)

	return 0.5*stock + 0.3*discount + 0.2*margin
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Scored pairs a product with its relevance score for sorting.
type Scored struct {
	Product *domain.Product
	Score   float64
}

// Sort orders scored candidates by the given sort option. The sort is
// stable, so ties keep their input order and pagination stays deterministic.
func Sort(items []Scored, sortBy string) {
	switch sortBy {
	case domain.SortPriceLow:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Product.Price < items[j].Product.Price
		})
	case domain.SortPriceHigh:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Product.Price > items[j].Product.Price
		})
	case domain.SortRating:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Product.Rating != items[j].Product.Rating {
				return items[i].Product.Rating > items[j].Product.Rating
			}
			return items[i].Product.RatingCount > items[j].Product.RatingCount
		})
	case domain.SortPopularity:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Product.Analytics.WithDefaults().UnitsSold >
				items[j].Product.Analytics.WithDefaults().UnitsSold
		})
	case domain.SortNewest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Product.CreatedAt.After(items[j].Product.CreatedAt)
		})
	default: // relevance
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Score > items[j].Score
		})
	}
}
