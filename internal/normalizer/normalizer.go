// Package normalizer canonicalizes raw query text before index lookup.
// It corrects regional-language terms and common misspellings so that
// colloquial and mistyped queries match standard catalog vocabulary.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"
)

// substitution rewrites whole words (word-boundary bounded, case-insensitive)
// to a canonical replacement.
type substitution struct {
	pattern     *regexp.Regexp
	replacement string
}

func newSubstitution(term, replacement string) substitution {
	return substitution{
		pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
		replacement: replacement,
	}
}

// regionalTerms maps colloquial Hinglish terms to canonical English
// equivalents. Applied before the misspelling table.
var regionalTerms = []substitution{
	newSubstitution("sasta", "cheap"),
	newSubstitution("sasti", "cheap"),
	newSubstitution("saste", "cheap"),
	newSubstitution("accha", "good"),
	newSubstitution("acha", "good"),
	newSubstitution("badhiya", "good"),
	newSubstitution("mehenga", "expensive"),
	newSubstitution("mehnga", "expensive"),
	newSubstitution("ghadi", "watch"),
	newSubstitution("joota", "shoes"),
	newSubstitution("joote", "shoes"),
	newSubstitution("kapde", "clothes"),
	newSubstitution("chashma", "sunglasses"),
}

// misspellings maps frequent misspellings of high-traffic brand and
// category terms to their correct spelling.
var misspellings = []substitution{
	newSubstitution("samsng", "samsung"),
	newSubstitution("samung", "samsung"),
	newSubstitution("sumsung", "samsung"),
	newSubstitution("iphne", "iphone"),
	newSubstitution("ifone", "iphone"),
	newSubstitution("labtop", "laptop"),
	newSubstitution("leptop", "laptop"),
	newSubstitution("moble", "mobile"),
	newSubstitution("mobil", "mobile"),
	newSubstitution("addidas", "adidas"),
	newSubstitution("nkie", "nike"),
	newSubstitution("xiomi", "xiaomi"),
	newSubstitution("shaomi", "xiaomi"),
	newSubstitution("realmi", "realme"),
	newSubstitution("hedphone", "headphone"),
	newSubstitution("headfone", "headphone"),
	newSubstitution("sneeker", "sneaker"),
}

// Normalizer rewrites raw queries into canonical token lists.
type Normalizer struct{}

// New creates a query normalizer with the built-in substitution tables.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize lower-cases and trims the raw query, applies the regional-term
// table and then the misspelling table over the whole string, and returns
// the canonical form. The two passes are sequential: a word rewritten by
// the first table can still be corrected by the second.
func (n *Normalizer) Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	for _, sub := range regionalTerms {
		s = sub.pattern.ReplaceAllString(s, sub.replacement)
	}
	for _, sub := range misspellings {
		s = sub.pattern.ReplaceAllString(s, sub.replacement)
	}

	return s
}

// Terms normalizes the raw query and tokenizes the result with the same
// extraction rule used when indexing products.
func (n *Normalizer) Terms(raw string) []string {
	return Tokenize(n.Normalize(raw))
}

// Tokenize extracts index tokens from text: lower-cased, split on
// whitespace, non-alphanumeric characters stripped, tokens of length <= 1
// discarded. Indexing and query tokenization must share this rule or
// recall silently degrades.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))

	for _, f := range fields {
		var b strings.Builder
		for _, r := range f {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		if tok := b.String(); len([]rune(tok)) > 1 {
			tokens = append(tokens, tok)
		}
	}

	return tokens
}
