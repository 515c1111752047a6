// Package normalize reconciles free-form placemark names from exported map
// files with the store registry. Names arrive in inconsistent shapes
// ("CB Kifisia (014)", "Glyfada Delivery Area", "#22 Marousi"), so matching
// runs a fixed ladder of strategies from exact to fuzzy.
package normalize

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/internal/stores"
)

// idPatterns are tried in order; the first capture wins.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\((\d+)\)`),
	regexp.MustCompile(`\[(\d+)\]`),
	regexp.MustCompile(`#(\d+)`),
	regexp.MustCompile(`^(\d+)\s`),
}

var brandPrefixes = []string{
	"coffee berry ",
	"cb ",
}

// ExtractID pulls a store code out of a placemark name and zero-pads it to
// three digits, matching the registry's code format.
func ExtractID(name string) (string, bool) {
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(name); m != nil {
			return PadCode(m[1]), true
		}
	}
	return "", false
}

// PadCode left-pads numeric codes to three digits ("14" -> "014"). Codes
// already three or more digits long pass through.
func PadCode(code string) string {
	code = strings.TrimSpace(code)
	for len(code) < 3 {
		code = "0" + code
	}
	return code
}

// CleanName strips the extracted ID token and brand prefixes, then normalizes
// the remainder for comparison.
func CleanName(name string) string {
	for _, re := range idPatterns {
		name = re.ReplaceAllString(name, " ")
	}
	normalized := stores.NormalizeName(name)
	for _, prefix := range brandPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			normalized = strings.TrimPrefix(normalized, prefix)
			break
		}
	}
	return stores.NormalizeName(normalized)
}

// TokenSet splits a normalized name on whitespace. Polygon descriptors like
// "delivery area" stay in the set; the Jaccard denominator is what penalizes
// them.
func TokenSet(normalized string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.Fields(normalized) {
		out[tok] = true
	}
	return out
}

// Jaccard scores two token sets in [0,1]. An empty set scores 0 against
// anything.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// StoreRecord is the slice of the registry the matcher needs.
type StoreRecord struct {
	ID             uuid.UUID
	Code           *string
	Name           string
	NormalizedName string
}

// MatchResult describes how (or whether) a placemark name was reconciled.
type MatchResult struct {
	Store      *StoreRecord
	Strategy   string
	Confidence float64
}

// Matched reports whether a store was found.
func (r MatchResult) Matched() bool {
	return r.Store != nil
}

const (
	StrategyIDExact     = "id_exact"
	StrategyNameExact   = "name_exact"
	StrategyTokenSet    = "token_set"
	StrategyUnmatched   = "unmatched"
	confidenceIDExact   = 1.0
	confidenceNameExact = 0.9
)

// Matcher reconciles placemark names against the store registry.
type Matcher struct {
	threshold float64
}

// NewMatcher builds a matcher. Token-set matches below the threshold are
// rejected; a non-positive threshold falls back to 0.5.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = 0.5
	}
	return &Matcher{threshold: threshold}
}

// Match runs the strategy ladder: exact code, exact normalized name, then
// best token-set similarity above the threshold.
func (m *Matcher) Match(name string, registry []StoreRecord) MatchResult {
	if code, ok := ExtractID(name); ok {
		for i := range registry {
			rec := &registry[i]
			if rec.Code != nil && *rec.Code == code {
				return MatchResult{Store: rec, Strategy: StrategyIDExact, Confidence: confidenceIDExact}
			}
		}
	}

	cleaned := CleanName(name)
	if cleaned != "" {
		for i := range registry {
			rec := &registry[i]
			if rec.NormalizedName == cleaned {
				return MatchResult{Store: rec, Strategy: StrategyNameExact, Confidence: confidenceNameExact}
			}
		}
	}

	tokens := TokenSet(cleaned)
	var best *StoreRecord
	bestScore := 0.0
	for i := range registry {
		rec := &registry[i]
		score := Jaccard(tokens, TokenSet(cleanRegistryName(rec.NormalizedName)))
		if score > bestScore {
			best, bestScore = rec, score
		}
	}
	if best != nil && bestScore > m.threshold {
		return MatchResult{Store: best, Strategy: StrategyTokenSet, Confidence: bestScore}
	}

	return MatchResult{Strategy: StrategyUnmatched, Confidence: 0}
}

func cleanRegistryName(normalized string) string {
	for _, prefix := range brandPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return strings.TrimPrefix(normalized, prefix)
		}
	}
	return normalized
}
