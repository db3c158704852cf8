/*
File: features.go
Description: The Feature Extractor (FX, §4.1) — a pure, deterministic,
             allocation-light mapping from (domain, url) to the ordered
             FeatureVector and a ReasonSet. No I/O, never fails: a
             malformed domain yields a vector with only structural
             features populated, per §4.1's contract.
*/

package scorecore

import (
	"math"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/unicode/norm"
)

const typosquatCap = 3

// ExtractFeatures computes the §4.1 feature vector and reasons for a
// request. domain is assumed already validated by ValidateRequest;
// callers scoring raw/unvalidated input still get a total function
// back (structural features only) rather than a panic.
func ExtractFeatures(domain, rawURL string) (FeatureVector, *ReasonSet) {
	reasons := NewReasonSet()
	var fv FeatureVector

	lowered := strings.ToLower(strings.TrimSuffix(domain, "."))

	// Canonicalize to the A-label (ASCII/punycode) form first — a
	// caller may hand FX either a Unicode domain or one already
	// punycode-encoded off the wire, and has_punycode/length must see
	// the same representation either way (§4.1). Then decode back to
	// Unicode for entropy/homoglyph/vowel calculations.
	aLabelDomain, err := idna.Lookup.ToASCII(lowered)
	if err != nil {
		aLabelDomain = lowered
	}
	unicodeDomain, err := idna.Lookup.ToUnicode(aLabelDomain)
	if err != nil {
		unicodeDomain = aLabelDomain
	}
	unicodeDomain = norm.NFC.String(unicodeDomain)

	labels := splitLabels(aLabelDomain)
	registrable := registrableDomain(aLabelDomain)

	fv[0] = float64(len(registrable))
	fv[1] = float64(len(labels))
	fv[2] = digitRatio(aLabelDomain)
	fv[3] = float64(strings.Count(aLabelDomain, "-"))

	registrableUnicode, err := idna.Lookup.ToUnicode(registrable)
	if err != nil {
		registrableUnicode = registrable
	}
	registrableUnicode = norm.NFC.String(registrableUnicode)
	fv[4] = shannonEntropy(strings.ToLower(registrableUnicode))
	fv[5] = vowelRatio(strings.ToLower(registrableUnicode))

	maxLabel := 0
	hasPunycode := false
	for _, l := range labels {
		if len(l) > maxLabel {
			maxLabel = len(l)
		}
		if strings.HasPrefix(l, "xn--") {
			hasPunycode = true
		}
	}
	fv[6] = float64(maxLabel)
	if hasPunycode {
		fv[7] = 1
	}

	homoglyphCount, homoglyphHit := countConfusables(registrableUnicode)
	if len(registrableUnicode) > 0 {
		fv[8] = float64(homoglyphCount) / float64(len([]rune(registrableUnicode)))
	}

	dist, brand := nearestBrandDistance(registrable)
	fv[9] = float64(dist)

	fv[10] = dgaNgramScore(strings.ToLower(stripTLD(registrable)))

	tld := effectiveTLD(aLabelDomain)
	fv[11] = tldRiskClass(tld)

	var hasLoginKW bool
	var queryLen, pathDepth int
	if rawURL != "" {
		pathDepth, hasLoginKW, queryLen = extractURLFeatures(rawURL)
	}
	fv[12] = float64(pathDepth)
	if hasLoginKW {
		fv[13] = 1
	}
	fv[14] = float64(queryLen)

	// Reasons, per §4.1.
	if fv[8] > 0 && homoglyphHit {
		reasons.Add("idn_homoglyph")
	}
	if dist <= 2 && brand != "" && !strings.EqualFold(registrable, brand) {
		reasons.Add("typosquat:" + brand)
	}
	if fv[10] > dgaSuspectThreshold {
		reasons.Add("dga_suspect")
	}
	if hasLoginKW {
		reasons.Add("login_keyword")
	}
	if hasPunycode {
		reasons.Add("punycode")
	}

	return fv, reasons
}

// dgaSuspectThreshold is the tunable cutoff above which dga_ngram_score
// triggers the "dga_suspect" reason (§4.1). A label whose bigrams are
// all missing from bigramLogProb scores exactly -bigramBackoffLogProb
// (9.0); the cutoff sits just below that, because the compact bigram
// table leaves most bigrams of ordinary names unseen ("google" scores
// about 7.96).
const dgaSuspectThreshold = 8.5

func splitLabels(domain string) []string {
	if domain == "" {
		return nil
	}
	parts := strings.Split(domain, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// registrableDomain returns the eTLD+1 (effective second-level + TLD)
// using golang.org/x/net/publicsuffix, falling back to the whole
// domain when the suffix list has no opinion (e.g. a bare TLD or an
// unknown suffix) — mirrors the teacher's fallback in
// ml_guard_process.go when publicsuffix.PublicSuffix returns an
// unrecognized/non-ICANN suffix.
func registrableDomain(domain string) string {
	if domain == "" {
		return ""
	}
	reg, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return domain
	}
	return reg
}

func effectiveTLD(domain string) string {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix
}

func stripTLD(registrable string) string {
	suffix, icann := publicsuffix.PublicSuffix(registrable)
	if !icann && !strings.Contains(suffix, ".") {
		// unknown suffix; treat whole thing as payload
	}
	if suffix != "" && len(registrable) > len(suffix) {
		return strings.TrimSuffix(registrable[:len(registrable)-len(suffix)], ".")
	}
	return registrable
}

func digitRatio(domain string) float64 {
	var digits, total int
	for _, r := range domain {
		if r == '.' {
			continue
		}
		total++
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}

func vowelRatio(s string) float64 {
	var vowels, letters int
	for _, r := range s {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			vowels++
			letters++
		default:
			if r >= 'a' && r <= 'z' {
				letters++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(vowels) / float64(letters)
}

// shannonEntropy computes bits/char entropy over runes, generalizing
// the teacher's byte-oriented calculateEntropy (ml_guard_process.go)
// to Unicode so IDN labels are measured correctly.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		if r == '.' {
			continue
		}
		counts[r]++
		total++
	}
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// countConfusables counts registrable-portion characters present in
// the confusableToASCII table (§4.1 feature 9).
func countConfusables(s string) (int, bool) {
	count := 0
	for _, r := range s {
		if _, ok := confusableToASCII[r]; ok {
			count++
		}
	}
	return count, count > 0
}

// nearestBrandDistance returns the minimum Damerau-Levenshtein
// distance (capped at typosquatCap) between domain and any entry in
// topBrands, tie-broken by alphabetically earliest brand (§4.1
// feature 10).
func nearestBrandDistance(domain string) (int, string) {
	best := typosquatCap + 1
	bestBrand := ""
	for _, brand := range topBrands {
		d := damerauLevenshtein(domain, brand, typosquatCap)
		if d < best || (d == best && brand < bestBrand) {
			best = d
			bestBrand = brand
		}
	}
	if best > typosquatCap {
		best = typosquatCap
	}
	return best, bestBrand
}

// damerauLevenshtein computes the optimal string alignment distance
// (insertions, deletions, substitutions, and adjacent transpositions),
// short-circuiting once the running minimum exceeds cap since §4.1
// only needs the capped value. No suitable edit-distance library
// appears in the retrieved pack or its lockfiles, so this is hand
// rolled per the spec's explicit algorithm (B3).
func damerauLevenshtein(a, b string, cap int) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return min(lb, cap+1)
	}
	if lb == 0 {
		return min(la, cap+1)
	}

	prev2 := make([]int, lb+1)
	prev1 := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev1[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev1[j] + 1
			ins := curr[j-1] + 1
			sub := prev1[j-1] + cost
			v := del
			if ins < v {
				v = ins
			}
			if sub < v {
				v = sub
			}
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				trans := prev2[j-2] + 1
				if trans < v {
					v = trans
				}
			}
			curr[j] = v
			if v < rowMin {
				rowMin = v
			}
		}
		if rowMin > cap {
			return cap + 1
		}
		prev2, prev1, curr = prev1, curr, prev2
	}
	return prev1[lb]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// extractURLFeatures computes §4.1's url_* features.
func extractURLFeatures(rawURL string) (pathDepth int, hasLoginKW bool, queryLen int) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, false, 0
	}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed != "" {
		pathDepth = strings.Count(trimmed, "/") + 1
	}
	lowerPath := strings.ToLower(u.Path)
	for _, kw := range []string{"login", "signin", "account", "verify", "secure", "update"} {
		if strings.Contains(lowerPath, kw) {
			hasLoginKW = true
			break
		}
	}
	queryLen = len(u.RawQuery)
	return
}
