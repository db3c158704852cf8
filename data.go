/*
File: data.go
Description: Static datasets consulted by FX — the confusable-character
             table, the top-brands list (also seeded into HIG as a
             known-good fast path), the TLD-risk table, and the
             pre-trained bigram model for DGA scoring. Kept in its own
             file for the same reason the teacher splits its static
             datasets into ml_guard_data.go: these tables dwarf the
             logic that consumes them.
*/

package scorecore

// confusableToASCII maps non-ASCII characters with a visually similar
// ASCII lookalike onto that lookalike, per §4.1's idn_homoglyph_score.
// Covers the script-mixed confusables named in the spec: Cyrillic
// а/е/о/р/с, Greek ο, and fullwidth digits, plus a handful of other
// commonly abused lookalikes from the same scripts.
var confusableToASCII = map[rune]rune{
	// Cyrillic lowercase
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c',
	'х': 'x', 'у': 'y', 'ѕ': 's', 'і': 'i', 'ј': 'j',
	// Cyrillic uppercase (domains are folded to lowercase before this
	// check runs, but kept for defense-in-depth if a caller bypasses
	// normalization)
	'А': 'a', 'Е': 'e', 'О': 'o', 'Р': 'p', 'С': 'c',
	// Greek
	'ο': 'o', 'ρ': 'p', 'α': 'a', 'ν': 'v',
	// Fullwidth digits
	'０': '0', '１': '1', '２': '2', '３': '3', '４': '4',
	'５': '5', '６': '6', '７': '7', '８': '8', '９': '9',
}

// topBrands is the fixed top-brands list used both for §4.1's
// typosquat_distance feature and, via knownGoodApex, as HIG's
// whitelist fast path (original_source/engine/src/hard_intel.rs's
// is_whitelisted, generalized from a dozen hardcoded names to this
// list). Grounded on the teacher's getTop500Domains() in
// ml_guard_data.go, trimmed to the entries most exposed to
// impersonation (payment, identity, and high-traffic consumer brands).
var topBrands = []string{
	"google.com", "youtube.com", "facebook.com", "instagram.com",
	"twitter.com", "linkedin.com", "microsoft.com", "apple.com",
	"icloud.com", "amazon.com", "paypal.com", "ebay.com",
	"netflix.com", "github.com", "gitlab.com", "dropbox.com",
	"wikipedia.org", "yahoo.com", "reddit.com", "wordpress.com",
	"adobe.com", "salesforce.com", "stripe.com", "shopify.com",
	"bankofamerica.com", "chase.com", "wellsfargo.com", "citibank.com",
	"coinbase.com", "binance.com", "steampowered.com", "discord.com",
	"whatsapp.com", "telegram.org", "tiktok.com", "snapchat.com",
	"office.com", "live.com", "outlook.com", "yandex.ru",
}

// highRiskTLDs mirrors the teacher's ml_guard_data.go list of
// generic/spammy/abused TLDs that warrant a heavier tld_risk class.
var highRiskTLDs = map[string]struct{}{
	"accountant": {}, "bargains": {}, "best": {}, "bid": {}, "buzz": {}, "cam": {},
	"casa": {}, "cf": {}, "cfd": {}, "click": {}, "country": {}, "cricket": {},
	"cyou": {}, "date": {}, "download": {}, "faith": {}, "fun": {}, "ga": {},
	"gdn": {}, "gq": {}, "icu": {}, "kim": {}, "kred": {}, "lat": {}, "link": {},
	"loan": {}, "men": {}, "ml": {}, "mom": {}, "monster": {}, "mov": {}, "ooo": {},
	"party": {}, "pic": {}, "pics": {}, "pw": {}, "quest": {}, "racing": {},
	"rest": {}, "review": {}, "sbs": {}, "science": {}, "stream": {}, "surf": {},
	"tk": {}, "trade": {}, "uno": {}, "wang": {}, "win": {}, "work": {}, "xin": {},
	"zip": {},
}

// safeTLDs mirrors the teacher's notion of "generally safe" TLDs,
// consulted before falling back to the "unlisted" risk class.
var safeTLDs = map[string]struct{}{
	"io": {}, "ai": {}, "me": {}, "tv": {}, "cc": {}, "so": {},
	"app": {}, "dev": {}, "tech": {}, "net": {}, "org": {}, "com": {},
	"cloud": {}, "online": {}, "store": {}, "shop": {},
	"arpa": {}, "edu": {}, "gov": {}, "int": {}, "mil": {},
	"us": {}, "ca": {}, "mx": {}, "br": {}, "uk": {}, "de": {}, "fr": {},
	"nl": {}, "eu": {}, "jp": {}, "kr": {}, "au": {}, "nz": {},
}

// TLD risk classes, §4.1 feature 12.
const (
	tldRiskSafe    = 0
	tldRiskNeutral = 1
	tldRiskHigh    = 2
)

func tldRiskClass(tld string) float64 {
	if _, ok := highRiskTLDs[tld]; ok {
		return tldRiskHigh
	}
	if _, ok := safeTLDs[tld]; ok {
		return tldRiskSafe
	}
	return tldRiskNeutral
}

// dynDNSProviders is the small static provider set HIG checks the
// effective parent domain against for SuspiciousDynDNS (§4.2).
var dynDNSProviders = map[string]struct{}{
	"dyndns.org": {}, "no-ip.com": {}, "no-ip.org": {}, "duckdns.org": {},
	"ddns.net": {}, "hopto.org": {}, "zapto.org": {}, "sytes.net": {},
	"myftp.org": {}, "dnsdynamic.org": {}, "changeip.com": {},
	"afraid.org": {}, "freedns.afraid.org": {},
}

// bigramLogProb holds log2 probabilities for the most frequent English
// letter bigrams, the "pre-trained bigram model over lowercase letters"
// §4.1 feature 11 requires. Unseen bigrams fall back to
// bigramBackoffLogProb. This is a compact, hand-curated approximation
// of English bigram frequency (not a full 26x26 table) in the same
// spirit as the teacher's map-based token log-probabilities in
// ml_guard_train.go — a handful of common pairs dominate the mass, the
// long tail is handled by backoff rather than being enumerated.
var bigramLogProb = map[string]float64{
	"th": -2.5, "he": -2.6, "in": -2.9, "er": -2.9, "an": -3.0,
	"re": -3.1, "nd": -3.2, "at": -3.2, "on": -3.2, "nt": -3.3,
	"ha": -3.3, "es": -3.3, "st": -3.3, "en": -3.4, "ed": -3.4,
	"to": -3.4, "it": -3.5, "ou": -3.5, "ea": -3.5, "hi": -3.5,
	"is": -3.6, "or": -3.6, "ti": -3.6, "as": -3.6, "te": -3.7,
	"et": -3.7, "ng": -3.7, "of": -3.7, "al": -3.7, "de": -3.8,
	"se": -3.8, "le": -3.8, "sa": -3.9, "si": -3.9, "ar": -3.9,
	"ve": -3.9, "ra": -4.0, "ld": -4.0, "ur": -4.0, "li": -4.0,
	"ne": -4.0, "ro": -4.1, "ic": -4.1, "co": -4.1, "ma": -4.1,
	"la": -4.1, "ta": -4.2, "il": -4.2, "ch": -4.2, "ho": -4.2,
	"ri": -4.2, "me": -4.2, "wi": -4.3, "no": -4.3, "ca": -4.3,
	"el": -4.3, "ac": -4.3, "ol": -4.4, "om": -4.4, "be": -4.4,
	"di": -4.4, "am": -4.4, "ge": -4.4, "us": -4.5, "wa": -4.5,
	"vi": -4.5, "pe": -4.5, "pa": -4.6, "fo": -4.6, "ot": -4.6,
	"ut": -4.6, "un": -4.6, "ru": -4.7, "ee": -4.7, "so": -4.7,
	"nc": -4.7, "id": -4.7, "ss": -4.7, "ad": -4.8, "ab": -4.8,
}

// bigramBackoffLogProb is the log2 probability assigned to any bigram
// not in the table above — a small but nonzero mass, matching how the
// teacher's ml_guard_process.go backs off to a fixed -15.0 log-odds
// for unseen tokens rather than zero.
const bigramBackoffLogProb = -9.0

// dgaNgramScore computes the average negative log-likelihood per
// bigram over the lowercase letters of s, ignoring non-letters. Higher
// is more suspicious (§4.1 feature 11).
func dgaNgramScore(s string) float64 {
	letters := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			letters = append(letters, c)
		}
	}
	if len(letters) < 2 {
		return 0
	}
	var total float64
	n := 0
	for i := 0; i < len(letters)-1; i++ {
		bg := string(letters[i : i+2])
		lp, ok := bigramLogProb[bg]
		if !ok {
			lp = bigramBackoffLogProb
		}
		total += -lp
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
