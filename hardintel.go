/*
File: hardintel.go
Description: The Hard-Intel Gate (HIG, §4.2) — feed-backed exact-match
             lookups against apex domains, with a known-good fast path
             and a DynDNS effective-parent check. Feed snapshots are
             published via atomic.Pointer so a reload never exposes a
             partially-built trie to a concurrent reader, the same
             discipline the teacher uses for MLGuard.ready/state.
*/

package scorecore

import (
	"strings"
	"sync/atomic"
)

// FeedSource names where a HardIntelHit came from (§4.2): abuse.ch,
// Shadowserver, Spamhaus DROP, and CoinBlocker are the feeds named in
// original_source/engine/src/hard_intel.rs.
type FeedSource string

const (
	FeedAbuseCH       FeedSource = "abuse.ch"
	FeedShadowserver  FeedSource = "shadowserver"
	FeedSpamhausDROP  FeedSource = "spamhaus_drop"
	FeedCoinBlocker   FeedSource = "coinblocker"
	FeedKnownGood     FeedSource = "known_good"
	FeedDynDNSGeneric FeedSource = "dyndns_generic"
)

// feedSnapshot is the immutable, fully-built state HIG evaluates
// lookups against. A new snapshot entirely replaces the old one on
// reload; nothing in it is mutated in place once published.
type feedSnapshot struct {
	hits          *domainTrie[HardIntelHit]
	knownGoodApex map[string]struct{}
}

func newFeedSnapshot() *feedSnapshot {
	return &feedSnapshot{
		hits: newDomainTrie[HardIntelHit](func(candidate, existing HardIntelHit) bool {
			return candidate.Verdict.moreSevereThan(existing.Verdict)
		}),
		knownGoodApex: make(map[string]struct{}),
	}
}

// HardIntelGate evaluates a domain against threat-intel feed sets and
// a whitelist fast path. Safe for concurrent use; Reload publishes a
// new snapshot atomically so readers never observe a half-updated feed
// set (§4.2, §9).
type HardIntelGate struct {
	snapshot atomic.Pointer[feedSnapshot]
	loaded   atomic.Bool
}

// NewHardIntelGate returns a gate seeded with the built-in topBrands
// list as its known-good fast path and no feed hits, matching
// original_source/engine/src/hard_intel.rs's is_whitelisted default
// before any feed has been loaded.
func NewHardIntelGate() *HardIntelGate {
	snap := newFeedSnapshot()
	for _, b := range topBrands {
		snap.knownGoodApex[b] = struct{}{}
	}
	g := &HardIntelGate{}
	g.snapshot.Store(snap)
	return g
}

// FeedEntry is one row of a feed reload: an apex domain and the
// verdict/source it carries.
type FeedEntry struct {
	Domain  string
	Verdict HardVerdict
	Source  FeedSource
}

// Reload atomically replaces the feed snapshot. entries describe feed
// hits; knownGood lists additional apex domains to treat as whitelisted
// on top of the built-in brand list. Building the new trie happens
// entirely off to the side before Store, so a reader never sees a
// partially-populated trie (§9, resolved: HIG never blocks readers
// during reload).
func (g *HardIntelGate) Reload(entries []FeedEntry, knownGood []string) {
	snap := newFeedSnapshot()
	for _, b := range topBrands {
		snap.knownGoodApex[b] = struct{}{}
	}
	for _, d := range knownGood {
		snap.knownGoodApex[strings.ToLower(d)] = struct{}{}
	}
	for _, e := range entries {
		snap.hits.Insert(strings.ToLower(e.Domain), HardIntelHit{Verdict: e.Verdict, Source: e.Source})
	}
	g.snapshot.Store(snap)
	g.loaded.Store(true)
}

// Loaded reports whether a real feed snapshot has been published via
// Reload. A fresh gate from NewHardIntelGate can still evaluate
// lookups (against the built-in whitelist and DynDNS provider set)
// before that happens, but §7's FeedSnapshotMissing/"intel_unavailable"
// tag applies until the first Reload.
func (g *HardIntelGate) Loaded() bool {
	return g.loaded.Load()
}

// Evaluate checks domain against the current feed snapshot (§4.2).
// ok reports whether any hit (good or bad) was found; hit is the
// zero value when ok is false, meaning the caller should fall through
// to SM/CB scoring.
func (g *HardIntelGate) Evaluate(domain string) (hit HardIntelHit, ok bool) {
	snap := g.snapshot.Load()
	if snap == nil {
		return HardIntelHit{}, false
	}
	d := strings.ToLower(strings.TrimSuffix(domain, "."))
	registrable := registrableDomain(d)

	if _, good := snap.knownGoodApex[registrable]; good {
		return HardIntelHit{Verdict: HardClean, Source: FeedKnownGood}, true
	}

	if v, found := snap.hits.Lookup(registrable); found {
		return v, true
	}

	if parent := effectiveDynDNSParent(d); parent != "" {
		if _, isDyn := dynDNSProviders[parent]; isDyn {
			return HardIntelHit{Verdict: HardSuspiciousDynDNS, Source: FeedDynDNSGeneric}, true
		}
	}

	return HardIntelHit{}, false
}

// effectiveDynDNSParent returns the longest suffix of d that matches a
// known DynDNS provider domain, or "" if none match. DynDNS providers
// hand out third+ level subdomains (foo.duckdns.org), so the candidate
// parent is every suffix of d starting from the second label.
func effectiveDynDNSParent(d string) string {
	labels := splitLabels(d)
	for i := 1; i < len(labels); i++ {
		candidate := strings.Join(labels[i:], ".")
		if _, ok := dynDNSProviders[candidate]; ok {
			return candidate
		}
	}
	return ""
}
