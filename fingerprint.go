/*
File: fingerprint.go
Description: Cache key derivation for DC (§4.6): a stable hash of the
             lowercased domain plus a normalized URL path, so two
             requests differing only by query string or case still
             collide on the same cache entry.
*/

package scorecore

import (
	"net/url"
	"strings"

	"hash/maphash"
)

var fingerprintSeed = maphash.MakeSeed()

// Fingerprint computes DC's cache key for (domain, url) (§4.6).
func Fingerprint(domain, rawURL string) uint64 {
	d := strings.ToLower(strings.TrimSuffix(domain, "."))
	path := normalizedURLPath(rawURL)

	var h maphash.Hash
	h.SetSeed(fingerprintSeed)
	h.WriteString(d)
	h.WriteByte(0)
	h.WriteString(path)
	return h.Sum64()
}

func normalizedURLPath(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	return strings.ToLower(p)
}
