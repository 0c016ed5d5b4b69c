package repository

import (
	"net/url"
	"strings"
)

// Platform tracking parameters that change per share but never change which
// resource the link points at.
var trackingParams = map[string]struct{}{
	"fbclid":   {},
	"gclid":    {},
	"igshid":   {},
	"igsh":     {},
	"si":       {},
	"spm":      {},
	"ref":      {},
	"ref_src":  {},
	"feature":  {},
	"mibextid": {},
}

// NormalizeSourceURL canonicalizes a source URL so cosmetically different
// links to the same resource share one cache row: tracking parameters are
// stripped, the fragment dropped, the host lowercased and the remaining
// query sorted. Both lookup and upsert run through this, so the cache key
// is consistent by construction. Unparseable input is returned as-is.
func NormalizeSourceURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}

	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			q.Del(key)
			continue
		}
		if _, tracked := trackingParams[lower]; tracked {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}
