// Package urlnorm canonicalizes article URLs into stable identity keys.
//
// The same article routinely shows up in listings under http and https, with
// and without a www prefix, and with incidental tracking or pagination query
// parameters. Treating those variants as distinct would create duplicate sink
// records, so every URL entering the pipeline (and every link read back from
// the sink) goes through the same normalization.
package urlnorm

import (
	"net/url"
	"strings"
)

// DefaultDropParams are query parameters removed during normalization:
// pagination markers and click-tracking identifiers. They never contribute to
// an article's identity.
var DefaultDropParams = []string{
	"page",
	"nPage",
	"pageid",
	"fbclid",
	"gclid",
}

// DefaultDropPrefixes are query parameter prefixes removed during
// normalization (campaign-tracking families).
var DefaultDropPrefixes = []string{"utm_"}

// Normalizer canonicalizes URLs into identity keys.
type Normalizer struct {
	dropParams   map[string]struct{}
	dropPrefixes []string
}

// New creates a Normalizer that strips the given query parameter names and
// prefixes. Nil slices select the defaults.
func New(dropParams, dropPrefixes []string) *Normalizer {
	if dropParams == nil {
		dropParams = DefaultDropParams
	}
	if dropPrefixes == nil {
		dropPrefixes = DefaultDropPrefixes
	}

	drop := make(map[string]struct{}, len(dropParams))
	for _, p := range dropParams {
		drop[p] = struct{}{}
	}

	return &Normalizer{dropParams: drop, dropPrefixes: dropPrefixes}
}

// NewDefault creates a Normalizer with the default drop lists.
func NewDefault() *Normalizer {
	return New(nil, nil)
}

// Normalize canonicalizes a URL into its identity key. It is a total
// function: malformed input is returned trimmed and lower-cased as a
// best-effort key instead of failing.
//
// Canonical form: https scheme, no leading "www." host label, no trailing
// path slash, denylisted query parameters removed, host lower-cased. Path and
// query case are preserved because some boards are case-sensitive.
func (n *Normalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return strings.ToLower(trimmed)
	}

	u.Scheme = "https"
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	// A bare authority and an explicit root are the same page.
	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	u.RawQuery = n.filterQuery(u.RawQuery)

	return u.String()
}

// filterQuery removes denylisted parameters while preserving the order and
// encoding of the remaining ones.
func (n *Normalizer) filterQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	kept := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for pair := range strings.SplitSeq(rawQuery, "&") {
		if pair == "" {
			continue
		}

		name := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			name = pair[:idx]
		}
		if decoded, decodeErr := url.QueryUnescape(name); decodeErr == nil {
			name = decoded
		}

		if n.dropped(name) {
			continue
		}
		kept = append(kept, pair)
	}

	return strings.Join(kept, "&")
}

// dropped reports whether a query parameter name is on the denylist.
func (n *Normalizer) dropped(name string) bool {
	if _, ok := n.dropParams[name]; ok {
		return true
	}
	for _, prefix := range n.dropPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
