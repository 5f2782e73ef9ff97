package sources

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/partywatch/partycrawl/internal/dates"
)

// Some boards navigate via inline JS handlers rather than <a href>.
var (
	onclickQuotedRE = regexp.MustCompile(`(['"])((?:https?://|/)[^'"]+)['"]`)
	onclickBareRE   = regexp.MustCompile(`(https?://[^\s'"]+|/[^\s'"]+)`)
)

// registrationDateRE matches the "등록일 YYYY-MM-DD" label some boards embed
// inside title cells.
var registrationDateRE = regexp.MustCompile(`등록일\s*\d{4}[.\-/]\s*\d{1,2}[.\-/]\s*\d{1,2}`)

// whitespaceRE collapses runs of whitespace, including the non-breaking
// spaces Korean CMSes are fond of.
var whitespaceRE = regexp.MustCompile(`[\s\x{00A0}]+`)

// CleanTitle normalizes a scraped title: whitespace collapsed, embedded
// registration-date labels removed.
func CleanTitle(text string) string {
	text = whitespaceRE.ReplaceAllString(text, " ")
	text = registrationDateRE.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// urlFromOnclick extracts a URL from inline JS like
// location.href='/news/briefing/123' or window.location="/news/briefing/123".
// Best effort: returns "" when nothing URL-shaped is present.
func urlFromOnclick(onclick string) string {
	if onclick == "" {
		return ""
	}

	if m := onclickQuotedRE.FindStringSubmatch(onclick); m != nil {
		return m[2]
	}
	if m := onclickBareRE.FindStringSubmatch(onclick); m != nil {
		return m[1]
	}
	return ""
}

// hrefAttrs are attributes checked, in order, for a navigable URL.
var hrefAttrs = []string{"href", "data-href", "data-url", "data-link"}

// idAttrs are attributes whose numeric value identifies a post when no URL
// attribute is present.
var idAttrs = []string{"data-no", "data-idx", "data-id", "data-seq"}

// hrefFromAttrs finds a navigable URL in a node's attributes. When only a
// numeric post id attribute is present, idPathPrefix is used to build a
// relative URL from it.
func hrefFromAttrs(s *goquery.Selection, idPathPrefix string) string {
	for _, attr := range hrefAttrs {
		if val, ok := s.Attr(attr); ok && val != "" {
			return val
		}
	}

	if idPathPrefix == "" {
		return ""
	}
	for _, attr := range idAttrs {
		val, ok := s.Attr(attr)
		if ok && val != "" && isDigits(val) {
			return idPathPrefix + val
		}
	}
	return ""
}

// resolveURL makes href absolute against the listing URL. Returns "" for
// unusable links (empty, javascript:, unparsable).
func resolveURL(listURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript") {
		return ""
	}

	base, err := url.Parse(listURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return base.ResolveReference(ref).String()
}

// nodeText extracts a node's text with whitespace collapsed to single
// spaces.
func nodeText(s *goquery.Selection) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s.Text(), " "))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// dateHintFrom pulls a fully-specified date out of arbitrary text and
// formats it as a hint, or returns "" when none is present.
func dateHintFrom(text string) string {
	if d := dates.Extract(text); !d.IsZero() {
		return d.Format("2006-01-02")
	}
	return ""
}
