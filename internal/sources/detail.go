package sources

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/partywatch/partycrawl/internal/dates"
	"github.com/partywatch/partycrawl/internal/fetch"
	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
)

// BrowserFetcher renders a JavaScript-driven page and returns its HTML.
type BrowserFetcher interface {
	Fetch(ctx context.Context, rawURL, waitSelector string) (string, error)
}

// detailHosts is the set of hosts detail pages may be fetched from. Listing
// pages occasionally link out to press coverage on news portals; those links
// are stored but never crawled for body text.
var detailHosts = map[string]struct{}{
	"basicincomeparty.kr":     {},
	"samindang.kr":            {},
	"blog.naver.com":          {},
	"rebuildingkoreaparty.kr": {},
	"jinboparty.com":          {},
	"laborparty.kr":           {},
	"kgreens.org":             {},
	"justice21.org":           {},
}

// browserHosts maps hosts that render their articles client-side to the CSS
// selector worth waiting for. An empty selector means a fixed settle wait.
var browserHosts = map[string]string{
	"rebuildingkoreaparty.kr": "",
	"jinboparty.com":          ".content_box",
}

// dateSelectors are checked, in order, for the article's publish date before
// falling back to a whole-page scan.
var dateSelectors = []string{
	".date", ".view_date", ".write_date", ".info_date",
	".kboard-list-date", ".kboard-date",
}

// contentSelectors locate the article body, in priority order. Each entry
// covers the board software of one or more party sites (CKEditor, Froala,
// KBoard, plain board themes).
var contentSelectors = []string{
	".ck-content",
	"article.newsArticle",
	".fr-view",
	"div.content",
	".content_box",
	".view_content",
	".kboard-document .kboard-content",
	".kboard-document-content",
	".entry-content",
	".view-content",
	".board_view .content",
	".board_view_content",
	".article_content",
	"#contents",
	".contents",
	"article",
}

// kboardChromeSelectors are KBoard meta elements stripped before paragraph
// extraction, so navigation and attachment chrome never ends up in the body.
const kboardChromeSelectors = ".kboard-title, .kboard-detail, .kboard-document-action, " +
	".kboard-document-navi, .kboard-control, .kboard-document-info, .kboard-attr"

// DetailFetcher retrieves article detail pages and extracts their publish
// date and body paragraphs. One fetcher is shared across all adapters.
type DetailFetcher struct {
	client  *fetch.Client
	browser BrowserFetcher
	log     logger.Interface
}

// NewDetailFetcher creates a DetailFetcher. The browser may be nil when no
// headless session is available; browser-rendered hosts then degrade to a
// plain HTTP fetch.
func NewDetailFetcher(client *fetch.Client, browser BrowserFetcher, log logger.Interface) *DetailFetcher {
	return &DetailFetcher{
		client:  client,
		browser: browser,
		log:     log.WithComponent("detail"),
	}
}

// Fetch retrieves a detail page and extracts its date and paragraphs. Hosts
// outside the allowlist yield an empty detail without any fetch. Fetch
// failures are returned as *fetch.Error for the enricher to degrade on.
func (f *DetailFetcher) Fetch(ctx context.Context, rawURL string) (*models.Detail, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || !hostAllowed(parsed.Hostname()) {
		return &models.Detail{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	html, err := f.pageHTML(ctx, rawURL, parsed.Hostname())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fetch.NewError(rawURL, fetch.ReasonMissingMarker, err)
	}

	return &models.Detail{
		Paragraphs: extractParagraphs(findContent(doc)),
		Date:       extractDate(doc),
	}, nil
}

// pageHTML fetches the page, through the browser session for client-rendered
// hosts. A browser failure falls back to plain HTTP: a partially-rendered
// page still often carries the date.
func (f *DetailFetcher) pageHTML(ctx context.Context, rawURL, host string) (string, error) {
	waitSelector, needsBrowser := browserHost(host)
	if needsBrowser && f.browser != nil {
		html, err := f.browser.Fetch(ctx, rawURL, waitSelector)
		if err == nil {
			return html, nil
		}
		f.log.Warn("browser fetch failed, falling back to http",
			"url", rawURL,
			"error", err,
		)
	}

	return f.client.GetHTML(rawURL, rawURL)
}

// hostAllowed reports whether detail pages may be fetched from host.
func hostAllowed(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	_, ok := detailHosts[host]
	return ok
}

// browserHost reports whether host needs browser rendering, and the selector
// to wait for.
func browserHost(host string) (waitSelector string, ok bool) {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	waitSelector, ok = browserHosts[host]
	return waitSelector, ok
}

// extractDate finds the article's publish date, preferring dedicated date
// elements over a whole-page scan.
func extractDate(doc *goquery.Document) time.Time {
	for _, sel := range dateSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if d := dates.Extract(nodeText(el)); !d.IsZero() {
			return d
		}
	}
	return dates.Extract(nodeText(doc.Selection))
}

// findContent returns the first content container with any text, or nil.
func findContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		el := doc.Find(sel).First()
		if el.Length() > 0 && nodeText(el) != "" {
			return el
		}
	}
	return nil
}

// extractParagraphs pulls the body paragraphs out of a content container.
// Paragraph elements are preferred; containers without them fall back to
// line-split text.
func extractParagraphs(content *goquery.Selection) []string {
	if content == nil {
		return nil
	}

	content.Find(kboardChromeSelectors).Remove()

	var paras []string
	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		if txt := nodeText(p); txt != "" {
			paras = append(paras, txt)
		}
	})
	if len(paras) > 0 {
		return paras
	}

	for line := range strings.SplitSeq(content.Text(), "\n") {
		if txt := strings.TrimSpace(line); txt != "" {
			paras = append(paras, txt)
		}
	}
	return paras
}
