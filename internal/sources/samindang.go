package sources

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/partywatch/partycrawl/internal/dates"
	"github.com/partywatch/partycrawl/internal/models"
)

// samindang.kr cards navigate via onclick handlers and data attributes as
// often as via anchors, and title cells mix in excerpt text, dates, and
// navigation labels. The adapter collects candidates from several shapes and
// filters hard.

// samindangNavWords are navigation labels that must never be mistaken for
// article titles.
var samindangNavWords = map[string]struct{}{
	"브리핑": {}, "공지": {}, "보도자료": {}, "정책": {}, "소식": {},
	"검색": {}, "전체": {}, "자료실": {}, "당원가입": {}, "로그인": {},
	"소개": {}, "소통": {}, "후원하기": {},
}

// samindangBriefingIDRE recovers a post id from serialized node HTML when no
// link attribute is present.
var samindangBriefingIDRE = regexp.MustCompile(`/news/briefing/(\d+)`)

// samindangTitleDateRE matches a bare registration date embedded in a title
// cell.
var samindangTitleDateRE = regexp.MustCompile(`(?:등록일\s*)?\d{4}-\d{2}-\d{2}`)

// samindangMinTitleLen rejects truncated or navigational titles.
const samindangMinTitleLen = 6

type samindang struct {
	base
}

func newSamindang(deps Deps, target models.Target) Adapter {
	return &samindang{base: newBase(deps, target)}
}

// List collects briefing entries. Explicit briefing list items are
// preferred; pages without them fall back to generic list containers, then
// to a whole-page anchor and onclick scan.
func (a *samindang) List(ctx context.Context, limit int) ([]models.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.client.GetDocument(a.target.ListURL, a.target.ListURL)
	if err != nil {
		return nil, err
	}

	c := &samindangCollector{adapter: a, seen: map[string]struct{}{}}

	nodes := doc.Find("li[data-url*='/news/briefing/'], li[id^='id_']")
	if nodes.Length() == 0 {
		nodes = doc.Find(".admin_list li, .board_list li, .board_list tr, .list li, .notice_list li, .news_list li")
	}

	nodes.Each(func(_ int, node *goquery.Selection) {
		c.addNode(node)
	})

	if nodes.Length() == 0 {
		doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			c.add(nodeText(link), href, "")
		})
		doc.Find("[onclick]").Each(func(_ int, node *goquery.Selection) {
			onclick, _ := node.Attr("onclick")
			if u := urlFromOnclick(onclick); u != "" {
				c.add(nodeText(node), u, "")
			}
		})
	}

	return capped(c.out, limit), nil
}

// samindangCollector accumulates deduplicated candidate entries.
type samindangCollector struct {
	adapter *samindang
	seen    map[string]struct{}
	out     []models.RawEntry
}

// addNode extracts a title, date, and link from one list node and records
// the candidate.
func (c *samindangCollector) addNode(node *goquery.Selection) {
	title := samindangTitle(node)
	dateHint := ""
	if el := node.Find(".info .date, .date").First(); el.Length() > 0 {
		dateHint = nodeText(el)
	}

	href := hrefFromAttrs(node, "/news/briefing/")
	if href == "" {
		if a := node.Find("a[href]").First(); a.Length() > 0 {
			href, _ = a.Attr("href")
		}
	}
	if href == "" {
		onclick, _ := node.Attr("onclick")
		href = urlFromOnclick(onclick)
	}
	if href == "" {
		if html, err := goquery.OuterHtml(node); err == nil {
			if m := samindangBriefingIDRE.FindStringSubmatch(html); m != nil {
				href = "/news/briefing/" + m[1]
			}
		}
	}

	c.add(title, href, dateHint)
}

// add validates a candidate and appends it.
func (c *samindangCollector) add(title, href, dateHint string) {
	a := c.adapter

	absURL := resolveURL(a.target.ListURL, href)
	if absURL == "" {
		return
	}

	parsed, err := url.Parse(absURL)
	if err != nil {
		return
	}
	if parsed.Host != "" && !strings.Contains(parsed.Host, "samindang.kr") {
		return
	}
	if !strings.HasPrefix(parsed.Path, "/news/") {
		return
	}
	if strings.TrimSuffix(absURL, "/") == strings.TrimSuffix(a.target.ListURL, "/") {
		return
	}

	// Strip an embedded date out of the title and keep it as the hint.
	if d := dates.Extract(title); !d.IsZero() && dateHint == "" {
		dateHint = d.Format("2006-01-02")
	}
	title = CleanTitle(samindangTitleDateRE.ReplaceAllString(title, ""))
	if title == "" || utf8.RuneCountInString(title) < samindangMinTitleLen {
		return
	}
	if _, nav := samindangNavWords[title]; nav {
		return
	}

	if _, dup := c.seen[absURL]; dup {
		return
	}
	c.seen[absURL] = struct{}{}

	c.out = append(c.out, a.entry(title, absURL, dateHint))
}

// samindangTitle prefers explicit title elements so excerpt text does not
// contaminate the title.
func samindangTitle(node *goquery.Selection) string {
	if el := node.Find(".contentBox .title, p.title, .title, .subject, .tit, h1, h2, h3, h4, h5").First(); el.Length() > 0 {
		return nodeText(el)
	}

	if a := node.Find("a").First(); a.Length() > 0 {
		if child := a.Find(".title, .subject, .tit, h1, h2, h3, h4, h5").First(); child.Length() > 0 {
			return nodeText(child)
		}
		return nodeText(a)
	}

	return nodeText(node)
}
