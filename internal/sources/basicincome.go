package sources

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/partywatch/partycrawl/internal/models"
)

// basicincomeparty.kr runs KBoard. Real posts link like
// /news/briefing?mod=document&pageid=1&uid=8876; the press board instead
// links straight out to external articles.
var basicIncomePostPaths = map[string]struct{}{
	"/news/briefing": {},
	"/news/press":    {},
}

var uidRE = regexp.MustCompile(`(?:^|&)uid=(\d+)(?:&|$)`)

type basicIncome struct {
	base
}

func newBasicIncome(deps Deps, target models.Target) Adapter {
	return &basicIncome{base: newBase(deps, target)}
}

// List collects listing entries. The press board is handled separately: its
// rows carry external links and a date cell, while the briefing board is
// plain KBoard post links.
func (a *basicIncome) List(ctx context.Context, limit int) ([]models.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.client.GetDocument(a.target.ListURL, "")
	if err != nil {
		return nil, err
	}

	if strings.Contains(a.target.ListURL, "/news/press") {
		return capped(a.listPress(doc), limit), nil
	}
	return capped(a.listBoard(doc), limit), nil
}

// listPress parses the press board's KBoard rows, which link to external
// coverage and carry an explicit date cell.
func (a *basicIncome) listPress(doc *goquery.Document) []models.RawEntry {
	var out []models.RawEntry
	seen := map[string]struct{}{}

	doc.Find(".kboard-list tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td.kboard-list-title a[href]").First()
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		title := nodeText(link)
		if href == "" || title == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		out = append(out, a.entry(title, href, nodeText(row.Find("td.kboard-list-date").First())))
	})

	return out
}

// listBoard collects anchors that look like real KBoard posts: a known board
// path, mod=document, and a numeric uid.
func (a *basicIncome) listBoard(doc *goquery.Document) []models.RawEntry {
	var out []models.RawEntry
	seen := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		absURL := resolveURL(a.target.ListURL, href)
		if absURL == "" {
			return
		}

		parsed, err := url.Parse(absURL)
		if err != nil {
			return
		}
		if _, ok := basicIncomePostPaths[strings.TrimSuffix(parsed.Path, "/")]; !ok {
			return
		}
		if !strings.Contains(parsed.RawQuery, "mod=document") || !uidRE.MatchString(parsed.RawQuery) {
			return
		}

		title := nodeText(link)
		if title == "" {
			return
		}
		if _, dup := seen[absURL]; dup {
			return
		}
		seen[absURL] = struct{}{}

		out = append(out, a.entry(title, absURL, ""))
	})

	return out
}
