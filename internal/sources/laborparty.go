package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/partywatch/partycrawl/internal/models"
)

// laborparty.kr runs a KBoard listing; post links carry uid= and
// mod=document query parameters.

type laborParty struct {
	base
}

func newLaborParty(deps Deps, target models.Target) Adapter {
	return &laborParty{base: newBase(deps, target)}
}

// List collects post links from the KBoard listing rows.
func (a *laborParty) List(ctx context.Context, limit int) ([]models.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.client.GetDocument(a.target.ListURL, a.target.ListURL)
	if err != nil {
		return nil, err
	}

	var out []models.RawEntry
	seen := map[string]struct{}{}

	add := func(title, href, dateHint string) {
		absURL := resolveURL(a.target.ListURL, href)
		if absURL == "" {
			return
		}
		parsed, err := url.Parse(absURL)
		if err != nil {
			return
		}
		if parsed.Host != "" && !strings.Contains(parsed.Host, "laborparty.kr") {
			return
		}
		title = CleanTitle(title)
		if title == "" {
			return
		}
		if _, dup := seen[absURL]; dup {
			return
		}
		seen[absURL] = struct{}{}
		out = append(out, a.entry(title, absURL, dateHint))
	}

	doc.Find(".kboard-list tbody tr").Each(func(_ int, row *goquery.Selection) {
		title := nodeText(row)
		if el := row.Find(".kboard-thumbnail-cut-strings").First(); el.Length() > 0 {
			title = nodeText(el)
		}
		// The board marks recent rows with a "New" badge inside the
		// title cell.
		title = strings.TrimSpace(strings.ReplaceAll(CleanTitle(title), "New", ""))

		dateHint := laborDateHint(row)

		anchor := row.Find("a[href*='uid='][href*='mod=document']").First()
		if anchor.Length() == 0 {
			return
		}
		href, _ := anchor.Attr("href")
		add(title, href, dateHint)
	})

	if len(out) == 0 {
		doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			href, _ := anchor.Attr("href")
			text := nodeText(anchor)
			add(text, href, dateHintFrom(text))
		})
	}

	return capped(out, limit), nil
}

// laborDateHint reads the row's date cell, preferring the mobile layout's
// cell, then the desktop one, then anything date-shaped in the row text.
// Dedicated cells pass through raw: today's posts show a bare time there.
func laborDateHint(row *goquery.Selection) string {
	if el := row.Find(".kboard-mobile-contents .kboard-date").First(); el.Length() > 0 {
		if text := nodeText(el); text != "" {
			return text
		}
	}
	if el := row.Find("p.date span").First(); el.Length() > 0 {
		if text := nodeText(el); text != "" {
			return text
		}
	}
	return dateHintFrom(nodeText(row))
}
