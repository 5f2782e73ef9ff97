package sources

import (
	"context"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/partywatch/partycrawl/internal/models"
)

// kgreens.kr lists posts as ul.li_body blocks with a titled link and a
// li.time cell whose title attribute carries the full timestamp.

const kgreensMinTitleLen = 6

type kGreens struct {
	base
}

func newKGreens(deps Deps, target models.Target) Adapter {
	return &kGreens{base: newBase(deps, target)}
}

// List collects post links from the press listing blocks.
func (a *kGreens) List(ctx context.Context, limit int) ([]models.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.client.GetDocument(a.target.ListURL, "")
	if err != nil {
		return nil, err
	}

	var out []models.RawEntry
	seen := map[string]struct{}{}

	doc.Find("ul.li_body").Each(func(_ int, block *goquery.Selection) {
		anchor := block.Find("a.list_text_title").First()
		if anchor.Length() == 0 {
			return
		}
		href, _ := anchor.Attr("href")

		absURL := resolveURL(a.target.ListURL, href)
		if absURL == "" {
			return
		}
		if _, dup := seen[absURL]; dup {
			return
		}

		title := nodeText(anchor)
		if title == "" || utf8.RuneCountInString(title) < kgreensMinTitleLen {
			return
		}

		var dateHint string
		if timeCell := block.Find("li.time").First(); timeCell.Length() > 0 {
			// The title attribute holds the full timestamp; the
			// visible text may be a relative age.
			dateText, _ := timeCell.Attr("title")
			if dateText == "" {
				dateText = nodeText(timeCell)
			}
			dateHint = dateHintFrom(dateText)
		}

		seen[absURL] = struct{}{}
		out = append(out, a.entry(title, absURL, dateHint))
	})

	return capped(out, limit), nil
}
