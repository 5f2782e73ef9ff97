package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/partywatch/partycrawl/internal/models"
)

// justice21.org serves classic board pages; post links look like
// board_view.html?bbs_code=JS21&bbs_no=18761.

// justice21IDParams are the query keys boards use for the post number.
var justice21IDParams = []string{"bbs_no", "num", "no"}

type justice21 struct {
	base

	expectedCode string
}

func newJustice21(deps Deps, target models.Target) Adapter {
	a := &justice21{base: newBase(deps, target)}
	if u, err := url.Parse(target.ListURL); err == nil {
		a.expectedCode = u.Query().Get("bbs_code")
	}
	return a
}

// List scans the page's anchors for board_view links on this board.
func (a *justice21) List(ctx context.Context, limit int) ([]models.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.client.GetDocument(a.target.ListURL, "")
	if err != nil {
		return nil, err
	}

	var out []models.RawEntry
	seen := map[string]struct{}{}

	doc.Find("a").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if href == "" {
			onclick, _ := anchor.Attr("onclick")
			href = urlFromOnclick(onclick)
		}
		if href == "" {
			return
		}

		entry, ok := a.anchorEntry(anchor, href)
		if !ok {
			return
		}
		if _, dup := seen[entry.URL]; dup {
			return
		}
		seen[entry.URL] = struct{}{}
		out = append(out, entry)
	})

	return capped(out, limit), nil
}

// anchorEntry converts an anchor into an entry when it is a post-view link
// on this adapter's board.
func (a *justice21) anchorEntry(anchor *goquery.Selection, href string) (models.RawEntry, bool) {
	absURL := resolveURL(a.target.ListURL, href)
	if absURL == "" {
		return models.RawEntry{}, false
	}

	parsed, err := url.Parse(absURL)
	if err != nil {
		return models.RawEntry{}, false
	}
	if !strings.Contains(parsed.Path, "board_view") {
		return models.RawEntry{}, false
	}

	query := parsed.Query()

	// Links may omit the board code; only an explicit mismatch rejects.
	if a.expectedCode != "" {
		if code := query.Get("bbs_code"); code != "" && code != a.expectedCode {
			return models.RawEntry{}, false
		}
	}

	postNo := ""
	for _, key := range justice21IDParams {
		if v := query.Get(key); v != "" {
			postNo = v
			break
		}
	}
	if postNo == "" {
		return models.RawEntry{}, false
	}

	title := CleanTitle(nodeText(anchor))
	if title == "" {
		return models.RawEntry{}, false
	}

	// The row wrapping the anchor usually carries the post date.
	dateHint := ""
	if row := anchor.Closest("tr, li, div"); row.Length() > 0 {
		dateHint = dateHintFrom(nodeText(row))
	}

	return a.entry(title, absURL, dateHint), true
}
