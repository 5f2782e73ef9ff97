package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/partywatch/partycrawl/internal/models"
)

// rebuildingkoreaparty.kr renders its listings client-side, so the adapter
// talks to the board JSON API directly instead of scraping HTML.

const rebuildingAPIURL = "https://api.rebuildingkoreaparty.kr/api/board/list"

// rebuildingCategoryLabels maps listing paths to the board category labels
// the API reports, used to filter mixed API responses.
var rebuildingCategoryLabels = map[string]string{
	"/news/commentary-briefing": "논평브리핑",
	"/news/press-conference":    "기자회견문",
	"/news/press-release":       "보도자료",
}

// rebuildingPostPathRE matches canonical post paths like /news/press-release/123.
var rebuildingPostPathRE = regexp.MustCompile(`^/news/[^/]+/\d+$`)

// rebuildingListRequest is the board API's paging payload.
type rebuildingListRequest struct {
	Page       int    `json:"page"`
	CategoryID int    `json:"categoryId"`
	RecordSize int    `json:"recordSize"`
	PageSize   int    `json:"pageSize"`
	Order      string `json:"order"`
}

// rebuildingEnvelope tolerates the API's varying response shapes: the row
// array has appeared under several keys, sometimes nested under "data".
type rebuildingEnvelope struct {
	List     json.RawMessage `json:"list"`
	Items    json.RawMessage `json:"items"`
	Contents json.RawMessage `json:"contents"`
	Result   json.RawMessage `json:"result"`
	Data     json.RawMessage `json:"data"`
}

// rebuildingRow is one board row. Field names vary across API revisions, so
// every known spelling is declared and probed in order.
type rebuildingRow struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`

	CreatedAt string `json:"createdAt"`
	Date      string `json:"date"`
	RegDate   string `json:"regDate"`

	CategoryName      string `json:"categoryName"`
	BoardCategoryName string `json:"boardCategoryName"`
	Category          string `json:"category"`
	BoardCategory     string `json:"boardCategory"`
	CategoryLabel     string `json:"categoryLabel"`

	URL  string `json:"url"`
	Path string `json:"path"`

	ID      json.Number `json:"id"`
	BoardID json.Number `json:"boardId"`
	Idx     json.Number `json:"idx"`
}

type rebuildingKorea struct {
	base
}

func newRebuildingKorea(deps Deps, target models.Target) Adapter {
	return &rebuildingKorea{base: newBase(deps, target)}
}

// List queries the board API and converts matching rows into entries.
func (a *rebuildingKorea) List(ctx context.Context, limit int) ([]models.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	listURL, err := url.Parse(a.target.ListURL)
	if err != nil {
		return nil, fmt.Errorf("parse list url: %w", err)
	}
	boardPath := strings.TrimSuffix(listURL.Path, "/")
	expectedLabel := rebuildingCategoryLabels[boardPath]
	expectedSlug := strings.TrimPrefix(boardPath, "/news/")

	var envelope rebuildingEnvelope
	if err := a.client.PostJSON(rebuildingAPIURL, rebuildingListRequest{
		Page:       1,
		CategoryID: 7,
		RecordSize: 10,
		PageSize:   5,
		Order:      "recent",
	}, &envelope, "https://rebuildingkoreaparty.kr/"); err != nil {
		return nil, err
	}

	var out []models.RawEntry
	seen := map[string]struct{}{}

	for _, row := range envelope.rows() {
		entry, ok := a.rowEntry(row, listURL, boardPath, expectedSlug, expectedLabel)
		if !ok {
			continue
		}
		if _, dup := seen[entry.URL]; dup {
			continue
		}
		seen[entry.URL] = struct{}{}
		out = append(out, entry)
	}

	return capped(out, limit), nil
}

// rowEntry converts one API row into an entry, rejecting rows outside this
// target's board.
func (a *rebuildingKorea) rowEntry(
	row rebuildingRow,
	listURL *url.URL,
	boardPath, expectedSlug, expectedLabel string,
) (models.RawEntry, bool) {
	title := CleanTitle(firstNonEmpty(row.Title, row.Subject))
	if title == "" {
		return models.RawEntry{}, false
	}

	category := firstNonEmpty(
		row.CategoryName, row.BoardCategoryName, row.Category,
		row.BoardCategory, row.CategoryLabel,
	)

	href := firstNonEmpty(row.URL, row.Path)
	if href != "" {
		href = resolveURL(a.target.ListURL, href)
		if expectedSlug != "" && !strings.Contains(href, "/news/"+expectedSlug+"/") {
			// A row from another board is acceptable only when its
			// category label confirms it belongs here.
			if expectedLabel == "" || category == "" || !strings.Contains(category, expectedLabel) {
				return models.RawEntry{}, false
			}
		}
	} else {
		postID := firstNonEmpty(row.ID.String(), row.BoardID.String(), row.Idx.String())
		if postID == "" || postID == "0" {
			return models.RawEntry{}, false
		}
		href = fmt.Sprintf("%s://%s%s/%s", listURL.Scheme, listURL.Host, boardPath, postID)
	}

	if expectedLabel != "" && category != "" && !strings.Contains(category, expectedLabel) {
		return models.RawEntry{}, false
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return models.RawEntry{}, false
	}
	if parsed.Host != "" && !strings.Contains(parsed.Host, "rebuildingkoreaparty.kr") {
		return models.RawEntry{}, false
	}
	if !rebuildingPostPathRE.MatchString(parsed.Path) {
		return models.RawEntry{}, false
	}

	dateHint := firstNonEmpty(row.CreatedAt, row.Date, row.RegDate)

	return a.entry(title, href, dateHint), true
}

// rows extracts the row array from whichever key the API used this time.
func (e *rebuildingEnvelope) rows() []rebuildingRow {
	for _, raw := range []json.RawMessage{e.List, e.Items, e.Contents, e.Result} {
		if len(raw) == 0 {
			continue
		}
		var rows []rebuildingRow
		if err := json.Unmarshal(raw, &rows); err == nil && len(rows) > 0 {
			return rows
		}
	}

	if len(e.Data) > 0 {
		var nested rebuildingEnvelope
		if err := json.Unmarshal(e.Data, &nested); err == nil {
			return nested.rows()
		}
	}

	return nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
