package pipeline

import (
	"context"

	"github.com/partywatch/partycrawl/internal/dates"
	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
	"github.com/partywatch/partycrawl/internal/sources"
)

// enrich fetches the entry's detail page and backfills whatever the item is
// missing. One fetch serves both the body and the date fallback. A fetch
// failure degrades the item to partial data; it never aborts the run.
func (p *Pipeline) enrich(
	ctx context.Context,
	adapter sources.Adapter,
	entry models.RawEntry,
	item *models.Item,
	log logger.Interface,
) {
	detail, err := adapter.FetchDetail(ctx, entry)
	if err != nil {
		log.Warn("detail fetch failed, continuing with partial item",
			"url", item.IdentityKey, "error", err)
		return
	}
	if detail == nil {
		return
	}

	if len(item.Body) == 0 {
		item.Body = detail.Paragraphs
	}
	if !item.HasDate() && !detail.Date.IsZero() {
		item.Date = dates.Day(detail.Date)
	}
}
