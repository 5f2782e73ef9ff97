package pipeline

import (
	"time"

	"github.com/partywatch/partycrawl/internal/models"
)

// DefaultCutoff is the inclusive lower bound on publish dates when no
// cutoff is configured. It keeps a first run from flooding the sink with
// historical posts.
var DefaultCutoff = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// passesCutoff reports whether an item's resolved date admits it to the
// sink. An unresolved date never passes, regardless of cutoff.
func passesCutoff(item *models.Item, cutoff time.Time) bool {
	if !item.HasDate() {
		return false
	}
	return !item.Date.Before(cutoff)
}
