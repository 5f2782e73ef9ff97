// Package sources implements the per-site adapters that turn party-site
// listing pages into raw pipeline entries. Site-specific parsing lives
// entirely inside each adapter; the rest of the pipeline is polymorphic over
// the Adapter interface and never branches on which site it is talking to.
package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/partywatch/partycrawl/internal/fetch"
	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
)

// ErrUnknownSite indicates a target references a site with no registered
// adapter.
var ErrUnknownSite = errors.New("no adapter registered for site")

// Adapter produces listing entries for one configured target and can fetch
// an entry's detail page to recover missing body text or a publish date.
type Adapter interface {
	// Target returns the target this adapter serves.
	Target() models.Target
	// List fetches the target's listing page and returns up to limit raw
	// entries in listing order. A limit of zero means no cap.
	List(ctx context.Context, limit int) ([]models.RawEntry, error)
	// FetchDetail retrieves an entry's detail page. Failures are returned
	// as *fetch.Error so the enricher can degrade instead of aborting.
	FetchDetail(ctx context.Context, entry models.RawEntry) (*models.Detail, error)
}

// Deps carries the collaborators shared by all adapters.
type Deps struct {
	Client *fetch.Client
	Detail *DetailFetcher
	Logger logger.Interface
}

// builder constructs a site adapter for one target.
type builder func(deps Deps, target models.Target) Adapter

// builders maps site identifiers to their adapter constructors.
var builders = map[string]builder{
	"basicincomeparty":     newBasicIncome,
	"samindang":            newSamindang,
	"rebuildingkoreaparty": newRebuildingKorea,
	"jinboparty":           newJinboparty,
	"laborparty":           newLaborParty,
	"kgreens":              newKGreens,
	"justice21":            newJustice21,
}

// Sites returns the site identifiers with a registered adapter.
func Sites() []string {
	out := make([]string, 0, len(builders))
	for site := range builders {
		out = append(out, site)
	}
	return out
}

// ForTarget builds the adapter for a target.
func ForTarget(deps Deps, target models.Target) (Adapter, error) {
	build, ok := builders[target.Site]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, target.Site)
	}
	return build(deps, target), nil
}

// base carries the state common to all site adapters and implements the
// Target and FetchDetail halves of the Adapter interface.
type base struct {
	target models.Target
	client *fetch.Client
	detail *DetailFetcher
	log    logger.Interface
}

func newBase(deps Deps, target models.Target) base {
	return base{
		target: target,
		client: deps.Client,
		detail: deps.Detail,
		log:    deps.Logger.WithSource(target.ID),
	}
}

// Target returns the target this adapter serves.
func (b *base) Target() models.Target {
	return b.target
}

// FetchDetail retrieves an entry's detail page through the shared detail
// fetcher.
func (b *base) FetchDetail(ctx context.Context, entry models.RawEntry) (*models.Detail, error) {
	return b.detail.Fetch(ctx, entry.URL)
}

// entry builds a RawEntry for this adapter's target.
func (b *base) entry(title, url, dateHint string) models.RawEntry {
	return models.RawEntry{
		SourceID: b.target.ID,
		Party:    b.target.Party,
		Category: b.target.Category,
		Title:    title,
		URL:      url,
		DateHint: dateHint,
	}
}

// capped truncates entries to the listing limit, preserving order.
func capped(entries []models.RawEntry, limit int) []models.RawEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
