// Package pipeline drives a crawl run: listing each selected target,
// normalizing and deduplicating entries, enriching them from detail pages,
// filtering by date, and writing survivors to the sink.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/partywatch/partycrawl/internal/dates"
	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
	"github.com/partywatch/partycrawl/internal/notion"
	"github.com/partywatch/partycrawl/internal/sources"
	"github.com/partywatch/partycrawl/internal/urlnorm"
)

// DefaultLimit bounds how many listing entries are pulled per target when
// no sample limit is configured.
const DefaultLimit = 10

// Sink is the destination store as the pipeline consumes it.
type Sink interface {
	ExistingLinks(ctx context.Context) ([]string, error)
	Create(ctx context.Context, record *models.Record) error
}

// Options selects targets and tunes one run.
type Options struct {
	// Site restricts the run to targets of one site adapter.
	Site string
	// Category restricts the run to targets with this category.
	Category string
	// TargetID restricts the run to a single target.
	TargetID string
	// ExcludeSites drops targets whose site is listed.
	ExcludeSites []string

	// Limit is the per-target listing sample size.
	Limit int
	// Cutoff is the inclusive lower bound on publish dates.
	Cutoff time.Time
	// ExcludeURLs lists post URLs never to sink (terms-of-service pages
	// and similar board fixtures).
	ExcludeURLs []string
	// DryRun lists and filters without seeding the ledger or writing.
	DryRun bool

	// Now supplies the run's clock; nil means time.Now.
	Now func() time.Time
}

// Stats accumulates one target's outcome counts.
type Stats struct {
	SourceID  string
	Party     string
	Category  string
	Attempted int
	Sunk      int
	Duplicate int
	Filtered  int
	Failed    int
}

// Pipeline wires the crawl stages for a configured set of targets.
type Pipeline struct {
	targets []models.Target
	deps    sources.Deps
	sink    Sink
	norm    *urlnorm.Normalizer
	opts    Options
	log     logger.Interface

	// forTarget builds a target's adapter; swapped in tests.
	forTarget func(deps sources.Deps, target models.Target) (sources.Adapter, error)
}

// New builds a pipeline over the given targets.
func New(targets []models.Target, deps sources.Deps, sink Sink, opts Options, log logger.Interface) *Pipeline {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Cutoff.IsZero() {
		opts.Cutoff = DefaultCutoff
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Pipeline{
		targets:   targets,
		deps:      deps,
		sink:      sink,
		norm:      urlnorm.NewDefault(),
		opts:      opts,
		log:       log.WithComponent("pipeline"),
		forTarget: sources.ForTarget,
	}
}

// Run executes one crawl over the selected targets, sequentially, and
// returns per-target stats. A ledger-seed failure or an authentication
// failure at the sink aborts the run; everything else is logged and the run
// continues.
func (p *Pipeline) Run(ctx context.Context) ([]Stats, error) {
	ledger, err := p.seedLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed identity ledger: %w", err)
	}

	excluded := make(map[string]struct{}, len(p.opts.ExcludeURLs))
	for _, raw := range p.opts.ExcludeURLs {
		excluded[p.norm.Normalize(raw)] = struct{}{}
	}

	var all []Stats
	for _, target := range p.selected() {
		stats, err := p.runTarget(ctx, target, ledger, excluded)
		all = append(all, stats)
		if err != nil {
			return all, err
		}
	}

	return all, nil
}

// seedLedger loads the sink's existing links and normalizes them into
// identity keys. Running without the seed risks mass duplicate creation, so
// a failure here is fatal.
func (p *Pipeline) seedLedger(ctx context.Context) (*Ledger, error) {
	if p.opts.DryRun {
		return NewLedger(nil), nil
	}

	links, err := p.sink.ExistingLinks(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(links))
	for i, link := range links {
		keys[i] = p.norm.Normalize(link)
	}

	ledger := NewLedger(keys)
	p.log.Info("identity ledger seeded", "known", ledger.Len())
	return ledger, nil
}

// runTarget pulls one target's listing and runs every entry through the
// pipeline stages in listing order.
func (p *Pipeline) runTarget(
	ctx context.Context,
	target models.Target,
	ledger *Ledger,
	excluded map[string]struct{},
) (Stats, error) {
	stats := Stats{SourceID: target.ID, Party: target.Party, Category: target.Category}
	log := p.log.WithSource(target.ID)

	adapter, err := p.forTarget(p.deps, target)
	if err != nil {
		log.Error("no adapter for target", "site", target.Site, "error", err)
		return stats, nil
	}

	entries, err := adapter.List(ctx, p.opts.Limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		log.Error("listing failed", "url", target.ListURL, "error", err)
		return stats, nil
	}
	log.Info("listing fetched", "entries", len(entries))

	for _, entry := range entries {
		// Interruption lands between items, never mid-item.
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := p.process(ctx, adapter, entry, ledger, excluded, &stats, log); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// process runs a single entry through normalize, dedup, enrich, filter and
// sink. Only a fatal sink failure returns an error.
func (p *Pipeline) process(
	ctx context.Context,
	adapter sources.Adapter,
	entry models.RawEntry,
	ledger *Ledger,
	excluded map[string]struct{},
	stats *Stats,
	log logger.Interface,
) error {
	stats.Attempted++

	key := p.norm.Normalize(entry.URL)
	if _, skip := excluded[key]; skip {
		stats.Filtered++
		return nil
	}

	if ledger.Seen(key) {
		stats.Duplicate++
		log.Debug("duplicate skipped", "url", key)
		return nil
	}

	item := &models.Item{
		IdentityKey: key,
		SourceID:    entry.SourceID,
		Party:       entry.Party,
		Category:    entry.Category,
		Title:       entry.Title,
		Date:        dates.Resolve(entry.DateHint, entry.Title, p.opts.Now(), nil),
	}

	if item.NeedsEnrichment() {
		p.enrich(ctx, adapter, entry, item, log)
	}

	if !passesCutoff(item, p.opts.Cutoff) {
		stats.Filtered++
		log.Debug("filtered by date", "url", key, "date", item.Date)
		return nil
	}

	if p.opts.DryRun {
		ledger.Record(key)
		stats.Sunk++
		log.Info("would sink", "url", key, "title", item.Title)
		return nil
	}

	if err := p.sink.Create(ctx, models.RecordFromItem(item)); err != nil {
		if notion.KindOf(err) == notion.KindAuth {
			return fmt.Errorf("sink rejected credentials: %w", err)
		}
		stats.Failed++
		log.Error("sink write failed", "url", key, "error", err)
		return nil
	}

	ledger.Record(key)
	stats.Sunk++
	log.Info("record created", "url", key, "title", item.Title)
	return nil
}

// selected filters the configured targets by the run's predicates.
func (p *Pipeline) selected() []models.Target {
	var out []models.Target
	for _, target := range p.targets {
		if p.opts.TargetID != "" && target.ID != p.opts.TargetID {
			continue
		}
		if p.opts.Site != "" && target.Site != p.opts.Site {
			continue
		}
		if p.opts.Category != "" && target.Category != p.opts.Category {
			continue
		}
		if slices.Contains(p.opts.ExcludeSites, target.Site) {
			continue
		}
		out = append(out, target)
	}
	return out
}

// Totals sums per-target stats for end-of-run reporting.
func Totals(all []Stats) Stats {
	total := Stats{SourceID: "total"}
	for _, s := range all {
		total.Attempted += s.Attempted
		total.Sunk += s.Sunk
		total.Duplicate += s.Duplicate
		total.Filtered += s.Filtered
		total.Failed += s.Failed
	}
	return total
}
