// Package crawl implements the crawl command: one full run over the
// configured party announcement sources.
package crawl

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/partywatch/partycrawl/cmd/common"
	"github.com/partywatch/partycrawl/internal/notion"
	"github.com/partywatch/partycrawl/internal/pipeline"
)

// options holds the crawl command's flag values.
type options struct {
	configPath string
	debug      bool

	site     string
	category string
	targetID string
	exclude  string
	limit    int
	dateFrom string
	dryRun   bool
}

// Command returns the crawl command.
func Command() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the configured sources and sink new announcements",
		Long: `Crawl lists each configured party announcement source, skips
already-persisted posts, enriches new ones from their detail pages and
writes them to the Notion database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.debug, _ = cmd.Flags().GetBool("debug")
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.site, "source", "", "restrict the run to one site adapter")
	cmd.Flags().StringVar(&opts.category, "category", "", "restrict the run to one category")
	cmd.Flags().StringVar(&opts.targetID, "id", "", "restrict the run to a single target id")
	cmd.Flags().StringVar(&opts.exclude, "exclude", "", "comma-separated site ids to skip")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "per-source listing sample size")
	cmd.Flags().StringVar(&opts.dateFrom, "date-from", "", "inclusive date cutoff (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "list and filter without writing to the sink")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	deps, err := common.NewCommandDeps(opts.configPath, opts.debug)
	if err != nil {
		return err
	}

	targets, err := deps.LoadTargets()
	if err != nil {
		return err
	}

	crawlDeps, cleanup, err := deps.Crawling()
	if err != nil {
		return err
	}
	defer cleanup()

	var sink pipeline.Sink
	if !opts.dryRun {
		client, err := notion.NewClient(notion.Config{
			Token:      deps.Config.Notion.Token,
			DatabaseID: deps.Config.Notion.DatabaseID,
			Timeout:    deps.Config.Crawler.RequestTimeout,
		}, deps.Logger)
		if err != nil {
			return fmt.Errorf("failed to create sink client: %w", err)
		}
		sink = client
	}

	pipeOpts, err := pipelineOptions(opts, deps)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, runErr := pipeline.New(targets, crawlDeps, sink, pipeOpts, deps.Logger).Run(ctx)
	renderStats(stats)
	if runErr != nil {
		return fmt.Errorf("crawl run failed: %w", runErr)
	}

	return nil
}

// pipelineOptions converts flags and configuration into run options. Flags
// win over the config file.
func pipelineOptions(opts *options, deps *common.CommandDeps) (pipeline.Options, error) {
	crawlerCfg := deps.Config.Crawler

	cutoff, err := crawlerCfg.CutoffDate()
	if err != nil {
		return pipeline.Options{}, err
	}
	if opts.dateFrom != "" {
		cutoff, err = time.ParseInLocation("2006-01-02", opts.dateFrom, time.UTC)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("invalid --date-from: %w", err)
		}
	}

	limit := crawlerCfg.SampleLimit
	if opts.limit > 0 {
		limit = opts.limit
	}

	var excludeSites []string
	for part := range strings.SplitSeq(opts.exclude, ",") {
		if part = strings.TrimSpace(part); part != "" {
			excludeSites = append(excludeSites, part)
		}
	}

	return pipeline.Options{
		Site:         opts.site,
		Category:     opts.category,
		TargetID:     opts.targetID,
		ExcludeSites: excludeSites,
		Limit:        limit,
		Cutoff:       cutoff,
		ExcludeURLs:  crawlerCfg.ExcludeURLs,
		DryRun:       opts.dryRun,
	}, nil
}

// renderStats prints the per-source outcome table.
func renderStats(stats []pipeline.Stats) {
	if len(stats) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Party", "Category", "Attempted", "Sunk", "Duplicate", "Filtered", "Failed"})

	for _, s := range stats {
		t.AppendRow(table.Row{
			s.SourceID, s.Party, s.Category,
			s.Attempted, s.Sunk, s.Duplicate, s.Filtered, s.Failed,
		})
	}

	total := pipeline.Totals(stats)
	t.AppendFooter(table.Row{
		"total", "", "",
		total.Attempted, total.Sunk, total.Duplicate, total.Filtered, total.Failed,
	})

	t.Render()
}
