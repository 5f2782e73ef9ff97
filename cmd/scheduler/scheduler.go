// Package scheduler implements the scheduler command: periodic crawl runs
// on a cron schedule until interrupted.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/partywatch/partycrawl/cmd/common"
	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
	"github.com/partywatch/partycrawl/internal/notion"
	"github.com/partywatch/partycrawl/internal/pipeline"
	"github.com/partywatch/partycrawl/internal/sources"
)

// Command returns the scheduler command.
func Command() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run crawls periodically on a cron schedule",
		Long: `Scheduler runs a full crawl on the configured cron schedule and keeps
running until interrupted with Ctrl+C. Each run reseeds the dedup ledger
from the sink, so an interrupted run never causes duplicates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")
			return run(cmd.Context(), configPath, schedule, debug)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression overriding the configured schedule")

	return cmd
}

func run(parent context.Context, configPath, schedule string, debug bool) error {
	deps, err := common.NewCommandDeps(configPath, debug)
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

	sink, err := notion.NewClient(notion.Config{
		Token:      deps.Config.Notion.Token,
		DatabaseID: deps.Config.Notion.DatabaseID,
		Timeout:    deps.Config.Crawler.RequestTimeout,
	}, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to create sink client: %w", err)
	}

	cutoff, err := deps.Config.Crawler.CutoffDate()
	if err != nil {
		return err
	}

	if schedule == "" {
		schedule = deps.Config.Schedule.Cron
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &crawlRunner{
		targets: targets,
		deps:    crawlDeps,
		sink:    sink,
		opts: pipeline.Options{
			Limit:       deps.Config.Crawler.SampleLimit,
			Cutoff:      cutoff,
			ExcludeURLs: deps.Config.Crawler.ExcludeURLs,
		},
		log: deps.Logger.WithComponent("scheduler"),
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() { runner.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	deps.Logger.Info("Scheduler started", "schedule", schedule)
	scheduler.Start()

	<-ctx.Done()
	deps.Logger.Info("Scheduler stopping")

	// Let an in-flight run finish before exiting.
	<-scheduler.Stop().Done()
	runner.wait()
	return nil
}

// crawlRunner executes crawl runs one at a time; a tick that fires while a
// run is still in flight is skipped.
type crawlRunner struct {
	targets []models.Target
	deps    sources.Deps
	sink    pipeline.Sink
	opts    pipeline.Options
	log     logger.Interface

	mu      sync.Mutex
	running bool
	done    sync.WaitGroup
}

func (r *crawlRunner) runOnce(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.log.Warn("previous run still in flight, skipping tick")
		return
	}
	r.running = true
	r.done.Add(1)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		r.done.Done()
	}()

	r.log.Info("Scheduled crawl starting")
	stats, err := pipeline.New(r.targets, r.deps, r.sink, r.opts, r.log).Run(ctx)
	if err != nil {
		r.log.Error("Scheduled crawl failed", "error", err)
		return
	}

	total := pipeline.Totals(stats)
	r.log.Info("Scheduled crawl finished",
		"attempted", total.Attempted,
		"sunk", total.Sunk,
		"duplicate", total.Duplicate,
		"filtered", total.Filtered,
		"failed", total.Failed,
	)
}

func (r *crawlRunner) wait() {
	r.done.Wait()
}
