// Package common provides the shared dependency wiring for the CLI
// commands.
package common

import (
	"fmt"

	"github.com/partywatch/partycrawl/internal/config"
	"github.com/partywatch/partycrawl/internal/fetch"
	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
	"github.com/partywatch/partycrawl/internal/sources"
)

// CommandDeps holds the dependencies every command starts from.
type CommandDeps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewCommandDeps loads the configuration and builds the logger.
func NewCommandDeps(configPath string, debug bool) (*CommandDeps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := &logger.Config{
		Level:       logger.Level(cfg.Logging.Level),
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
		OutputPaths: cfg.Logging.OutputPaths,
	}
	if debug {
		logCfg.Level = logger.DebugLevel
		logCfg.Development = true
	}

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &CommandDeps{Config: cfg, Logger: log}, nil
}

// LoadTargets reads the crawl targets from the configured sources file.
func (d *CommandDeps) LoadTargets() ([]models.Target, error) {
	targets, err := sources.LoadTargets(d.Config.Crawler.SourcesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load targets from %s: %w",
			d.Config.Crawler.SourcesPath, err)
	}
	return targets, nil
}

// Crawling assembles the fetch client, browser session and adapter
// dependencies. The returned cleanup closes the browser.
func (d *CommandDeps) Crawling() (sources.Deps, func(), error) {
	crawlerCfg := d.Config.Crawler

	client, err := fetch.NewClient(fetch.ClientConfig{
		UserAgent:  crawlerCfg.UserAgent,
		Timeout:    crawlerCfg.RequestTimeout,
		Delay:      crawlerCfg.RequestDelay,
		MaxRetries: crawlerCfg.MaxRetries,
		RetryWait:  crawlerCfg.RetryWait,
	}, d.Logger)
	if err != nil {
		return sources.Deps{}, nil, fmt.Errorf("failed to create fetch client: %w", err)
	}

	browser := fetch.NewBrowser(fetch.BrowserConfig{
		UserAgent:   crawlerCfg.UserAgent,
		PageTimeout: crawlerCfg.RequestTimeout,
	}, d.Logger)

	deps := sources.Deps{
		Client: client,
		Detail: sources.NewDetailFetcher(client, browser, d.Logger),
		Logger: d.Logger,
	}

	return deps, func() { browser.Close() }, nil
}
