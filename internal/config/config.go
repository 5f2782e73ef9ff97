// Package config loads the crawler configuration from an optional YAML file,
// environment variables, and defaults, in that order of increasing
// precedence for the environment-bound credentials.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultSourcesPath       = "config/sources.yml"
	defaultRequestTimeoutSec = 20
	defaultRequestDelayMs    = 1200
	defaultMaxRetries        = 2
	defaultRetryWaitSec      = 2
	defaultSampleLimit       = 10
	defaultCutoff            = "2026-01-01"
	defaultLogLevel          = "info"
	defaultLogEncoding       = "json"
	defaultSchedule          = "0 */6 * * *"
)

// Config is the root configuration.
type Config struct {
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Notion   NotionConfig   `mapstructure:"notion"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// CrawlerConfig tunes listing and detail fetching.
type CrawlerConfig struct {
	SourcesPath    string        `mapstructure:"sources_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RequestDelay   time.Duration `mapstructure:"request_delay"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryWait      time.Duration `mapstructure:"retry_wait"`
	UserAgent      string        `mapstructure:"user_agent"`
	SampleLimit    int           `mapstructure:"sample_limit"`
	Cutoff         string        `mapstructure:"cutoff"`
	ExcludeURLs    []string      `mapstructure:"exclude_urls"`
}

// NotionConfig carries the sink credentials. Both values come from the
// environment, never from the config file.
type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	Development bool     `mapstructure:"development"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// ScheduleConfig configures the periodic runner.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// CutoffDate parses the configured cutoff into a UTC calendar date.
func (c *CrawlerConfig) CutoffDate() (time.Time, error) {
	cutoff, err := time.ParseInLocation("2006-01-02", c.Cutoff, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cutoff %q: %w", c.Cutoff, err)
	}
	return cutoff, nil
}

// Load reads the configuration. configPath may be empty, in which case only
// defaults and environment variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("partycrawl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The sink credentials keep their legacy variable names.
	_ = v.BindEnv("notion.token", "NOTION_TOKEN")
	_ = v.BindEnv("notion.database_id", "NOTION_DATABASE_ID")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if _, err := cfg.Crawler.CutoffDate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.sources_path", defaultSourcesPath)
	v.SetDefault("crawler.request_timeout", defaultRequestTimeoutSec*time.Second)
	v.SetDefault("crawler.request_delay", defaultRequestDelayMs*time.Millisecond)
	v.SetDefault("crawler.max_retries", defaultMaxRetries)
	v.SetDefault("crawler.retry_wait", defaultRetryWaitSec*time.Second)
	v.SetDefault("crawler.sample_limit", defaultSampleLimit)
	v.SetDefault("crawler.cutoff", defaultCutoff)
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.encoding", defaultLogEncoding)
	v.SetDefault("schedule.cron", defaultSchedule)
}
