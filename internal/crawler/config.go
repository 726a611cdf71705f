package crawler

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings for a single crawl run. All fields are validated
// before any network activity happens.
type Config struct {
	// MaxDepth bounds link-chain length from the seed; 0 crawls the seed only.
	MaxDepth int
	// MaxPages is the hard cap on successfully committed pages.
	MaxPages int
	// Timeout bounds each individual fetch.
	Timeout time.Duration
	// FollowExternalLinks permits links whose host differs from StartDomain.
	FollowExternalLinks bool
	// StartDomain is the host whitelist applied when FollowExternalLinks is
	// false. Empty means "derive from the seed URL".
	StartDomain string
	// Concurrency is the worker count.
	Concurrency int
	// MaxRunTime optionally bounds total wall clock for the run; 0 disables
	// the ceiling.
	MaxRunTime time.Duration
}

// LoadConfig constructs a Config by reading from Viper so runs can be
// configured via files, env vars, or CLI flags.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		MaxDepth:            v.GetInt("crawler.max_depth"),
		MaxPages:            v.GetInt("crawler.max_pages"),
		Timeout:             v.GetDuration("crawler.request_timeout"),
		FollowExternalLinks: v.GetBool("crawler.follow_external_links"),
		StartDomain:         v.GetString("crawler.start_domain"),
		Concurrency:         v.GetInt("crawler.concurrency"),
		MaxRunTime:          v.GetDuration("crawler.max_run_time"),
	}
	return cfg, cfg.Validate()
}

// Validate checks every field against its constraint.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("crawler.max_pages must be >= 1, got %d", c.MaxPages)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0, got %s", c.Timeout)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("crawler.concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.MaxRunTime < 0 {
		return fmt.Errorf("crawler.max_run_time must be >= 0, got %s", c.MaxRunTime)
	}
	return nil
}
