// Package config initializes the application's configuration via Viper,
// unifying config files, environment variables, and CLI flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Init loads configuration into the global Viper instance. cfgFile, when
// non-empty, pins a specific config file; otherwise the usual search paths
// are tried. A missing config file is not an error: defaults and environment
// variables are enough to run.
func Init(cfgFile string) error {
	setDefaults()

	viper.SetEnvPrefix("CRAWLER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/crawlkit/")
		viper.AddConfigPath("$HOME/.crawlkit")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("crawler.user_agent", "crawlkit/1.0 (+https://github.com/avolkov/crawlkit)")
	viper.SetDefault("crawler.max_depth", 2)
	viper.SetDefault("crawler.max_pages", 100)
	viper.SetDefault("crawler.request_timeout", "10s")
	viper.SetDefault("crawler.follow_external_links", false)
	viper.SetDefault("crawler.start_domain", "")
	viper.SetDefault("crawler.concurrency", 8)
	viper.SetDefault("crawler.max_run_time", "0s")

	viper.SetDefault("logging.development", false)
	viper.SetDefault("logging.level", "")

	viper.SetDefault("server.listen_addr", ":8080")
	viper.SetDefault("server.shutdown_timeout", "10s")
}
