package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// Init writes into the global Viper instance, so these tests reset it and
// cannot run in parallel.

func TestInitDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, Init(""))

	require.Equal(t, 2, viper.GetInt("crawler.max_depth"))
	require.Equal(t, 100, viper.GetInt("crawler.max_pages"))
	require.Equal(t, 10*time.Second, viper.GetDuration("crawler.request_timeout"))
	require.False(t, viper.GetBool("crawler.follow_external_links"))
	require.Equal(t, 8, viper.GetInt("crawler.concurrency"))
	require.Equal(t, ":8080", viper.GetString("server.listen_addr"))
}

func TestInitConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "crawler:\n  max_depth: 5\n  concurrency: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, Init(path))

	require.Equal(t, 5, viper.GetInt("crawler.max_depth"))
	require.Equal(t, 3, viper.GetInt("crawler.concurrency"))
	// Untouched keys keep their defaults.
	require.Equal(t, 100, viper.GetInt("crawler.max_pages"))
}

func TestInitMissingPinnedFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	err := Init(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestInitEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("CRAWLER_CRAWLER_MAX_PAGES", "7")
	require.NoError(t, Init(""))

	require.Equal(t, 7, viper.GetInt("crawler.max_pages"))
}
