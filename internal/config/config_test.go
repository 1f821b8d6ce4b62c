package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// clearEnv unsets every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DATABASE_URL", "SCRAPER_HEADLESS", "SCRAPER_PROXY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "keywords: [Proxy, '  ', Data]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Proxy", "Data"}, cfg.Keywords)
	assert.Equal(t, 10*time.Second, cfg.InterKeywordDelay())
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
	assert.True(t, cfg.IsHeadless())
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "caches", cfg.CacheDir)
	assert.Equal(t, "https://www.upwork.com", cfg.SiteOrigin)
	assert.Equal(t, "firefox", cfg.Browser)
	assert.Equal(t, "socks5://127.0.0.1:9150", cfg.Proxy())
	assert.Equal(t, IsolationProcess, cfg.Isolation)
	assert.Equal(t, 30*24*time.Hour, cfg.SeenRetention())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, `
keywords: [Proxy]
inter_keyword_delay_seconds: 2.5
fetch_timeout_seconds: 45
headless: false
output_dir: /tmp/out
browser: chromium
proxy_server: ""
isolation: inline
timezone: Asia/Ho_Chi_Minh
notify:
  include: [scrap]
  min_score: 3
`))
	require.NoError(t, err)

	assert.Equal(t, 2500*time.Millisecond, cfg.InterKeywordDelay())
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout())
	assert.False(t, cfg.IsHeadless())
	assert.Equal(t, "", cfg.Proxy())
	assert.Equal(t, IsolationInline, cfg.Isolation)
	assert.Equal(t, []string{"scrap"}, cfg.Notify.Include)
	assert.Equal(t, 3, cfg.Notify.MinScore)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
}

func TestLoad_ExplicitZeroDurations(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "keywords: [Proxy]\ninter_keyword_delay_seconds: 0\nfetch_timeout_seconds: 0\n"))
	require.NoError(t, err)

	// a zero in the file is a setting, not a gap for defaults to fill
	assert.Zero(t, cfg.InterKeywordDelay())
	assert.Zero(t, cfg.FetchTimeout())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-10042")
	t.Setenv("DATABASE_URL", "postgres://localhost/upwork")
	t.Setenv("SCRAPER_HEADLESS", "false")
	t.Setenv("SCRAPER_PROXY", "")

	cfg, err := Load(writeConfig(t, "keywords: [Proxy]\nproxy_server: socks5://10.0.0.1:9050\n"))
	require.NoError(t, err)

	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, int64(-10042), cfg.TelegramChatID)
	assert.Equal(t, "postgres://localhost/upwork", cfg.DatabaseURL)
	assert.False(t, cfg.IsHeadless())
	assert.Equal(t, "", cfg.Proxy())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "no keywords", body: "headless: true\n"},
		{name: "bad yaml", body: "keywords: [\n"},
		{name: "bad browser", body: "keywords: [a]\nbrowser: lynx\n"},
		{name: "bad isolation", body: "keywords: [a]\nisolation: thread\n"},
		{name: "relative origin", body: "keywords: [a]\nsite_origin: www.upwork.com\n"},
		{name: "bad timezone", body: "keywords: [a]\ntimezone: Mars/Olympus\n"},
		{name: "negative delay", body: "keywords: [a]\ninter_keyword_delay_seconds: -1\n"},
		{name: "negative timeout", body: "keywords: [a]\nfetch_timeout_seconds: -0.5\n"},
		{name: "token without chat", body: "keywords: [a]\n", env: map[string]string{"TELEGRAM_BOT_TOKEN": "x"}},
		{name: "bad chat id", body: "keywords: [a]\n", env: map[string]string{"TELEGRAM_CHAT_ID": "abc"}},
		{name: "bad headless", body: "keywords: [a]\n", env: map[string]string{"SCRAPER_HEADLESS": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	// nothing to scrape without a file
	assert.ErrorContains(t, err, "keywords")
}

func TestLoad_ShippedConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join("..", "..", DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, "Proxy", cfg.Keywords[0])
	assert.Contains(t, cfg.Keywords, "hospital information")
}
