// Load envs from .env
// Load YAML config
// Override with env vars, fill defaults, validate

package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

const (
	IsolationProcess = "process"
	IsolationInline  = "inline"
)

type Config struct {
	Keywords                 []string `yaml:"keywords"`
	InterKeywordDelaySeconds *float64 `yaml:"inter_keyword_delay_seconds"`
	//0 disables the fetch timeout
	FetchTimeoutSeconds *float64 `yaml:"fetch_timeout_seconds"`
	Headless            *bool    `yaml:"headless"`
	//Paths
	OutputDir     string `yaml:"output_dir"`
	CacheDir      string `yaml:"cache_dir"`
	CookiesPath   string `yaml:"cookies_path"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	//Browser
	SiteOrigin  string  `yaml:"site_origin"`
	Browser     string  `yaml:"browser"`
	ProxyServer *string `yaml:"proxy_server"`
	Isolation   string  `yaml:"isolation"`
	Timezone    string  `yaml:"timezone"`
	//Optional integrations
	StatusAddr     string       `yaml:"status_addr"`
	DatabaseURL    string       `yaml:"database_url"`
	TelegramToken  string       `yaml:"telegram_token"`
	TelegramChatID int64        `yaml:"telegram_chat_id"`
	Notify         NotifyConfig `yaml:"notify"`
}

// NotifyConfig decides which scraped listings are pushed to Telegram.
type NotifyConfig struct {
	Include           []string `yaml:"include"`
	Exclude           []string `yaml:"exclude"`
	MinScore          int      `yaml:"min_score"`
	SeenRetentionDays int      `yaml:"seen_retention_days"`
}

// Load reads .env (if any), then the YAML file at path, then env overrides.
// A missing file is not an error as long as the result validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("Warning: Could not read %s: %v", path, err)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.DatabaseURL = dsn
	}
	if v := os.Getenv("SCRAPER_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SCRAPER_HEADLESS: %w", err)
		}
		c.Headless = &headless
	}
	//set but empty disables the proxy
	if v, ok := os.LookupEnv("SCRAPER_PROXY"); ok {
		c.ProxyServer = &v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.InterKeywordDelaySeconds == nil {
		delay := 10.0
		c.InterKeywordDelaySeconds = &delay
	}
	if c.FetchTimeoutSeconds == nil {
		timeout := 30.0
		c.FetchTimeoutSeconds = &timeout
	}
	if c.Headless == nil {
		headless := true
		c.Headless = &headless
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.CacheDir == "" {
		c.CacheDir = "caches"
	}
	if c.SiteOrigin == "" {
		c.SiteOrigin = "https://www.upwork.com"
	}
	if c.Browser == "" {
		c.Browser = "firefox"
	}
	if c.ProxyServer == nil {
		proxy := "socks5://127.0.0.1:9150"
		c.ProxyServer = &proxy
	}
	if c.Isolation == "" {
		c.Isolation = IsolationProcess
	}
	if c.Notify.SeenRetentionDays == 0 {
		c.Notify.SeenRetentionDays = 30
	}

	kept := c.Keywords[:0]
	for _, kw := range c.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kept = append(kept, kw)
		}
	}
	c.Keywords = kept
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.Keywords) == 0 {
		errs = append(errs, errors.New("keywords: at least one keyword is required"))
	}
	if c.InterKeywordDelay() < 0 {
		errs = append(errs, errors.New("inter_keyword_delay_seconds must not be negative"))
	}
	if c.FetchTimeout() < 0 {
		errs = append(errs, errors.New("fetch_timeout_seconds must not be negative"))
	}
	switch c.Browser {
	case "firefox", "chromium", "webkit":
	default:
		errs = append(errs, fmt.Errorf("browser %q: want firefox, chromium or webkit", c.Browser))
	}
	switch c.Isolation {
	case IsolationProcess, IsolationInline:
	default:
		errs = append(errs, fmt.Errorf("isolation %q: want %s or %s", c.Isolation, IsolationProcess, IsolationInline))
	}
	if u, err := url.Parse(c.SiteOrigin); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("site_origin %q must be an absolute URL", c.SiteOrigin))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together"))
	}
	if c.Notify.SeenRetentionDays < 0 {
		errs = append(errs, errors.New("notify.seen_retention_days must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) InterKeywordDelay() time.Duration {
	return seconds(c.InterKeywordDelaySeconds)
}

// FetchTimeout is zero when fetches run unbounded.
func (c *Config) FetchTimeout() time.Duration {
	return seconds(c.FetchTimeoutSeconds)
}

func (c *Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}

func (c *Config) Proxy() string {
	if c.ProxyServer == nil {
		return ""
	}
	return *c.ProxyServer
}

// Location is the zone timestamps are written in; empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func (c *Config) SeenRetention() time.Duration {
	return time.Duration(c.Notify.SeenRetentionDays) * 24 * time.Hour
}

func seconds(s *float64) time.Duration {
	if s == nil {
		return 0
	}
	return time.Duration(*s * float64(time.Second))
}
