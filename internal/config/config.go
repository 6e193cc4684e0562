package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, vstrader or mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Fetch struct {
		MaxWorkers   int           `yaml:"max_workers"`
		BatchSize    int           `yaml:"batch_size"`
		MaxAttempts  int           `yaml:"max_attempts"`
		RetryBase    time.Duration `yaml:"retry_base"`
		BatchDelay   time.Duration `yaml:"batch_delay"`
		SymbolDelay  time.Duration `yaml:"symbol_delay"`
		Timeout      time.Duration `yaml:"timeout"`
		HTTPCacheDir string        `yaml:"http_cache_dir"`
		HTTPCacheTTL time.Duration `yaml:"http_cache_ttl"`
	} `yaml:"fetch"`
	Cache struct {
		Dir    string                   `yaml:"dir"`
		Expiry map[string]time.Duration `yaml:"expiry"`
	} `yaml:"cache"`
	Offline struct {
		Dir    string        `yaml:"dir"`
		MaxAge time.Duration `yaml:"max_age"`
	} `yaml:"offline"`
	Universe struct {
		URL string `yaml:"url"`
	} `yaml:"universe"`
	Session struct {
		IdleTimeout time.Duration `yaml:"idle_timeout"`
	} `yaml:"session"`
	Schedule struct {
		SweepCron   string `yaml:"sweep_cron"`
		SessionCron string `yaml:"session_cron"`
		WarmCron    string `yaml:"warm_cron"` // empty disables overview warm-up
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("FETCH_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Fetch.MaxWorkers = n
		}
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("OFFLINE_DIR"); v != "" {
		cfg.Offline.Dir = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_WARM"); v != "" {
		cfg.Schedule.WarmCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "vstrader"
		}
	}
	if cfg.Fetch.MaxWorkers == 0 {
		cfg.Fetch.MaxWorkers = 15
	}
	if cfg.Fetch.BatchSize == 0 {
		cfg.Fetch.BatchSize = 3
	}
	if cfg.Fetch.MaxAttempts == 0 {
		cfg.Fetch.MaxAttempts = 3
	}
	if cfg.Fetch.RetryBase == 0 {
		cfg.Fetch.RetryBase = 2100 * time.Millisecond
	}
	if cfg.Fetch.BatchDelay == 0 {
		cfg.Fetch.BatchDelay = 50 * time.Millisecond
	}
	if cfg.Fetch.SymbolDelay == 0 {
		cfg.Fetch.SymbolDelay = 50 * time.Millisecond
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 8 * time.Second
	}
	if cfg.Fetch.HTTPCacheDir == "" {
		cfg.Fetch.HTTPCacheDir = "data/http_cache"
	}
	if cfg.Fetch.HTTPCacheTTL == 0 {
		cfg.Fetch.HTTPCacheTTL = 5 * time.Minute
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "data/cache"
	}
	if cfg.Offline.Dir == "" {
		cfg.Offline.Dir = "data/offline_cache"
	}
	if cfg.Offline.MaxAge == 0 {
		cfg.Offline.MaxAge = 24 * time.Hour
	}
	if cfg.Universe.URL == "" {
		cfg.Universe.URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = 30 * time.Minute
	}
	if cfg.Schedule.SweepCron == "" {
		cfg.Schedule.SweepCron = "0 * * * * *"
	}
	if cfg.Schedule.SessionCron == "" {
		cfg.Schedule.SessionCron = "0 */5 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/market_dashboard.db"
	}

	return cfg, nil
}

// Validate checks that fields are consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the vstrader provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.Fetch.MaxWorkers <= 0 {
		return fmt.Errorf("fetch.max_workers must be positive")
	}
	if c.Fetch.BatchSize <= 0 {
		return fmt.Errorf("fetch.batch_size must be positive")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether operator alerts are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
