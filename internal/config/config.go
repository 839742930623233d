package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Pricing     PricingConfig     `mapstructure:"pricing"`
	Run         RunConfig         `mapstructure:"run"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// MarketplaceConfig holds marketplace API configuration
type MarketplaceConfig struct {
	APIBaseURL    string            `mapstructure:"api_base_url"`
	SellerID      string            `mapstructure:"seller_id"`
	Timeout       time.Duration     `mapstructure:"timeout"`
	RetryCount    int               `mapstructure:"retry_count"`
	RetryWaitTime time.Duration     `mapstructure:"retry_wait_time"`
	PageSize      int               `mapstructure:"page_size"`
	Currency      string            `mapstructure:"currency"`
	UserAgent     string            `mapstructure:"user_agent"`
	Brands        map[string]string `mapstructure:"brands"`
}

// AuthConfig holds token refresh configuration. The four credential fields
// are secrets and come from the environment, not the config file.
type AuthConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	UserID          string        `mapstructure:"user_id"`
	RefreshToken    string        `mapstructure:"refresh_token"`
	DeviceToken     string        `mapstructure:"device_token"`
	LongLivedToken  string        `mapstructure:"long_lived_token"`
}

// CategoryConfig describes one pricing category: its delimiter symbol and
// the minimal acceptable price for listings in it
type CategoryConfig struct {
	Name   string  `mapstructure:"name"`
	Symbol string  `mapstructure:"symbol"`
	Floor  float64 `mapstructure:"floor"`
}

// PricingConfig holds the decision engine configuration
type PricingConfig struct {
	OwnerUsername             string           `mapstructure:"owner_username"`
	Categories                []CategoryConfig `mapstructure:"categories"`
	IgnoreWords               []string         `mapstructure:"ignore_words"`
	IgnoreCompetitorsTop      []string         `mapstructure:"ignore_competitors_top"`
	IgnoreCompetitorsOther    []string         `mapstructure:"ignore_competitors_other"`
	ThresholdPrice            float64          `mapstructure:"threshold_price"`
	UndercutBelowPercent      float64          `mapstructure:"undercut_below_percent"`
	UndercutAbovePercent      float64          `mapstructure:"undercut_above_percent"`
	PullCeiling               float64          `mapstructure:"pull_ceiling"`
	PullMarginPercent         float64          `mapstructure:"pull_margin_percent"`
	PullMinGapPercent         float64          `mapstructure:"pull_min_gap_percent"`
	PullMaxGapPercent         float64          `mapstructure:"pull_max_gap_percent"`
	OverLimitPosition         int              `mapstructure:"over_limit_position"`
	UnderLimitPosition        int              `mapstructure:"under_limit_position"`
	NonPopularDiscountPercent float64          `mapstructure:"non_popular_discount_percent"`
	MinOrderValue             float64          `mapstructure:"min_order_value"`
}

// RunConfig holds repricing cycle configuration
type RunConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Workers  int           `mapstructure:"workers"`
}

// StorageConfig holds the offer parameters cache configuration
type StorageConfig struct {
	Path    string `mapstructure:"path"`
	DataDir string `mapstructure:"data_dir"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("LASTITEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindSecrets(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindSecrets maps credential fields to their short environment names so
// they never have to appear in the config file
func bindSecrets(v *viper.Viper) {
	v.BindEnv("auth.user_id", "LASTITEM_USER_ID")
	v.BindEnv("auth.refresh_token", "LASTITEM_REFRESH_TOKEN")
	v.BindEnv("auth.device_token", "LASTITEM_DEVICE_TOKEN")
	v.BindEnv("auth.long_lived_token", "LASTITEM_LONG_LIVED_TOKEN")
	v.BindEnv("telegram.bot_token", "LASTITEM_TELEGRAM_TOKEN")
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Marketplace defaults
	v.SetDefault("marketplace.api_base_url", "https://sls.g2g.com")
	v.SetDefault("marketplace.timeout", "30s")
	v.SetDefault("marketplace.retry_count", 3)
	v.SetDefault("marketplace.retry_wait_time", "2s")
	v.SetDefault("marketplace.page_size", 48)
	v.SetDefault("marketplace.currency", "USD")
	v.SetDefault("marketplace.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36")
	v.SetDefault("marketplace.brands", map[string]string{
		"lgc_game_29076": "wow-classic-item",
		"lgc_game_27816": "wow-classic-era-item",
	})

	// Auth defaults
	v.SetDefault("auth.refresh_interval", "12m")

	// Pricing defaults
	v.SetDefault("pricing.threshold_price", 5.0)
	v.SetDefault("pricing.undercut_below_percent", 0.5)
	v.SetDefault("pricing.undercut_above_percent", 1.5)
	v.SetDefault("pricing.pull_ceiling", 100.0)
	v.SetDefault("pricing.pull_margin_percent", 5.0)
	v.SetDefault("pricing.pull_min_gap_percent", 5.0)
	v.SetDefault("pricing.pull_max_gap_percent", 20.0)
	v.SetDefault("pricing.over_limit_position", 5)
	v.SetDefault("pricing.under_limit_position", 6)
	v.SetDefault("pricing.min_order_value", 0.0)

	// Run defaults
	v.SetDefault("run.interval", "5m")
	v.SetDefault("run.workers", 4)

	// Storage defaults
	v.SetDefault("storage.path", "./data/offer-params.db")
	v.SetDefault("storage.data_dir", "./data")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Marketplace config
	if c.Marketplace.APIBaseURL == "" {
		return fmt.Errorf("marketplace.api_base_url is required")
	}
	if c.Marketplace.SellerID == "" {
		return fmt.Errorf("marketplace.seller_id is required")
	}
	if c.Marketplace.Timeout < 1*time.Second {
		return fmt.Errorf("marketplace.timeout must be at least 1 second")
	}
	if c.Marketplace.RetryCount < 0 {
		return fmt.Errorf("marketplace.retry_count must not be negative")
	}
	if c.Marketplace.PageSize < 1 {
		return fmt.Errorf("marketplace.page_size must be at least 1")
	}
	if len(c.Marketplace.Brands) == 0 {
		return fmt.Errorf("marketplace.brands must contain at least one brand mapping")
	}

	// Validate Auth config
	if c.Auth.RefreshInterval < 1*time.Minute {
		return fmt.Errorf("auth.refresh_interval must be at least 1 minute")
	}
	if c.Auth.UserID == "" {
		return fmt.Errorf("auth.user_id is required (set LASTITEM_USER_ID)")
	}
	if c.Auth.RefreshToken == "" {
		return fmt.Errorf("auth.refresh_token is required (set LASTITEM_REFRESH_TOKEN)")
	}

	// Validate Pricing config
	if c.Pricing.OwnerUsername == "" {
		return fmt.Errorf("pricing.owner_username is required")
	}
	if len(c.Pricing.Categories) == 0 {
		return fmt.Errorf("pricing.categories must contain at least one category")
	}
	for _, cat := range c.Pricing.Categories {
		if cat.Name == "" || cat.Symbol == "" {
			return fmt.Errorf("every pricing category needs a name and a symbol")
		}
	}
	if c.Pricing.ThresholdPrice <= 0 {
		return fmt.Errorf("pricing.threshold_price must be positive")
	}
	if c.Pricing.OverLimitPosition < 1 {
		return fmt.Errorf("pricing.over_limit_position must be at least 1")
	}
	if c.Pricing.UnderLimitPosition < 1 {
		return fmt.Errorf("pricing.under_limit_position must be at least 1")
	}

	// Validate Run config
	if c.Run.Interval < 1*time.Minute {
		return fmt.Errorf("run.interval must be at least 1 minute")
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("run.workers must be at least 1")
	}

	// Validate Storage config
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
