package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Harvest HarvestConfig `yaml:"harvest" mapstructure:"harvest"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// HarvestConfig configures the listing crawl and enrichment.
type HarvestConfig struct {
	StartURL             string  `yaml:"start_url" mapstructure:"start_url"`
	OutputPath           string  `yaml:"output_path" mapstructure:"output_path"`
	Headless             bool    `yaml:"headless" mapstructure:"headless"`
	NavTimeoutSecs       int     `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	MaxPages             int     `yaml:"max_pages" mapstructure:"max_pages"`
	MaxItems             int     `yaml:"max_items" mapstructure:"max_items"`
	Concurrency          int     `yaml:"concurrency" mapstructure:"concurrency"`
	DetailURLTemplate    string  `yaml:"detail_url_template" mapstructure:"detail_url_template"`
	DocumentsURLTemplate string  `yaml:"documents_url_template" mapstructure:"documents_url_template"`
	LookupURL            string  `yaml:"lookup_url" mapstructure:"lookup_url"`
	UserAgent            string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec           float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// StoreConfig configures the local run log and fragment cache.
type StoreConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BIDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("harvest.output_path", "bids.json")
	v.SetDefault("harvest.headless", true)
	v.SetDefault("harvest.nav_timeout_secs", 30)
	v.SetDefault("harvest.max_pages", 50)
	v.SetDefault("harvest.max_items", 500)
	v.SetDefault("harvest.concurrency", 4)
	v.SetDefault("harvest.detail_url_template", "bidDetail?bidId=%s")
	v.SetDefault("harvest.documents_url_template", "bidDocuments?bidId=%s")
	v.SetDefault("harvest.user_agent", "Mozilla/5.0 (compatible; BidwatchBot/1.0)")
	v.SetDefault("harvest.rate_per_sec", 2.0)
	v.SetDefault("store.path", "bidwatch.db")
	v.SetDefault("store.cache_ttl_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
