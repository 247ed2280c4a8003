package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Abitus AbitusConfig `yaml:"abitus" mapstructure:"abitus"`
	Map    MapConfig    `yaml:"map" mapstructure:"map"`
	Tiles  TilesConfig  `yaml:"tiles" mapstructure:"tiles"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// AbitusConfig holds the police API client settings.
type AbitusConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst        int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffMs        int     `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldown  int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// Timeout returns the HTTP client timeout.
func (c AbitusConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MapConfig configures city statistics and the map view.
type MapConfig struct {
	GazetteerFile string `yaml:"gazetteer_file" mapstructure:"gazetteer_file"`
	SampleSize    int    `yaml:"sample_size" mapstructure:"sample_size"`
	RecentCases   int    `yaml:"recent_cases" mapstructure:"recent_cases"`
	CacheTTLSecs  int    `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	// RefreshSecs is the background refresh interval of serve; 0 disables it.
	RefreshSecs   int    `yaml:"refresh_secs" mapstructure:"refresh_secs"`
}

// RefreshInterval returns the background refresh interval.
func (c MapConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSecs) * time.Second
}

// CacheTTL returns the city statistics cache lifetime.
func (c MapConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

// TilesConfig configures the basemap tile proxy.
type TilesConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	Format       string `yaml:"format" mapstructure:"format"`
	MinZoom      int    `yaml:"min_zoom" mapstructure:"min_zoom"`
	MaxZoom      int    `yaml:"max_zoom" mapstructure:"max_zoom"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	CacheSize    int    `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLSecs int    `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
}

// CacheTTL returns the tile cache lifetime.
func (c TilesConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
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
	v.SetEnvPrefix("CASEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("abitus.base_url", "https://abitus-api.pjc.mt.gov.br/v1")
	v.SetDefault("abitus.timeout_secs", 30)
	v.SetDefault("abitus.rate_limit", 10)
	v.SetDefault("abitus.rate_burst", 5)
	v.SetDefault("abitus.max_attempts", 3)
	v.SetDefault("abitus.backoff_ms", 300)
	v.SetDefault("abitus.breaker_threshold", 5)
	v.SetDefault("abitus.breaker_cooldown_secs", 30)
	v.SetDefault("map.gazetteer_file", "")
	v.SetDefault("map.sample_size", 500)
	v.SetDefault("map.recent_cases", 10)
	v.SetDefault("map.cache_ttl_secs", 300)
	v.SetDefault("map.refresh_secs", 240)
	v.SetDefault("tiles.base_url", "https://tile.openstreetmap.org")
	v.SetDefault("tiles.format", "png")
	v.SetDefault("tiles.min_zoom", 4)
	v.SetDefault("tiles.max_zoom", 10)
	v.SetDefault("tiles.user_agent", "casemap/1.0 (+https://desaparecidos.pjc.mt.gov.br)")
	v.SetDefault("tiles.cache_size", 5000)
	v.SetDefault("tiles.cache_ttl_secs", 3600)
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

// Validate checks the settings the given command needs. Mode is "serve"
// for the HTTP server or "cli" for the one-shot commands.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Tiles.BaseURL == "" {
			errs = append(errs, "tiles.base_url is required")
		}
		if c.Tiles.MinZoom < 0 || c.Tiles.MaxZoom < c.Tiles.MinZoom {
			errs = append(errs, "tiles zoom range must satisfy 0 <= min_zoom <= max_zoom")
		}
		if c.Tiles.CacheSize < 1 {
			errs = append(errs, "tiles.cache_size must be >= 1")
		}
	case "cli":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Abitus.BaseURL == "" {
		errs = append(errs, "abitus.base_url is required")
	}
	if c.Abitus.MaxAttempts < 1 || c.Abitus.MaxAttempts > 10 {
		errs = append(errs, "abitus.max_attempts must be between 1 and 10")
	}
	if c.Abitus.RateLimit < 0 {
		errs = append(errs, "abitus.rate_limit must be >= 0")
	}
	if c.Map.SampleSize < 1 {
		errs = append(errs, "map.sample_size must be >= 1")
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: validation failed: %s", strings.Join(errs, "; ")))
	}
	return nil
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
