package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Clean      CleanConfig      `yaml:"clean" mapstructure:"clean"`
	Resolver   ResolverConfig   `yaml:"resolver" mapstructure:"resolver"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// InputConfig describes the raw business table.
type InputConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	Encoding  string `yaml:"encoding" mapstructure:"encoding"`
	HeaderRow int    `yaml:"header_row" mapstructure:"header_row"`
}

// OutputConfig describes the enriched table.
type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// CleanConfig configures the cleaner.
type CleanConfig struct {
	NonPhysicalSentinel string `yaml:"non_physical_sentinel" mapstructure:"non_physical_sentinel"`
}

// ResolverConfig configures query building, throttling and retries.
type ResolverConfig struct {
	RegionQualifier    string  `yaml:"region_qualifier" mapstructure:"region_qualifier"`
	MinDelaySeconds    float64 `yaml:"min_delay_seconds" mapstructure:"min_delay_seconds"`
	MaxRetries         int     `yaml:"max_retries" mapstructure:"max_retries"`
	ErrorWaitSeconds   float64 `yaml:"error_wait_seconds" mapstructure:"error_wait_seconds"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UnknownCountyLabel string  `yaml:"unknown_county_label" mapstructure:"unknown_county_label"`
	CheckpointEvery    int     `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
}

// MinDelay is the minimum spacing between outgoing lookups.
func (c ResolverConfig) MinDelay() time.Duration { return seconds(c.MinDelaySeconds) }

// ErrorWait is the pause before retrying a transient failure.
func (c ResolverConfig) ErrorWait() time.Duration { return seconds(c.ErrorWaitSeconds) }

// Timeout bounds a single lookup call.
func (c ResolverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// GeocodeConfig selects and configures the lookup provider.
type GeocodeConfig struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
}

// NominatimConfig configures the OpenStreetMap Nominatim client.
type NominatimConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	Email     string `yaml:"email" mapstructure:"email"`
}

// GoogleConfig configures the Google Geocoding API client.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures the run audit store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MonitoringConfig configures run-health alerting and metrics output.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	LookbackHours        int     `yaml:"lookback_hours" mapstructure:"lookback_hours"`
	MetricsFile          string  `yaml:"metrics_file" mapstructure:"metrics_file"`
}

// ServerConfig configures the read-only data API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("bizmap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BIZMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.path", "data.csv")
	v.SetDefault("input.encoding", "iso-8859-1")
	v.SetDefault("input.header_row", 0)
	v.SetDefault("output.path", "data_enriched.csv")
	v.SetDefault("clean.non_physical_sentinel", "online")
	v.SetDefault("resolver.region_qualifier", "Utah")
	v.SetDefault("resolver.min_delay_seconds", 1.5)
	v.SetDefault("resolver.max_retries", 3)
	v.SetDefault("resolver.error_wait_seconds", 2.0)
	v.SetDefault("resolver.timeout_secs", 10)
	v.SetDefault("resolver.unknown_county_label", "Unknown")
	v.SetDefault("resolver.checkpoint_every", 25)
	v.SetDefault("geocode.provider", "nominatim")
	v.SetDefault("geocode.nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.nominatim.user_agent", "bizmap-enrich/1.0")
	v.SetDefault("geocode.nominatim.email", "")
	v.SetDefault("geocode.google.key", "")
	v.SetDefault("geocode.google.base_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "bizmap.db")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.lookback_hours", 168)
	v.SetDefault("monitoring.metrics_file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// Validate checks the settings a command mode depends on. Modes are
// "enrich", "serve" and "runs".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "enrich":
		if c.Input.Path == "" {
			errs = append(errs, "input.path is required")
		}
		if c.Output.Path == "" {
			errs = append(errs, "output.path is required")
		}
		if c.Input.HeaderRow < 0 {
			errs = append(errs, "input.header_row must be >= 0")
		}
		errs = append(errs, c.validateResolver()...)
		errs = append(errs, c.validateGeocode()...)
		errs = append(errs, c.validateStore()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "runs":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateResolver() []string {
	var errs []string
	r := c.Resolver
	if r.MinDelaySeconds < 0 {
		errs = append(errs, "resolver.min_delay_seconds must be >= 0")
	}
	if r.MaxRetries < 0 {
		errs = append(errs, "resolver.max_retries must be >= 0")
	}
	if r.ErrorWaitSeconds < 0 {
		errs = append(errs, "resolver.error_wait_seconds must be >= 0")
	}
	if r.TimeoutSecs <= 0 {
		errs = append(errs, "resolver.timeout_secs must be > 0")
	}
	if r.CheckpointEvery < 0 {
		errs = append(errs, "resolver.checkpoint_every must be >= 0")
	}
	return errs
}

func (c *Config) validateGeocode() []string {
	switch c.Geocode.Provider {
	case "nominatim":
		// The Nominatim usage policy requires an identifying User-Agent.
		if strings.TrimSpace(c.Geocode.Nominatim.UserAgent) == "" {
			return []string{"geocode.nominatim.user_agent is required"}
		}
	case "google":
		if c.Geocode.Google.Key == "" {
			return []string{"geocode.google.key is required"}
		}
	default:
		return []string{`geocode.provider must be "nominatim" or "google"`}
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
	case "none":
	default:
		return []string{`store.driver must be "sqlite", "postgres" or "none"`}
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
