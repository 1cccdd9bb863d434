// Package config loads runtime configuration from .env files, the
// environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/jikan"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/logging"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/pagination"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/ratelimit"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/store"
)

// ErrMissingStoreURI is returned when a command needs the store and neither
// STORE_URI nor MONGO_URI is set.
var ErrMissingStoreURI = errors.New("STORE_URI (or MONGO_URI) is not set")

// DefaultUserAgent identifies the service to the upstream API.
const DefaultUserAgent = "anime-catalog/1.0 (+https://github.com/JudoboyAlex/cu-boulder-anime-database)"

// Keys, as they appear in a config file. The environment variable is the
// upper-cased key.
const (
	KeyStoreURI       = "store_uri"
	KeyCollection     = "store_collection"
	KeyPort           = "port"
	KeyJikanBaseURL   = "jikan_base_url"
	KeyUserAgent      = "user_agent"
	KeyTotalPages     = "fetch_total_pages"
	KeyRPS            = "fetch_rps"
	KeyCooldown       = "fetch_cooldown"
	KeyStopOnEmpty    = "fetch_stop_on_empty"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyMetricsEnabled = "metrics_enabled"
	KeyBackendURL     = "backend_url"
)

// Config is the resolved configuration.
type Config struct {
	StoreURI   string
	Collection string
	Port       string

	JikanBaseURL string
	UserAgent    string

	TotalPages        int
	RequestsPerSecond float64
	Cooldown          time.Duration
	StopOnEmptyPage   bool

	LogLevel       string
	LogFormat      logging.Format
	MetricsEnabled bool

	BackendURL string

	// ConfigFile is the file values were read from, if any.
	ConfigFile string
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit YAML file. Empty searches ./anime-catalog.yaml.
	ConfigFile string

	// EnvFiles are loaded in order; missing files are ignored. Variables
	// already in the environment are never overridden.
	EnvFiles []string
}

// DefaultOptions loads .env and .env.local.
func DefaultOptions() Options {
	return Options{EnvFiles: []string{".env", ".env.local"}}
}

// Load resolves configuration. Precedence, highest first: environment
// (including .env files), config file, defaults.
func Load(opts Options) (*Config, error) {
	for _, f := range opts.EnvFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if err := v.BindEnv(KeyStoreURI, "STORE_URI", "MONGO_URI"); err != nil {
		return nil, fmt.Errorf("bind %s: %w", KeyStoreURI, err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("anime-catalog")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	format, err := logging.ValidateFormat(v.GetString(KeyLogFormat))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StoreURI:          strings.TrimSpace(v.GetString(KeyStoreURI)),
		Collection:        v.GetString(KeyCollection),
		Port:              v.GetString(KeyPort),
		JikanBaseURL:      v.GetString(KeyJikanBaseURL),
		UserAgent:         v.GetString(KeyUserAgent),
		TotalPages:        v.GetInt(KeyTotalPages),
		RequestsPerSecond: v.GetFloat64(KeyRPS),
		Cooldown:          v.GetDuration(KeyCooldown),
		StopOnEmptyPage:   v.GetBool(KeyStopOnEmpty),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         format,
		MetricsEnabled:    v.GetBool(KeyMetricsEnabled),
		BackendURL:        strings.TrimRight(v.GetString(KeyBackendURL), "/"),
		ConfigFile:        v.ConfigFileUsed(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyCollection, store.DefaultCollection)
	v.SetDefault(KeyPort, "3000")
	v.SetDefault(KeyJikanBaseURL, jikan.DefaultBaseURL)
	v.SetDefault(KeyUserAgent, DefaultUserAgent)
	v.SetDefault(KeyTotalPages, pagination.DefaultTotalPages)
	v.SetDefault(KeyRPS, ratelimit.DefaultRequestsPerSecond)
	v.SetDefault(KeyCooldown, ratelimit.DefaultCooldown)
	v.SetDefault(KeyStopOnEmpty, false)
	v.SetDefault(KeyLogLevel, string(logging.LevelInfo))
	v.SetDefault(KeyLogFormat, string(logging.FormatJSON))
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyBackendURL, "http://localhost:3000")
}

func (c *Config) validate() error {
	if c.TotalPages < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", strings.ToUpper(KeyTotalPages), c.TotalPages)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%s must be positive, got %v", strings.ToUpper(KeyRPS), c.RequestsPerSecond)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("%s must be positive, got %v", strings.ToUpper(KeyCooldown), c.Cooldown)
	}
	if c.Port == "" {
		return fmt.Errorf("%s must not be empty", strings.ToUpper(KeyPort))
	}
	return nil
}

// RequireStore fails when no store connection string is configured.
func (c *Config) RequireStore() error {
	if c.StoreURI == "" {
		return ErrMissingStoreURI
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Pager returns the pagination settings.
func (c *Config) Pager() pagination.Config {
	cfg := pagination.DefaultConfig()
	cfg.TotalPages = c.TotalPages
	cfg.RequestsPerSecond = c.RequestsPerSecond
	cfg.Cooldown = c.Cooldown
	cfg.StopOnEmptyPage = c.StopOnEmptyPage
	return cfg
}

// Jikan returns the upstream client settings.
func (c *Config) Jikan() jikan.Config {
	cfg := jikan.DefaultConfig(c.UserAgent)
	cfg.BaseURL = c.JikanBaseURL
	return cfg
}

// Store returns the store options.
func (c *Config) Store() store.Options {
	return store.Options{Collection: c.Collection}
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Format = c.LogFormat
	cfg.Service = "anime-catalog"
	return cfg
}
