package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Logging   LoggingConfig   `koanf:"logging"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
}

type ServerConfig struct {
	Port        string `koanf:"port"`
	Host        string `koanf:"host"`
	Environment string `koanf:"environment"`

	// EnableSeed registers GET /api/seed. Refused in production.
	EnableSeed bool `koanf:"enable_seed"`

	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// APIBaseURL points the page form fallback at a JSON API running in
	// another process. Empty means the pages call the service in process.
	APIBaseURL string `koanf:"api_base_url"`
}

type StoreConfig struct {
	// Driver is memory, postgres or mongo. Empty picks mongo when MongoURI
	// is set, postgres when PostgresURL is set, memory otherwise.
	Driver string `koanf:"driver"`

	PostgresURL string `koanf:"postgres_url"`

	MongoURI        string `koanf:"mongo_uri"`
	MongoDatabase   string `koanf:"mongo_database"`
	MongoCollection string `koanf:"mongo_collection"`

	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type RateLimitConfig struct {
	Disabled bool          `koanf:"disabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "",
			Environment:     "development",
			EnableSeed:      false,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			MongoDatabase:   "newsletter",
			MongoCollection: "subscribers",
			ConnectTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// APIBaseURL is the remote API base without a trailing slash, or "" when the
// pages submit in process.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.Server.APIBaseURL), "/")
}

// resolveDriver fills Store.Driver when it was left empty.
func (c *Config) resolveDriver() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver != "" {
		return
	}
	switch {
	case c.Store.MongoURI != "":
		c.Store.Driver = DriverMongo
	case c.Store.PostgresURL != "":
		c.Store.Driver = DriverPostgres
	default:
		c.Store.Driver = DriverMemory
	}
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be a number between 1 and 65535, got %q", c.Server.Port))
	}
	if c.Server.EnableSeed && c.IsProduction() {
		errs = append(errs, errors.New("server.enable_seed is not allowed in production"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Server.APIBaseURL != "" {
		if u, err := url.Parse(c.Server.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("server.api_base_url must be an absolute URL, got %q", c.Server.APIBaseURL))
		}
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			errs = append(errs, errors.New("store.postgres_url is required for the postgres driver"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("store.mongo_uri is required for the mongo driver"))
		}
		if c.Store.MongoDatabase == "" || c.Store.MongoCollection == "" {
			errs = append(errs, errors.New("store.mongo_database and store.mongo_collection are required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be one of memory, postgres, mongo, got %q", c.Store.Driver))
	}
	if c.Store.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("store.connect_timeout must be positive"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if !c.RateLimit.Disabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive unless rate_limit.disabled is set"))
	}

	return errors.Join(errs...)
}
