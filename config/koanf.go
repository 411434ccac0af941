package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// envMappings maps environment variables to koanf paths. PORT and MONGO_URI
// keep the names existing deployments already set; DB_CONNECTION_STRING is
// accepted next to DATABASE_URL.
var envMappings = map[string]string{
	"PORT":             "server.port",
	"SERVER_HOST":      "server.host",
	"ENVIRONMENT":      "server.environment",
	"ENABLE_SEED":      "server.enable_seed",
	"REQUEST_TIMEOUT":  "server.request_timeout",
	"SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"API_BASE_URL":     "server.api_base_url",

	"STORE_DRIVER":          "store.driver",
	"DATABASE_URL":          "store.postgres_url",
	"DB_CONNECTION_STRING":  "store.postgres_url",
	"MONGO_URI":             "store.mongo_uri",
	"MONGO_DATABASE":        "store.mongo_database",
	"MONGO_COLLECTION":      "store.mongo_collection",
	"STORE_CONNECT_TIMEOUT": "store.connect_timeout",

	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",

	"RATE_LIMIT_DISABLED": "rate_limit.disabled",
	"RATE_LIMIT_REQUESTS": "rate_limit.requests",
	"RATE_LIMIT_WINDOW":   "rate_limit.window",

	"CORS_ALLOWED_ORIGINS": "cors.allowed_origins",
}

// Load builds the configuration in layers: defaults, then an optional YAML
// file, then environment variables. A .env file in the working directory is
// read into the environment first without overriding variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)
	cfg.resolveDriver()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc returns "" for variables we don't know, which koanf skips.
func envTransformFunc(key string) string {
	return envMappings[strings.ToUpper(key)]
}

// splitList flattens comma separated entries, which is how a list arrives
// from an environment variable.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
