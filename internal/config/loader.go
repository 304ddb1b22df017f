package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "propdesk.yaml"

// MinJWTSecretLen is the minimum HS256 key length accepted for any signing key.
const MinJWTSecretLen = 32

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// CLIFlags holds command-line overrides. Nil fields were not given.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
	Storage    *string
}

// ParseFlags parses serve flags from args (without the program name).
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("propdesk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath, port, logLevel, dsn, natsURL, storage string
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.StringVar(&configPath, "c", "", "shorthand for --config")
	fs.StringVar(&port, "port", "", "HTTP listen port")
	fs.StringVar(&port, "p", "", "shorthand for --port")
	fs.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL connection string")
	fs.StringVar(&natsURL, "nats-url", "", "NATS server URL")
	fs.StringVar(&storage, "storage", "", "storage driver (postgres, memory)")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, err
	}

	var flags CLIFlags
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "config", "c":
			flags.ConfigPath = &v
		case "port", "p":
			flags.Port = &v
		case "log-level":
			flags.LogLevel = &v
		case "dsn":
			flags.DSN = &v
		case "nats-url":
			flags.NatsURL = &v
		case "storage":
			flags.Storage = &v
		}
	})
	return flags, nil
}

// LoadWithCLI loads configuration with the hierarchy
// defaults < YAML < ENV < CLI flags and returns the YAML path used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if v := os.Getenv("PROPDESK_CONFIG"); v != "" {
		path = v
	}
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

// applyCLI overlays non-nil flag values onto cfg.
func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
	if flags.Storage != nil {
		cfg.Storage.Driver = *flags.Storage
	}
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PROPDESK_PORT")
	setString(&cfg.Server.CORSOrigin, "PROPDESK_CORS_ORIGIN")
	setInt64(&cfg.Server.BodyLimit, "PROPDESK_BODY_LIMIT")
	setDuration(&cfg.Server.ReadTimeout, "PROPDESK_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "PROPDESK_WRITE_TIMEOUT")

	setString(&cfg.Storage.Driver, "PROPDESK_STORAGE")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PROPDESK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PROPDESK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PROPDESK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PROPDESK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PROPDESK_PG_HEALTH_CHECK")
	setBool(&cfg.Postgres.AutoMigrate, "PROPDESK_PG_AUTO_MIGRATE")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "PROPDESK_NATS_STREAM")
	setString(&cfg.NATS.CacheKV, "PROPDESK_NATS_CACHE_KV")
	setBool(&cfg.NATS.Required, "PROPDESK_NATS_REQUIRED")

	setString(&cfg.Logging.Level, "PROPDESK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PROPDESK_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PROPDESK_LOG_ASYNC")

	setString(&cfg.Auth.JWTSecret, "PROPDESK_JWT_SECRET")
	setDuration(&cfg.Auth.AccessTokenExpiry, "PROPDESK_ACCESS_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "PROPDESK_BCRYPT_COST")
	setString(&cfg.Auth.Issuer, "PROPDESK_JWT_ISSUER")
	setInt(&cfg.Auth.MaxConcurrentHash, "PROPDESK_MAX_CONCURRENT_HASH")

	setString(&cfg.Tenancy.HeaderName, "PROPDESK_TENANT_HEADER")
	setBool(&cfg.Tenancy.StrictMode, "PROPDESK_TENANT_STRICT")
	setStrings(&cfg.Tenancy.ReservedSubdomains, "PROPDESK_RESERVED_SUBDOMAINS")
	setDuration(&cfg.Tenancy.DirectoryCacheTTL, "PROPDESK_TENANT_CACHE_TTL")

	setInt(&cfg.Breaker.MaxFailures, "PROPDESK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PROPDESK_BREAKER_TIMEOUT")

	setFloat64(&cfg.Limit.LoginRate, "PROPDESK_LOGIN_RATE")
	setInt(&cfg.Limit.LoginBurst, "PROPDESK_LOGIN_BURST")

	setInt64(&cfg.Cache.L1MaxSizeMB, "PROPDESK_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.L2TTL, "PROPDESK_CACHE_L2_TTL")

	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTel.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTel.Insecure, "PROPDESK_OTEL_INSECURE")
	setFloat64(&cfg.OTel.SampleRate, "PROPDESK_OTEL_SAMPLE_RATE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver %q is not supported (postgres, memory)", cfg.Storage.Driver)
	}
	if cfg.NATS.Required && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats.required is set")
	}
	if len(cfg.Auth.JWTSecret) < MinJWTSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", MinJWTSecretLen)
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}
	if cfg.Auth.MaxConcurrentHash < 1 {
		return errors.New("auth.max_concurrent_hash must be >= 1")
	}
	if cfg.Auth.AccessTokenExpiry <= 0 {
		return errors.New("auth.access_token_expiry must be positive")
	}
	if cfg.Tenancy.HeaderName == "" {
		return errors.New("tenancy.header_name is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Limit.LoginRate < 0 || (cfg.Limit.LoginRate > 0 && cfg.Limit.LoginBurst < 1) {
		return errors.New("rate_limit.login_burst must be >= 1 when login_rate is set")
	}
	if cfg.OTel.SampleRate < 0 || cfg.OTel.SampleRate > 1 {
		return errors.New("otel.sample_rate must be between 0 and 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setStrings reads a comma-separated list.
func setStrings(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
