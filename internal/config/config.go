package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	EngineClickHouse = "clickhouse"
	EngineDuckDB     = "duckdb"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	AI            AIConfig
	Query         QueryConfig
	ClickHouse    ClickHouseConfig
	DuckDB        DuckDBConfig
	History       HistoryConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AIConfig configures the chat-completion upstream. APIKey has no default;
// an empty key fails at the first completion call.
type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type QueryConfig struct {
	Engine        string
	ReadOnlyGuard bool
}

// ClickHouseConfig holds the database endpoint and the two Cloudflare Access
// credentials. None of them have defaults.
type ClickHouseConfig struct {
	URL          string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type DuckDBConfig struct {
	Path   string
	Tables string
}

type HistoryConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ASTRACHAT_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ASTRACHAT_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	for _, b := range cfg.bindings() {
		raw, ok := lookup(b.key)
		if !ok {
			continue
		}
		if err := b.set(strings.TrimSpace(raw)); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", b.key, err)
		}
	}

	cfg.Query.Engine = strings.ToLower(cfg.Query.Engine)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	switch {
	case cfg.Service.Name == "":
		return fmt.Errorf("service name is required")
	case cfg.HTTP.Address == "":
		return fmt.Errorf("http address is required")
	case cfg.Query.Engine != EngineClickHouse && cfg.Query.Engine != EngineDuckDB:
		return fmt.Errorf("invalid ASTRACHAT_QUERY_ENGINE: %q", cfg.Query.Engine)
	case cfg.AI.Timeout < 0 || cfg.ClickHouse.Timeout < 0:
		return fmt.Errorf("upstream timeouts must not be negative")
	}
	return nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "astrachat-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		AI: AIConfig{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-4",
			Temperature: 0,
		},
		Query: QueryConfig{
			Engine:        EngineClickHouse,
			ReadOnlyGuard: false,
		},
		DuckDB: DuckDBConfig{
			Path: "",
		},
		History: HistoryConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Archive: ArchiveConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "astrachat",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

// binding ties one environment key to the field it overrides.
type binding struct {
	key string
	set func(raw string) error
}

// bindings lists every environment override in the order it is applied.
func (cfg *Config) bindings() []binding {
	return []binding{
		stringVar("ASTRACHAT_SERVICE_NAME", &cfg.Service.Name),
		stringVar("ASTRACHAT_HTTP_ADDR", &cfg.HTTP.Address),
		durationVar("ASTRACHAT_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout),
		durationVar("ASTRACHAT_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout),
		durationVar("ASTRACHAT_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout),

		stringVar("OPENAI_API_KEY", &cfg.AI.APIKey),
		stringVar("ASTRACHAT_AI_BASE_URL", &cfg.AI.BaseURL),
		durationVar("ASTRACHAT_AI_TIMEOUT", &cfg.AI.Timeout),

		stringVar("ASTRACHAT_QUERY_ENGINE", &cfg.Query.Engine),
		boolVar("ASTRACHAT_READ_ONLY_GUARD", &cfg.Query.ReadOnlyGuard),
		stringVar("CLICKHOUSE_HOST", &cfg.ClickHouse.URL),
		stringVar("CF_ACCESS_CLIENT_ID", &cfg.ClickHouse.ClientID),
		stringVar("CF_ACCESS_CLIENT_SECRET", &cfg.ClickHouse.ClientSecret),
		durationVar("ASTRACHAT_CLICKHOUSE_TIMEOUT", &cfg.ClickHouse.Timeout),
		stringVar("ASTRACHAT_DUCKDB_PATH", &cfg.DuckDB.Path),
		stringVar("ASTRACHAT_DUCKDB_TABLES", &cfg.DuckDB.Tables),

		stringVar("ASTRACHAT_HISTORY_DSN", &cfg.History.DSN),
		intVar("ASTRACHAT_HISTORY_MAX_OPEN_CONNS", &cfg.History.MaxOpenConns),
		intVar("ASTRACHAT_HISTORY_MAX_IDLE_CONNS", &cfg.History.MaxIdleConns),
		durationVar("ASTRACHAT_HISTORY_CONN_MAX_IDLE_TIME", &cfg.History.ConnMaxIdleTime),
		durationVar("ASTRACHAT_HISTORY_CONN_MAX_LIFETIME", &cfg.History.ConnMaxLifetime),

		boolVar("ASTRACHAT_ARCHIVE_ENABLED", &cfg.Archive.Enabled),
		stringVar("ASTRACHAT_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint),
		stringVar("ASTRACHAT_ARCHIVE_REGION", &cfg.Archive.Region),
		stringVar("ASTRACHAT_ARCHIVE_BUCKET", &cfg.Archive.Bucket),
		stringVar("ASTRACHAT_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID),
		stringVar("ASTRACHAT_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey),
		boolVar("ASTRACHAT_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL),
		stringVar("ASTRACHAT_ARCHIVE_PREFIX", &cfg.Archive.Prefix),
		boolVar("ASTRACHAT_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket),

		boolVar("ASTRACHAT_LOG_JSON", &cfg.Observability.LogJSON),
		levelVar("ASTRACHAT_LOG_LEVEL", &cfg.Observability.LogLevel),
		boolVar("ASTRACHAT_AUTH_REQUIRED", &cfg.Auth.Required),
		stringVar("ASTRACHAT_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys),
	}
}

func stringVar(key string, dst *string) binding {
	return binding{key: key, set: func(raw string) error {
		*dst = raw
		return nil
	}}
}

func durationVar(key string, dst *time.Duration) binding {
	return parsedVar(key, dst, time.ParseDuration)
}

func boolVar(key string, dst *bool) binding {
	return parsedVar(key, dst, strconv.ParseBool)
}

func intVar(key string, dst *int) binding {
	return parsedVar(key, dst, strconv.Atoi)
}

func levelVar(key string, dst *slog.Level) binding {
	return parsedVar(key, dst, parseLogLevel)
}

func parsedVar[T any](key string, dst *T, parse func(string) (T, error)) binding {
	return binding{key: key, set: func(raw string) error {
		value, err := parse(raw)
		if err != nil {
			return err
		}
		*dst = value
		return nil
	}}
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", raw)
	}
}
