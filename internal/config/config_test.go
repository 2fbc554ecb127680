package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("astrachat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false")
	}
	if cfg.AI.Model != "gpt-4" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 0 || cfg.ClickHouse.Timeout != 0 {
		t.Fatalf("upstream timeouts = %s/%s, want none", cfg.AI.Timeout, cfg.ClickHouse.Timeout)
	}
	if cfg.Query.Engine != EngineClickHouse {
		t.Fatalf("Query.Engine = %q", cfg.Query.Engine)
	}
	if cfg.Query.ReadOnlyGuard {
		t.Fatal("Query.ReadOnlyGuard should default to false")
	}
	if cfg.History.DSN != "" {
		t.Fatalf("History.DSN = %q, want empty", cfg.History.DSN)
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
}

func TestLoadLeavesUpstreamCredentialsUnset(t *testing.T) {
	cfg, err := Load("astrachat-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.APIKey != "" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.ClickHouse.URL != "" || cfg.ClickHouse.ClientID != "" || cfg.ClickHouse.ClientSecret != "" {
		t.Fatalf("ClickHouse = %+v", cfg.ClickHouse)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"ASTRACHAT_PROFILE": "prod"})
	cfg, err := Load("astrachat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Archive.UseSSL {
		t.Fatal("Archive.UseSSL should default to true in prod")
	}
	if cfg.Archive.AutoCreateBucket {
		t.Fatal("Archive.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"ASTRACHAT_PROFILE":                    "test",
		"ASTRACHAT_HTTP_ADDR":                  ":9999",
		"ASTRACHAT_HTTP_READ_TIMEOUT":          "2s",
		"ASTRACHAT_HTTP_WRITE_TIMEOUT":         "3s",
		"ASTRACHAT_LOG_LEVEL":                  "error",
		"ASTRACHAT_AUTH_REQUIRED":              "true",
		"ASTRACHAT_AUTH_STATIC_KEYS":           "k1:alice:query_reader",
		"ASTRACHAT_SERVICE_NAME":               "astrachat-custom",
		"OPENAI_API_KEY":                       "sk-test",
		"ASTRACHAT_AI_BASE_URL":                "https://api.example.com",
		"ASTRACHAT_AI_TIMEOUT":                 "21s",
		"CLICKHOUSE_HOST":                      "https://clickhouse.example.com/?default_format=CSVWithNames",
		"CF_ACCESS_CLIENT_ID":                  "client-id",
		"CF_ACCESS_CLIENT_SECRET":              "client-secret",
		"ASTRACHAT_CLICKHOUSE_TIMEOUT":         "45s",
		"ASTRACHAT_QUERY_ENGINE":               "DuckDB",
		"ASTRACHAT_READ_ONLY_GUARD":            "true",
		"ASTRACHAT_DUCKDB_PATH":                "/tmp/astra.duckdb",
		"ASTRACHAT_DUCKDB_TABLES":              "cm.ad_click_et=/data/clicks/*.parquet",
		"ASTRACHAT_HISTORY_DSN":                "postgres://example",
		"ASTRACHAT_HISTORY_MAX_OPEN_CONNS":     "42",
		"ASTRACHAT_HISTORY_MAX_IDLE_CONNS":     "17",
		"ASTRACHAT_ARCHIVE_ENABLED":            "true",
		"ASTRACHAT_ARCHIVE_ENDPOINT":           "s3.example.com",
		"ASTRACHAT_ARCHIVE_BUCKET":             "astrachat-prod",
		"ASTRACHAT_ARCHIVE_USE_SSL":            "true",
		"ASTRACHAT_ARCHIVE_PREFIX":             "transcripts",
		"ASTRACHAT_ARCHIVE_AUTO_CREATE_BUCKET": "false",
	})
	cfg, err := Load("astrachat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "astrachat-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Fatalf("HTTP.WriteTimeout = %s", cfg.HTTP.WriteTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.AI.BaseURL != "https://api.example.com" {
		t.Fatalf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.ClickHouse.URL != "https://clickhouse.example.com/?default_format=CSVWithNames" {
		t.Fatalf("ClickHouse.URL = %q", cfg.ClickHouse.URL)
	}
	if cfg.ClickHouse.ClientID != "client-id" || cfg.ClickHouse.ClientSecret != "client-secret" {
		t.Fatalf("ClickHouse credentials = %q/%q", cfg.ClickHouse.ClientID, cfg.ClickHouse.ClientSecret)
	}
	if cfg.ClickHouse.Timeout != 45*time.Second {
		t.Fatalf("ClickHouse.Timeout = %s", cfg.ClickHouse.Timeout)
	}
	if cfg.Query.Engine != EngineDuckDB {
		t.Fatalf("Query.Engine = %q", cfg.Query.Engine)
	}
	if !cfg.Query.ReadOnlyGuard {
		t.Fatal("Query.ReadOnlyGuard = false, want true")
	}
	if cfg.DuckDB.Path != "/tmp/astra.duckdb" {
		t.Fatalf("DuckDB.Path = %q", cfg.DuckDB.Path)
	}
	if cfg.DuckDB.Tables != "cm.ad_click_et=/data/clicks/*.parquet" {
		t.Fatalf("DuckDB.Tables = %q", cfg.DuckDB.Tables)
	}
	if cfg.History.DSN != "postgres://example" {
		t.Fatalf("History.DSN = %q", cfg.History.DSN)
	}
	if cfg.History.MaxOpenConns != 42 || cfg.History.MaxIdleConns != 17 {
		t.Fatalf("History pool = %d/%d", cfg.History.MaxOpenConns, cfg.History.MaxIdleConns)
	}
	if !cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled = false, want true")
	}
	if cfg.Archive.Endpoint != "s3.example.com" {
		t.Fatalf("Archive.Endpoint = %q", cfg.Archive.Endpoint)
	}
	if cfg.Archive.Bucket != "astrachat-prod" {
		t.Fatalf("Archive.Bucket = %q", cfg.Archive.Bucket)
	}
	if !cfg.Archive.UseSSL {
		t.Fatal("Archive.UseSSL = false, want true")
	}
	if cfg.Archive.Prefix != "transcripts" {
		t.Fatalf("Archive.Prefix = %q", cfg.Archive.Prefix)
	}
	if cfg.Archive.AutoCreateBucket {
		t.Fatal("Archive.AutoCreateBucket = true, want false")
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"ASTRACHAT_PROFILE": "oops"},
		{"ASTRACHAT_HTTP_READ_TIMEOUT": "NaN"},
		{"ASTRACHAT_HISTORY_MAX_OPEN_CONNS": "oops"},
		{"ASTRACHAT_HTTP_IDLE_TIMEOUT": "soon"},
		{"ASTRACHAT_AI_TIMEOUT": "-1s"},
		{"ASTRACHAT_QUERY_ENGINE": "postgres"},
		{"ASTRACHAT_READ_ONLY_GUARD": "maybe"},
		{"ASTRACHAT_AUTH_REQUIRED": "not-bool"},
		{"ASTRACHAT_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("astrachat-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestLoadKeepsModelAndTemperatureFixed(t *testing.T) {
	cfg, err := Load("astrachat-api", mapLookup(map[string]string{
		"ASTRACHAT_AI_MODEL":       "gpt-4o",
		"ASTRACHAT_AI_TEMPERATURE": "0.7",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.Model != "gpt-4" || cfg.AI.Temperature != 0 {
		t.Fatalf("AI = %q @ %f, want gpt-4 @ 0", cfg.AI.Model, cfg.AI.Temperature)
	}
}

func TestLoadErrorNamesTheKey(t *testing.T) {
	_, err := Load("astrachat-api", mapLookup(map[string]string{"ASTRACHAT_HISTORY_MAX_IDLE_CONNS": "many"}))
	if err == nil || !strings.Contains(err.Error(), "ASTRACHAT_HISTORY_MAX_IDLE_CONNS") {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoadTrimsWhitespace(t *testing.T) {
	cfg, err := Load("astrachat-api", mapLookup(map[string]string{
		"ASTRACHAT_LOG_LEVEL":    "  WARN ",
		"ASTRACHAT_QUERY_ENGINE": " duckdb\n",
		"CLICKHOUSE_HOST":        " http://localhost:8123 ",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Query.Engine != EngineDuckDB || cfg.ClickHouse.URL != "http://localhost:8123" {
		t.Fatalf("Query.Engine = %q, ClickHouse.URL = %q", cfg.Query.Engine, cfg.ClickHouse.URL)
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
