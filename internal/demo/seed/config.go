package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	OutputDir       string
	Auctions        int
	Files           int
	ClickRatePct    int
	UserCardinality int
	Days            int
	Seed            int64
}

func DefaultConfig() Config {
	return Config{
		OutputDir:       "./data",
		Auctions:        5000,
		Files:           2,
		ClickRatePct:    20,
		UserCardinality: 500,
		Days:            7,
		Seed:            time.Now().UTC().UnixNano(),
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyString(lookup, "ASTRACHAT_SEED_OUTPUT_DIR", &cfg.OutputDir); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASTRACHAT_SEED_AUCTIONS", &cfg.Auctions); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASTRACHAT_SEED_FILES", &cfg.Files); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASTRACHAT_SEED_CLICK_RATE_PCT", &cfg.ClickRatePct); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASTRACHAT_SEED_USER_CARDINALITY", &cfg.UserCardinality); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASTRACHAT_SEED_DAYS", &cfg.Days); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "ASTRACHAT_SEED_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("ASTRACHAT_SEED_OUTPUT_DIR is required")
	}
	if c.Auctions <= 0 {
		return fmt.Errorf("ASTRACHAT_SEED_AUCTIONS must be > 0")
	}
	if c.Files <= 0 {
		return fmt.Errorf("ASTRACHAT_SEED_FILES must be > 0")
	}
	if c.ClickRatePct < 0 || c.ClickRatePct > 100 {
		return fmt.Errorf("ASTRACHAT_SEED_CLICK_RATE_PCT must be between 0 and 100")
	}
	if c.UserCardinality <= 0 {
		return fmt.Errorf("ASTRACHAT_SEED_USER_CARDINALITY must be > 0")
	}
	if c.Days <= 0 {
		return fmt.Errorf("ASTRACHAT_SEED_DAYS must be > 0")
	}
	return nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
