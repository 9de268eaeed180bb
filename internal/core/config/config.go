package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Input    InputConfig    `koanf:"input"`
	Output   OutputConfig   `koanf:"output"`
	Analysis AnalysisConfig `koanf:"analysis"`
	Enrich   EnrichConfig   `koanf:"enrich"`
	Server   ServerConfig   `koanf:"server"`
}

type InputConfig struct {
	Path      string `koanf:"path"`
	Separator string `koanf:"separator"`

	// Column header overrides for exports whose schema drifted from the
	// standard report layout.
	StoreColumn   string `koanf:"store_column"`
	ProductColumn string `koanf:"product_column"`
	AmountColumn  string `koanf:"amount_column"`
	DateColumn    string `koanf:"date_column"`
}

type OutputConfig struct {
	Path string `koanf:"path"`
}

type AnalysisConfig struct {
	Mode        string   `koanf:"mode"`        // temporal | abc
	Granularity string   `koanf:"granularity"` // daily | weekly | monthly
	TopN        int      `koanf:"top_n"`
	BottomN     int      `koanf:"bottom_n"`
	ClassALimit float64  `koanf:"class_a_limit"`
	ClassBLimit float64  `koanf:"class_b_limit"`
	Stores      []string `koanf:"stores"`
}

type EnrichConfig struct {
	Model            string  `koanf:"model"`
	Temperature      float64 `koanf:"temperature"`
	CallDelay        string  `koanf:"call_delay"`
	QuotaBaseDelay   string  `koanf:"quota_base_delay"`
	MaxAttempts      int     `koanf:"max_attempts"`
	MaxQuotaRetries  int     `koanf:"max_quota_retries"`
	MaxSchemaRetries int     `koanf:"max_schema_retries"`
	BatchSize        int     `koanf:"batch_size"`
	BatchPause       string  `koanf:"batch_pause"`
	RecentPeriods    int     `koanf:"recent_periods"`
	SeasonFile       string  `koanf:"season_file"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

// CallDelayDuration returns the parsed pre-call delay. Validate has
// already rejected unparseable values.
func (c EnrichConfig) CallDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.CallDelay)
	return d
}

func (c EnrichConfig) QuotaBaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.QuotaBaseDelay)
	return d
}

func (c EnrichConfig) BatchPauseDuration() time.Duration {
	d, _ := time.ParseDuration(c.BatchPause)
	return d
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.Path) == "" {
		return fmt.Errorf("input.path is required")
	}
	if len(c.Input.Separator) > 1 {
		return fmt.Errorf("input.separator must be a single character, got %q", c.Input.Separator)
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return fmt.Errorf("output.path is required")
	}

	if c.Analysis.Mode != "temporal" && c.Analysis.Mode != "abc" {
		return fmt.Errorf("invalid analysis.mode %q (must be temporal or abc)", c.Analysis.Mode)
	}
	switch c.Analysis.Granularity {
	case "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("invalid analysis.granularity %q (must be daily, weekly or monthly)", c.Analysis.Granularity)
	}
	if c.Analysis.TopN <= 0 {
		return fmt.Errorf("analysis.top_n must be > 0")
	}
	if c.Analysis.BottomN <= 0 {
		return fmt.Errorf("analysis.bottom_n must be > 0")
	}
	if c.Analysis.ClassALimit <= 0 || c.Analysis.ClassALimit >= 100 {
		return fmt.Errorf("analysis.class_a_limit must be in (0, 100)")
	}
	if c.Analysis.ClassBLimit <= c.Analysis.ClassALimit || c.Analysis.ClassBLimit > 100 {
		return fmt.Errorf("analysis.class_b_limit must be in (class_a_limit, 100]")
	}

	if strings.TrimSpace(c.Enrich.Model) == "" {
		return fmt.Errorf("enrich.model is required")
	}
	if c.Enrich.Temperature < 0 || c.Enrich.Temperature > 2 {
		return fmt.Errorf("enrich.temperature must be in [0, 2]")
	}
	for _, field := range []struct {
		name, value string
	}{
		{"enrich.call_delay", c.Enrich.CallDelay},
		{"enrich.quota_base_delay", c.Enrich.QuotaBaseDelay},
		{"enrich.batch_pause", c.Enrich.BatchPause},
	} {
		d, err := time.ParseDuration(field.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field.name, field.value, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be >= 0", field.name)
		}
	}
	if c.Enrich.MaxAttempts <= 0 {
		return fmt.Errorf("enrich.max_attempts must be > 0")
	}
	if c.Enrich.MaxQuotaRetries <= 0 {
		return fmt.Errorf("enrich.max_quota_retries must be > 0")
	}
	if c.Enrich.MaxSchemaRetries <= 0 {
		return fmt.Errorf("enrich.max_schema_retries must be > 0")
	}
	if c.Enrich.BatchSize <= 0 {
		return fmt.Errorf("enrich.batch_size must be > 0")
	}
	if c.Enrich.RecentPeriods < 0 {
		return fmt.Errorf("enrich.recent_periods must be >= 0")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	return nil
}

// Load parses config from defaults + file + env. Validation runs after
// the caller has applied its command-line overrides, not here. The API
// credential is deliberately absent from this layer: it comes only from
// the GEMINI_API_KEY environment variable and is never written to a
// config file.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"input.path":                "",
		"input.separator":           ";",
		"input.store_column":        "",
		"input.product_column":      "",
		"input.amount_column":       "",
		"input.date_column":         "",
		"output.path":               "./out/analysis.json",
		"analysis.mode":             "temporal",
		"analysis.granularity":      "monthly",
		"analysis.top_n":            10,
		"analysis.bottom_n":         10,
		"analysis.class_a_limit":    80.0,
		"analysis.class_b_limit":    95.0,
		"analysis.stores":           []string{},
		"enrich.model":              "gemini-2.5-flash",
		"enrich.temperature":        0.25,
		"enrich.call_delay":         "1s",
		"enrich.quota_base_delay":   "30s",
		"enrich.max_attempts":       5,
		"enrich.max_quota_retries":  8,
		"enrich.max_schema_retries": 3,
		"enrich.batch_size":         15,
		"enrich.batch_pause":        "1500ms",
		"enrich.recent_periods":     7,
		"enrich.season_file":        "",
		"server.port":               8080,
		"server.host":               "0.0.0.0",
		"server.mode":               "release",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("SALESCOPE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SALESCOPE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
