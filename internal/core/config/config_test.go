package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/salescope-lab/salescope/internal/core/period"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	cfg.Input.Path = "./sales.csv"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "temporal", cfg.Analysis.Mode)
	require.Equal(t, "monthly", cfg.Analysis.Granularity)
	require.Equal(t, 10, cfg.Analysis.TopN)
	require.Equal(t, 10, cfg.Analysis.BottomN)
	require.InDelta(t, 80.0, cfg.Analysis.ClassALimit, 0.001)
	require.InDelta(t, 95.0, cfg.Analysis.ClassBLimit, 0.001)
	require.Equal(t, "gemini-2.5-flash", cfg.Enrich.Model)
	require.Equal(t, 8, cfg.Enrich.MaxQuotaRetries)
	require.Equal(t, 15, cfg.Enrich.BatchSize)
	require.Equal(t, 7, cfg.Enrich.RecentPeriods)
	require.Equal(t, ";", cfg.Input.Separator)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
input:
  path: /data/sales.csv
analysis:
  mode: abc
  granularity: weekly
  stores: ["101", "102"]
enrich:
  recent_periods: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/data/sales.csv", cfg.Input.Path)
	require.Equal(t, "abc", cfg.Analysis.Mode)
	require.Equal(t, "weekly", cfg.Analysis.Granularity)
	require.Equal(t, []string{"101", "102"}, cfg.Analysis.Stores)
	require.Equal(t, 3, cfg.Enrich.RecentPeriods)
	// Untouched keys keep their defaults.
	require.Equal(t, 10, cfg.Analysis.TopN)
	require.Equal(t, "1s", cfg.Enrich.CallDelay)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SALESCOPE_ANALYSIS__MODE", "abc")
	t.Setenv("SALESCOPE_SERVER__PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "abc", cfg.Analysis.Mode)
	require.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "config file")
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing input path", func(c *Config) { c.Input.Path = "" }, "input.path"},
		{"multi-char separator", func(c *Config) { c.Input.Separator = ";;" }, "input.separator"},
		{"missing output path", func(c *Config) { c.Output.Path = "" }, "output.path"},
		{"bad mode", func(c *Config) { c.Analysis.Mode = "pareto" }, "analysis.mode"},
		{"bad granularity", func(c *Config) { c.Analysis.Granularity = "hourly" }, "analysis.granularity"},
		{"zero top_n", func(c *Config) { c.Analysis.TopN = 0 }, "top_n"},
		{"class limits inverted", func(c *Config) { c.Analysis.ClassBLimit = 70 }, "class_b_limit"},
		{"missing model", func(c *Config) { c.Enrich.Model = " " }, "enrich.model"},
		{"bad temperature", func(c *Config) { c.Enrich.Temperature = 3 }, "temperature"},
		{"bad call delay", func(c *Config) { c.Enrich.CallDelay = "soon" }, "call_delay"},
		{"negative quota delay", func(c *Config) { c.Enrich.QuotaBaseDelay = "-30s" }, "quota_base_delay"},
		{"zero batch size", func(c *Config) { c.Enrich.BatchSize = 0 }, "batch_size"},
		{"negative recent periods", func(c *Config) { c.Enrich.RecentPeriods = -1 }, "recent_periods"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad server mode", func(c *Config) { c.Server.Mode = "verbose" }, "server.mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidConfigPasses(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

// Every granularity Validate accepts must also be accepted downstream,
// defaults included — otherwise a valid config aborts at startup.
func TestGranularityVocabularyAcceptedDownstream(t *testing.T) {
	for _, g := range []string{"daily", "weekly", "monthly"} {
		cfg := validConfig()
		cfg.Analysis.Granularity = g
		require.NoError(t, cfg.Validate())

		_, err := period.ParseGranularity(cfg.Analysis.Granularity)
		require.NoError(t, err, "granularity %q passed Validate but not ParseGranularity", g)
	}

	cfg, err := Load("")
	require.NoError(t, err)
	_, err = period.ParseGranularity(cfg.Analysis.Granularity)
	require.NoError(t, err)
}

func TestDurationAccessors(t *testing.T) {
	cfg := validConfig()
	require.Equal(t, "1s", cfg.Enrich.CallDelay)
	require.Equal(t, int64(1000), cfg.Enrich.CallDelayDuration().Milliseconds())
	require.Equal(t, int64(30000), cfg.Enrich.QuotaBaseDelayDuration().Milliseconds())
	require.Equal(t, int64(1500), cfg.Enrich.BatchPauseDuration().Milliseconds())
}
