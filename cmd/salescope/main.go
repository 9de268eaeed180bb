package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	corecfg "github.com/salescope-lab/salescope/internal/core/config"
	"github.com/salescope-lab/salescope/internal/core/period"
	"github.com/salescope-lab/salescope/internal/enrich"
	"github.com/salescope-lab/salescope/internal/ingest"
	"github.com/salescope-lab/salescope/internal/pipeline"
	"github.com/salescope-lab/salescope/internal/report"
	"github.com/salescope-lab/salescope/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	inputPath := flag.String("input", "", "Path to the sales CSV export (overrides config)")
	outputPath := flag.String("output", "", "Path for the analysis JSON (overrides config)")
	mode := flag.String("mode", "", "Analysis mode: temporal or abc (overrides config)")
	granularity := flag.String("granularity", "", "Period granularity: daily, weekly or monthly (overrides config)")
	stores := flag.String("stores", "", "Comma-separated store ids to analyze (overrides config)")
	serve := flag.Bool("serve", false, "Serve the finished analysis over HTTP after the run")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// .env is a development convenience; absence is not an error.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	// 1. Load Configuration (flags override file and env)
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *inputPath, *outputPath, *mode, *granularity, *stores)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	gran, err := period.ParseGranularity(cfg.Analysis.Granularity)
	if err != nil {
		slog.Error("Invalid granularity", "value", cfg.Analysis.Granularity, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// 2. Load and normalize the sales export
	loader := ingest.Loader{
		Columns:   columnsFromConfig(cfg.Input),
		Separator: separatorFromConfig(cfg.Input.Separator),
	}
	records, err := loader.Load(cfg.Input.Path)
	if err != nil {
		slog.Error("Failed to load sales data", "path", cfg.Input.Path, "error", err)
		os.Exit(1)
	}

	// 3. Initialize Enrichment (degrades to fallbacks without a key)
	enricher := buildEnricher(ctx, cfg.Enrich)
	if closer, ok := enricher.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// 4. Run the analysis pipeline
	p := pipeline.New(enricher, pipeline.Options{
		Mode:          cfg.Analysis.Mode,
		Granularity:   gran,
		TopN:          cfg.Analysis.TopN,
		BottomN:       cfg.Analysis.BottomN,
		ClassALimit:   cfg.Analysis.ClassALimit,
		ClassBLimit:   cfg.Analysis.ClassBLimit,
		Stores:        cfg.Analysis.Stores,
		RecentPeriods: cfg.Enrich.RecentPeriods,
		BatchSize:     cfg.Enrich.BatchSize,
		BatchPause:    cfg.Enrich.BatchPauseDuration(),
	})
	doc, err := p.Run(ctx, records)
	if err != nil {
		slog.Error("Analysis failed", "error", err)
		os.Exit(1)
	}

	// 5. Write the output document
	if err := report.Write(doc, cfg.Output.Path); err != nil {
		slog.Error("Failed to write analysis", "path", cfg.Output.Path, "error", err)
		os.Exit(1)
	}

	// 6. Optionally serve the result until interrupted
	if *serve {
		srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), doc, cfg.Server.Mode)
		if err := srv.Run(ctx); err != nil {
			slog.Error("Server stopped with error", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Done", "output", cfg.Output.Path)
}

// applyFlags layers non-empty command-line values over the loaded config.
func applyFlags(cfg *corecfg.Config, input, output, mode, granularity, stores string) {
	if input != "" {
		cfg.Input.Path = input
	}
	if output != "" {
		cfg.Output.Path = output
	}
	if mode != "" {
		cfg.Analysis.Mode = mode
	}
	if granularity != "" {
		cfg.Analysis.Granularity = granularity
	}
	if stores != "" {
		var ids []string
		for _, s := range strings.Split(stores, ",") {
			if s = strings.TrimSpace(s); s != "" {
				ids = append(ids, s)
			}
		}
		cfg.Analysis.Stores = ids
	}
}

func columnsFromConfig(in corecfg.InputConfig) ingest.Columns {
	cols := ingest.DefaultColumns()
	if in.StoreColumn != "" {
		cols.Store = in.StoreColumn
	}
	if in.ProductColumn != "" {
		cols.Product = in.ProductColumn
	}
	if in.AmountColumn != "" {
		cols.Amount = in.AmountColumn
	}
	if in.DateColumn != "" {
		cols.Date = in.DateColumn
	}
	return cols
}

func separatorFromConfig(s string) rune {
	if s == "" {
		return ';'
	}
	return rune(s[0])
}

// buildEnricher selects the real client when a credential is present and
// the capability-null variant otherwise. The key is read from the
// environment only; it never appears in config files or logs.
func buildEnricher(ctx context.Context, cfg corecfg.EnrichConfig) enrich.Enricher {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		slog.Warn("GEMINI_API_KEY not set, running without enrichment")
		return enrich.NewDisabled()
	}

	gen, err := enrich.NewGeminiGenerator(ctx, apiKey, cfg.Model, float32(cfg.Temperature))
	if err != nil {
		slog.Warn("Failed to initialize enrichment client, running without enrichment", "error", err)
		return enrich.NewDisabled()
	}

	calendar, err := enrich.LoadCalendar(cfg.SeasonFile)
	if err != nil {
		slog.Warn("Failed to load seasonal calendar, using defaults", "path", cfg.SeasonFile, "error", err)
		calendar = enrich.DefaultCalendar()
	}

	return enrich.NewClient(gen, calendar, enrich.Policy{
		MaxAttempts:      cfg.MaxAttempts,
		MaxQuotaRetries:  cfg.MaxQuotaRetries,
		MaxSchemaRetries: cfg.MaxSchemaRetries,
		CallDelay:        cfg.CallDelayDuration(),
		QuotaBaseDelay:   cfg.QuotaBaseDelayDuration(),
	})
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
