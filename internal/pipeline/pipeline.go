// Package pipeline drives the whole analysis run: aggregation, ranking or
// ABC classification per store, enrichment, and document assembly.
// Execution is strictly sequential — stores one at a time, periods within
// a store one at a time — because the remote service enforces a shared
// quota and parallel dispatch would only exhaust it faster.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/salescope-lab/salescope/internal/core/money"
	"github.com/salescope-lab/salescope/internal/core/period"
	"github.com/salescope-lab/salescope/internal/core/rank"
	"github.com/salescope-lab/salescope/internal/core/sales"
	"github.com/salescope-lab/salescope/internal/enrich"
	"github.com/salescope-lab/salescope/internal/report"
	"github.com/shopspring/decimal"
)

// Analysis modes.
const (
	ModeTemporal = "temporal"
	ModeABC      = "abc"
)

// Options parameterizes one run. Store selection is a runtime filter, not
// a code fork: the same pipeline serves every store.
type Options struct {
	Mode        string
	Granularity period.Granularity
	TopN        int
	BottomN     int
	ClassALimit float64
	ClassBLimit float64

	// Stores restricts the run to these ids; empty means all stores.
	Stores []string

	// RecentPeriods limits enrichment to the last N periods per store in
	// temporal mode; 0 enriches every period.
	RecentPeriods int

	// BatchSize and BatchPause shape ABC enrichment: items go to the
	// remote service in batches with a pause in between.
	BatchSize  int
	BatchPause time.Duration
}

// DefaultOptions mirrors the production analysis parameters.
func DefaultOptions() Options {
	return Options{
		Mode:          ModeTemporal,
		Granularity:   period.Monthly,
		TopN:          10,
		BottomN:       10,
		ClassALimit:   rank.DefaultClassALimit,
		ClassBLimit:   rank.DefaultClassBLimit,
		RecentPeriods: 7,
		BatchSize:     15,
		BatchPause:    1500 * time.Millisecond,
	}
}

func (o Options) normalized() Options {
	n := o
	if n.Mode == "" {
		n.Mode = ModeTemporal
	}
	if n.Granularity == "" {
		n.Granularity = period.Monthly
	}
	if n.TopN <= 0 {
		n.TopN = 10
	}
	if n.BottomN <= 0 {
		n.BottomN = 10
	}
	if n.ClassALimit <= 0 {
		n.ClassALimit = rank.DefaultClassALimit
	}
	if n.ClassBLimit <= 0 {
		n.ClassBLimit = rank.DefaultClassBLimit
	}
	if n.BatchSize <= 0 {
		n.BatchSize = 15
	}
	return n
}

// Pipeline runs the analysis. The enricher is the only collaborator with
// side effects; everything else is pure computation over the records.
type Pipeline struct {
	enricher enrich.Enricher
	opts     Options
	sleep    func(time.Duration)
}

// New builds a pipeline. A nil enricher selects the capability-null
// variant, so callers without a credential need no special handling.
func New(enricher enrich.Enricher, opts Options) *Pipeline {
	if enricher == nil {
		enricher = enrich.NewDisabled()
	}
	return &Pipeline{
		enricher: enricher,
		opts:     opts.normalized(),
		sleep:    time.Sleep,
	}
}

// Run executes the full analysis over normalized records and returns the
// output document. Enrichment failures degrade individual scopes; Run
// itself fails only on an invalid mode.
func (p *Pipeline) Run(ctx context.Context, records []sales.Record) (*report.Document, error) {
	start := time.Now()
	runID := uuid.NewString()

	lines := sales.Aggregate(p.filter(records), p.opts.Granularity)
	stores := sales.Stores(lines)

	slog.Info("[Pipeline] Starting analysis",
		"run_id", runID, "mode", p.opts.Mode, "granularity", p.opts.Granularity,
		"stores", len(stores), "aggregated_lines", len(lines),
		"enrichment", !p.enricher.Disabled())

	doc := &report.Document{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Mode:        p.opts.Mode,
		Granularity: string(p.opts.Granularity),
	}

	for i, storeID := range stores {
		slog.Info("[Pipeline] Processing store", "store", storeID, "progress", fmt.Sprintf("%d/%d", i+1, len(stores)))
		storeLines := sales.FilterStore(lines, storeID)

		var store report.Store
		switch p.opts.Mode {
		case ModeTemporal:
			store = p.runTemporal(ctx, storeID, storeLines)
		case ModeABC:
			store = p.runABC(ctx, storeID, storeLines)
		default:
			return nil, fmt.Errorf("unknown analysis mode %q", p.opts.Mode)
		}
		doc.Stores = append(doc.Stores, store)
	}

	p.logStats(doc, time.Since(start))
	return doc, nil
}

// filter applies the store selection to the raw records.
func (p *Pipeline) filter(records []sales.Record) []sales.Record {
	if len(p.opts.Stores) == 0 {
		return records
	}
	keep := make(map[string]struct{}, len(p.opts.Stores))
	for _, s := range p.opts.Stores {
		keep[s] = struct{}{}
	}
	var out []sales.Record
	for _, r := range records {
		if _, ok := keep[r.StoreID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// runTemporal produces the per-period top/bottom analysis for one store.
// Periods are walked chronologically so each has access to its
// predecessor's per-product totals for variation.
func (p *Pipeline) runTemporal(ctx context.Context, storeID string, storeLines []sales.Line) report.Store {
	store := report.Store{
		StoreID: report.StoreID(storeID),
		Periods: make(map[string]report.Period),
	}

	periods := sales.Periods(storeLines)
	for i, label := range periods {
		periodLines := sales.FilterPeriod(storeLines, label)

		total := decimal.Zero
		for _, l := range periodLines {
			total = total.Add(l.Total)
		}

		ranked := rank.SelectTopBottom(periodLines, p.opts.TopN, p.opts.BottomN)
		if len(ranked) == 0 {
			// An empty period is skipped entirely, not emitted hollow.
			continue
		}

		var prior map[string]decimal.Decimal
		if i > 0 {
			prior = make(map[string]decimal.Decimal)
			for _, l := range sales.FilterPeriod(storeLines, periods[i-1]) {
				prior[l.Product] = l.Total
			}
		}
		ranked = rank.AttachPrior(ranked, prior)

		items := make([]report.Item, len(ranked))
		for j, r := range ranked {
			items[j] = report.Item{
				Product:   r.Product,
				Tier:      string(r.Tier),
				Amount:    money.Round2(r.Amount).InexactFloat64(),
				Variation: r.Variation,
			}
			if r.Prior.IsPositive() {
				v := money.Round2(r.Prior).InexactFloat64()
				items[j].PriorAmount = &v
			}
		}

		var results []enrich.Result
		disabled := p.enricher.Disabled()
		if !disabled && p.shouldEnrich(i, len(periods)) {
			results = p.enricher.Enrich(ctx, storeID, label, itemContexts(items))
		}
		items = attachEnrichment(items, results, disabled)

		store.Periods[label] = report.Period{
			Total: money.Round2(total).InexactFloat64(),
			Items: items,
		}
		slog.Info("[Pipeline] Period analyzed", "store", storeID, "period", label, "items", len(items))
	}

	return store
}

// shouldEnrich applies the recent-period window: with N > 0 only the last
// N periods of a store get remote analysis, older ones keep fallbacks.
func (p *Pipeline) shouldEnrich(index, total int) bool {
	if p.opts.RecentPeriods <= 0 {
		return true
	}
	return index >= total-p.opts.RecentPeriods
}

// runABC produces the revenue-concentration curve for one store. The
// store is always emitted, even with zero revenue. Items go to the
// enricher in batches to keep prompts bounded.
func (p *Pipeline) runABC(ctx context.Context, storeID string, storeLines []sales.Line) report.Store {
	store := report.Store{StoreID: report.StoreID(storeID)}

	classified := rank.ClassifyABC(storeLines, p.opts.ClassALimit, p.opts.ClassBLimit)
	if len(classified) == 0 {
		slog.Warn("[Pipeline] Store has no positive revenue", "store", storeID)
		return store
	}

	items := make([]report.Item, len(classified))
	for i, c := range classified {
		share := c.CumulativeShare.Round(2).InexactFloat64()
		history := make(map[string]float64, len(c.History))
		for label, amount := range c.History {
			history[label] = money.Round2(amount).InexactFloat64()
		}
		items[i] = report.Item{
			Product:         c.Product,
			Class:           string(c.Class),
			Amount:          money.Round2(c.Total).InexactFloat64(),
			CumulativeShare: &share,
			History:         history,
		}
	}

	disabled := p.enricher.Disabled()
	if disabled {
		store.Items = attachEnrichment(items, nil, true)
		return store
	}

	batches := (len(items) + p.opts.BatchSize - 1) / p.opts.BatchSize
	for b := 0; b < len(items); b += p.opts.BatchSize {
		end := b + p.opts.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[b:end]
		slog.Info("[Pipeline] Enriching batch",
			"store", storeID, "batch", b/p.opts.BatchSize+1, "batches", batches, "items", len(batch))

		results := p.enricher.Enrich(ctx, storeID, "all-periods", itemContexts(batch))
		attachEnrichment(batch, results, false)

		if end < len(items) && p.opts.BatchPause > 0 {
			p.sleep(p.opts.BatchPause)
		}
	}

	store.Items = items
	return store
}

// itemContexts projects report items into the enrichment payload shape.
func itemContexts(items []report.Item) []enrich.ItemContext {
	out := make([]enrich.ItemContext, len(items))
	for i, it := range items {
		ctx := enrich.ItemContext{
			Product:   it.Product,
			Tier:      it.Tier,
			Class:     it.Class,
			Amount:    it.Amount,
			Variation: it.Variation,
			History:   it.History,
		}
		if it.PriorAmount != nil {
			ctx.Prior = *it.PriorAmount
		}
		out[i] = ctx
	}
	return out
}

func (p *Pipeline) logStats(doc *report.Document, elapsed time.Duration) {
	periods, items := 0, 0
	for _, s := range doc.Stores {
		periods += len(s.Periods)
		items += len(s.Items)
		for _, per := range s.Periods {
			items += len(per.Items)
		}
	}
	slog.Info("[Pipeline] Analysis complete",
		"run_id", doc.RunID, "stores", len(doc.Stores),
		"periods", periods, "items", items, "elapsed", elapsed.Round(time.Millisecond))
}
