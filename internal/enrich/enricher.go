// Package enrich drives the external generative-text service: prompt
// construction, response repair and validation, and the two-tier retry
// state machine that keeps remote flakiness away from the rest of the
// pipeline. Enrichment failures never abort a run — they only reduce the
// richness of one scope's output.
package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/salescope-lab/salescope/internal/core/period"
)

// Result is one product's diagnosis and recommended action, joined back
// onto its item by exact canonical product name.
type Result struct {
	Product   string `json:"product"`
	Diagnosis string `json:"diagnosis"`
	Action    string `json:"action"`
}

// Fallback texts used when enrichment produced nothing for an item.
const (
	FallbackDiagnosis = "analysis unavailable"
	FallbackAction    = "-"
	DisabledDiagnosis = "AI not available"
)

// Policy holds the retry budgets and delays of the enrichment state
// machine. All values are injectable so tests run without wall-clock
// sleeps.
type Policy struct {
	// MaxAttempts bounds generic attempts: transient failures and empty
	// replies. Exceeding it abandons the call.
	MaxAttempts int
	// MaxQuotaRetries bounds quota/rate-limit retries on an independent
	// budget: quota retries never consume generic attempts.
	MaxQuotaRetries int
	// MaxSchemaRetries bounds consecutive malformed-payload retries so a
	// model stuck on bad output cannot loop indefinitely.
	MaxSchemaRetries int
	// CallDelay precedes every request attempt. Rate limiting by design,
	// independent of error handling.
	CallDelay time.Duration
	// QuotaBaseDelay scales the linear quota backoff: base × retry number
	// plus jitter. Linear, not exponential — quota windows reset on a
	// roughly fixed cadence.
	QuotaBaseDelay time.Duration
}

// DefaultPolicy mirrors the production budgets.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:      5,
		MaxQuotaRetries:  8,
		MaxSchemaRetries: 3,
		CallDelay:        time.Second,
		QuotaBaseDelay:   30 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	n := p
	if n.MaxAttempts <= 0 {
		n.MaxAttempts = 5
	}
	if n.MaxQuotaRetries <= 0 {
		n.MaxQuotaRetries = 8
	}
	if n.MaxSchemaRetries <= 0 {
		n.MaxSchemaRetries = 3
	}
	return n
}

// Enricher is the public interface the pipeline depends on. Disabled
// reports whether calls would ever be attempted; the assembler uses it to
// pick the "AI not available" fallback without dispatching anything.
type Enricher interface {
	Enrich(ctx context.Context, storeID, periodLabel string, items []ItemContext) []Result
	Disabled() bool
}

// Client is the resilient enrichment client. One Client serves the whole
// run; calls are sequential by design, since the remote service enforces a
// shared quota.
type Client struct {
	gen      TextGenerator
	seasons  Calendar
	policy   Policy
	sleep    func(time.Duration)
	jitterFn func(max time.Duration) time.Duration
}

// NewClient builds an enrichment client around a text generator.
func NewClient(gen TextGenerator, seasons Calendar, policy Policy) *Client {
	if seasons == nil {
		seasons = DefaultCalendar()
	}
	return &Client{
		gen:      gen,
		seasons:  seasons,
		policy:   policy.normalized(),
		sleep:    time.Sleep,
		jitterFn: func(max time.Duration) time.Duration { return time.Duration(rand.Int63n(int64(max))) },
	}
}

func (c *Client) Disabled() bool { return false }

// Close releases the underlying generator's connection when it holds one.
func (c *Client) Close() error {
	if closer, ok := c.gen.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Enrich requests a diagnosis/action pair for every item in one
// (store, period) scope. It returns an empty slice — never an error — on
// any unrecoverable failure; the caller falls back per item.
//
// Attempt outcomes drive a small state machine with three independent
// budgets: generic attempts (transient failures, empty replies), quota
// retries with linear backoff, and consecutive schema failures. The first
// structurally valid array response wins.
func (c *Client) Enrich(ctx context.Context, storeID, periodLabel string, items []ItemContext) []Result {
	if len(items) == 0 {
		return nil
	}

	total := 0.0
	for _, it := range items {
		total += it.Amount
	}
	prompt := BuildPrompt(storeID, periodLabel, items, c.seasons.Context(period.MonthOf(periodLabel)), total)

	attempts := 0
	quotaRetries := 0
	schemaFailures := 0

	for attempts < c.policy.MaxAttempts {
		if ctx.Err() != nil {
			slog.Warn("[Enrich] Context cancelled", "store", storeID, "period", periodLabel)
			return nil
		}

		// Mandatory pause before every attempt, regardless of outcome.
		c.sleep(c.policy.CallDelay)

		text, err := c.gen.Generate(ctx, prompt)
		if err != nil {
			switch classifyError(err) {
			case failureQuota:
				schemaFailures = 0
				quotaRetries++
				if quotaRetries >= c.policy.MaxQuotaRetries {
					slog.Error("[Enrich] Quota budget exhausted, skipping scope",
						"store", storeID, "period", periodLabel, "retries", quotaRetries)
					return nil
				}
				delay := time.Duration(quotaRetries)*c.policy.QuotaBaseDelay + c.jitter(5*time.Second)
				slog.Warn("[Enrich] Rate limited, backing off",
					"store", storeID, "period", periodLabel,
					"retry", quotaRetries, "budget", c.policy.MaxQuotaRetries, "delay", delay)
				c.sleep(delay)
				continue // quota retries never consume generic attempts

			case failureTransient:
				schemaFailures = 0
				attempts++
				if attempts >= c.policy.MaxAttempts {
					slog.Error("[Enrich] Attempt budget exhausted, skipping scope",
						"store", storeID, "period", periodLabel, "attempts", attempts, "error", err)
					return nil
				}
				delay := time.Duration(1<<uint(attempts))*time.Second + c.jitter(time.Second)
				slog.Warn("[Enrich] Transient failure, backing off",
					"store", storeID, "period", periodLabel,
					"attempt", attempts, "budget", c.policy.MaxAttempts, "delay", delay, "error", err)
				c.sleep(delay)
				continue

			default:
				slog.Error("[Enrich] Fatal error, skipping scope",
					"store", storeID, "period", periodLabel, "error", err)
				return nil
			}
		}

		if strings.TrimSpace(text) == "" {
			// Soft miss: counts only against the generic counter.
			schemaFailures = 0
			attempts++
			slog.Warn("[Enrich] Empty response, retrying",
				"store", storeID, "period", periodLabel, "attempt", attempts)
			continue
		}

		results, ok := parseResults(text)
		if !ok {
			schemaFailures++
			slog.Warn("[Enrich] Malformed response payload",
				"store", storeID, "period", periodLabel,
				"failure", schemaFailures, "budget", c.policy.MaxSchemaRetries)
			if schemaFailures >= c.policy.MaxSchemaRetries {
				slog.Error("[Enrich] Persistent invalid payloads, skipping scope",
					"store", storeID, "period", periodLabel)
				return nil
			}
			continue // schema failures have their own budget
		}

		slog.Debug("[Enrich] Scope enriched",
			"store", storeID, "period", periodLabel, "results", len(results))
		return results
	}

	return nil
}

func (c *Client) jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return c.jitterFn(max)
}

// parseResults repairs and validates a model reply. Elements missing a
// diagnosis or action are coerced to placeholders rather than rejected.
func parseResults(text string) ([]Result, bool) {
	repaired := RepairJSON(text)

	var results []Result
	if err := json.Unmarshal([]byte(repaired), &results); err != nil {
		return nil, false
	}

	for i := range results {
		if strings.TrimSpace(results[i].Diagnosis) == "" {
			results[i].Diagnosis = FallbackDiagnosis
		}
		if strings.TrimSpace(results[i].Action) == "" {
			results[i].Action = FallbackAction
		}
	}
	return results, true
}
