// Package sales holds the normalized sales data model and the
// group-and-sum aggregation that feeds ranking and classification.
package sales

import (
	"sort"

	"github.com/salescope-lab/salescope/internal/core/period"
	"github.com/shopspring/decimal"
)

type lineKey struct {
	storeID string
	period  string
	product string
}

// Aggregate groups records by (store, period, product) at the given
// granularity and sums their amounts with exact decimal arithmetic.
// The sum of line totals within a (store, period) scope always equals the
// sum of the contributing record amounts.
//
// Output is sorted by store, then period, then product, so downstream
// iteration and the emitted document are deterministic.
func Aggregate(records []Record, g period.Granularity) []Line {
	sums := make(map[lineKey]decimal.Decimal, len(records))
	for _, r := range records {
		k := lineKey{
			storeID: r.StoreID,
			period:  period.Label(r.Date, g),
			product: r.Product,
		}
		sums[k] = sums[k].Add(r.Amount)
	}

	lines := make([]Line, 0, len(sums))
	for k, total := range sums {
		lines = append(lines, Line{
			StoreID: k.storeID,
			Period:  k.period,
			Product: k.product,
			Total:   total,
		})
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].StoreID != lines[j].StoreID {
			return lines[i].StoreID < lines[j].StoreID
		}
		if lines[i].Period != lines[j].Period {
			return lines[i].Period < lines[j].Period
		}
		return lines[i].Product < lines[j].Product
	})
	return lines
}

// Stores returns the distinct store ids present in lines, sorted.
func Stores(lines []Line) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range lines {
		if _, ok := seen[l.StoreID]; !ok {
			seen[l.StoreID] = struct{}{}
			out = append(out, l.StoreID)
		}
	}
	sort.Strings(out)
	return out
}

// Periods returns the distinct period labels present in lines, sorted
// chronologically (labels are ISO-like, so lexical order is chronological).
func Periods(lines []Line) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range lines {
		if _, ok := seen[l.Period]; !ok {
			seen[l.Period] = struct{}{}
			out = append(out, l.Period)
		}
	}
	sort.Strings(out)
	return out
}

// FilterStore returns the lines belonging to one store, preserving order.
func FilterStore(lines []Line, storeID string) []Line {
	var out []Line
	for _, l := range lines {
		if l.StoreID == storeID {
			out = append(out, l)
		}
	}
	return out
}

// FilterPeriod returns the lines belonging to one period, preserving order.
func FilterPeriod(lines []Line, label string) []Line {
	var out []Line
	for _, l := range lines {
		if l.Period == label {
			out = append(out, l)
		}
	}
	return out
}
