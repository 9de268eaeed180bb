// Package rank selects the extremes of a period's sales and computes
// period-over-period variation. Only the extremes are analyzed: the middle
// of the catalog is dropped from temporal analysis entirely.
package rank

import (
	"fmt"
	"sort"

	"github.com/salescope-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

// Tier labels a ranked item's position within its period.
type Tier string

const (
	TierTop     Tier = "TOP"
	TierBottom  Tier = "BOTTOM"
	TierGeneral Tier = "GENERAL"
)

// Variation labels for items without a usable prior-period amount.
const (
	VariationNew    = "new, no prior sales"
	VariationNoData = "no data"
)

// Item is an aggregated line annotated with its tier and, once attached by
// the caller, the prior-period comparison.
type Item struct {
	Product   string
	Amount    decimal.Decimal
	Tier      Tier
	Prior     decimal.Decimal
	Variation string
}

// SelectTopBottom sorts a period's lines descending by amount and tags the
// first topN as TOP and the last bottomN as BOTTOM. When the period has no
// more than topN+bottomN items every item is tagged GENERAL instead — a
// sparse period yields no split, so the two sets can never overlap.
//
// The sort is stable, so equal amounts keep their input order and repeated
// runs produce identical tier assignments.
func SelectTopBottom(lines []sales.Line, topN, bottomN int) []Item {
	if len(lines) == 0 {
		return nil
	}

	sorted := make([]sales.Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total.GreaterThan(sorted[j].Total)
	})

	if len(sorted) <= topN+bottomN {
		items := make([]Item, len(sorted))
		for i, l := range sorted {
			items[i] = Item{Product: l.Product, Amount: l.Total, Tier: TierGeneral}
		}
		return items
	}

	items := make([]Item, 0, topN+bottomN)
	for _, l := range sorted[:topN] {
		items = append(items, Item{Product: l.Product, Amount: l.Total, Tier: TierTop})
	}
	for _, l := range sorted[len(sorted)-bottomN:] {
		items = append(items, Item{Product: l.Product, Amount: l.Total, Tier: TierBottom})
	}
	return items
}

// Variation formats the percentage change from prior to current with an
// explicit sign. The zero/absent-prior branch is checked first so division
// by zero cannot occur: a positive current with no prior is a new product,
// anything else has no data to compare.
func Variation(current, prior decimal.Decimal) string {
	if prior.GreaterThan(decimal.Zero) {
		delta := current.Sub(prior).Div(prior).Mul(decimal.NewFromInt(100))
		return fmt.Sprintf("%+.1f%%", delta.InexactFloat64())
	}
	if current.GreaterThan(decimal.Zero) {
		return VariationNew
	}
	return VariationNoData
}

// AttachPrior fills Prior and Variation on each item from the prior
// period's per-product totals. Products absent from the prior period get a
// zero prior, which Variation reads as "new".
func AttachPrior(items []Item, prior map[string]decimal.Decimal) []Item {
	for i := range items {
		p := prior[items[i].Product]
		items[i].Prior = p
		items[i].Variation = Variation(items[i].Amount, p)
	}
	return items
}
