package rank

import (
	"sort"

	"github.com/salescope-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
)

// Class is the ABC revenue-concentration class of a product.
type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
)

// Default cumulative-share limits: class A up to 80% of store revenue,
// class B up to 95%, class C the rest. Boundaries are inclusive of the
// lower class.
const (
	DefaultClassALimit = 80.0
	DefaultClassBLimit = 95.0
)

// ClassifiedItem is a product's all-period total annotated with its share
// of store revenue and ABC class. History maps period label to that
// period's amount, rounded to two places.
type ClassifiedItem struct {
	Product         string
	Total           decimal.Decimal
	CumulativeShare decimal.Decimal // 0–100
	Class           Class
	History         map[string]decimal.Decimal
}

// ClassifyABC builds the ABC curve for one store from its aggregated
// lines: products are summed across all periods, sorted descending by
// total, and classed by cumulative share of store revenue. A store with
// zero revenue yields an empty item list — ABC always emits the store,
// with whatever revenue it has.
func ClassifyABC(lines []sales.Line, classALimit, classBLimit float64) []ClassifiedItem {
	totals := make(map[string]decimal.Decimal)
	history := make(map[string]map[string]decimal.Decimal)
	for _, l := range lines {
		totals[l.Product] = totals[l.Product].Add(l.Total)
		if history[l.Product] == nil {
			history[l.Product] = make(map[string]decimal.Decimal)
		}
		history[l.Product][l.Period] = history[l.Product][l.Period].Add(l.Total)
	}

	storeTotal := decimal.Zero
	for _, t := range totals {
		storeTotal = storeTotal.Add(t)
	}
	if !storeTotal.GreaterThan(decimal.Zero) {
		return nil
	}

	products := make([]string, 0, len(totals))
	for p := range totals {
		products = append(products, p)
	}
	// Descending by total; ties broken by name for determinism.
	sort.Slice(products, func(i, j int) bool {
		ti, tj := totals[products[i]], totals[products[j]]
		if !ti.Equal(tj) {
			return ti.GreaterThan(tj)
		}
		return products[i] < products[j]
	})

	hundred := decimal.NewFromInt(100)
	limitA := decimal.NewFromFloat(classALimit)
	limitB := decimal.NewFromFloat(classBLimit)

	items := make([]ClassifiedItem, 0, len(products))
	cumulative := decimal.Zero
	for _, p := range products {
		cumulative = cumulative.Add(totals[p])
		share := cumulative.Div(storeTotal).Mul(hundred)
		items = append(items, ClassifiedItem{
			Product:         p,
			Total:           totals[p],
			CumulativeShare: share,
			Class:           classFor(share, limitA, limitB),
			History:         history[p],
		})
	}
	return items
}

// classFor assigns the ABC class for a cumulative share. Boundary values
// belong to the lower class: exactly 80 is A, exactly 95 is B.
func classFor(cumulative, limitA, limitB decimal.Decimal) Class {
	if cumulative.LessThanOrEqual(limitA) {
		return ClassA
	}
	if cumulative.LessThanOrEqual(limitB) {
		return ClassB
	}
	return ClassC
}
