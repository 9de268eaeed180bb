package sales

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one normalized point-of-sale row.
// Invariant: Amount > 0 and Date is valid — rows violating either are
// dropped during ingestion and never reach this type.
type Record struct {
	StoreID string
	Product string // canonical form, see CanonicalProduct
	Amount  decimal.Decimal
	Date    time.Time
}

// Line is the revenue of one product in one (store, period) scope.
// Unique per (StoreID, Period, Product) — the aggregator guarantees no
// duplicate keys.
type Line struct {
	StoreID string
	Period  string // period label, e.g. "2024-03"
	Product string
	Total   decimal.Decimal
}

// CanonicalProduct normalizes a product description into the join key used
// across the whole pipeline: trimmed, upper-cased, with internal whitespace
// runs collapsed to a single space. Two spellings differing only in case or
// spacing must normalize identically, otherwise enrichment results fail to
// match their items.
func CanonicalProduct(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}
