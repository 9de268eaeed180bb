// Package report defines the output document consumed by the dashboard
// and writes it as a single indented UTF-8 JSON file.
package report

import (
	"strconv"
	"time"
)

// Enrichment is the diagnosis/action pair attached to every emitted item.
// Always present: items the remote service skipped carry a fallback.
type Enrichment struct {
	Diagnosis string `json:"diagnosis"`
	Action    string `json:"action"`
}

// Item is one product's entry in the document. Tier/variation fields are
// populated in temporal mode, class/share/history in ABC mode.
type Item struct {
	Product         string             `json:"product"`
	Tier            string             `json:"tier,omitempty"`
	Class           string             `json:"class,omitempty"`
	Amount          float64            `json:"amount"`
	PriorAmount     *float64           `json:"prior_amount,omitempty"`
	Variation       string             `json:"variation,omitempty"`
	CumulativeShare *float64           `json:"cumulative_share,omitempty"`
	History         map[string]float64 `json:"history,omitempty"`
	Enrichment      Enrichment         `json:"enrichment"`
}

// Period is one analyzed scope within a store: the period's full revenue
// and its ranked items.
type Period struct {
	Total float64 `json:"total"`
	Items []Item  `json:"items"`
}

// Store is one store's analysis. Periods holds temporal-mode results
// keyed by period label (Go marshals map keys sorted, so the emitted
// mapping is ordered chronologically); Items holds the flat ABC curve.
type Store struct {
	StoreID any               `json:"store_id"`
	Periods map[string]Period `json:"periods,omitempty"`
	Items   []Item            `json:"items,omitempty"`
}

// Document is the complete output of one run. Built once, serialized
// once; the pipeline holds no state across runs beyond this file.
type Document struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Mode        string    `json:"mode"`
	Granularity string    `json:"granularity"`
	Stores      []Store   `json:"stores"`
}

// StoreID renders a raw store id as an integer when it parses as one,
// otherwise as the original string — the dashboard expects numeric ids
// for numbered stores.
func StoreID(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}
