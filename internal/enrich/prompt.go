package enrich

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/salescope-lab/salescope/internal/core/period"
)

// Caps the remote service is asked to honor per field. Responses are not
// trusted to comply; the assembler truncates on merge.
const (
	MaxDiagnosisLen = 100
	MaxActionLen    = 80
)

// ItemContext is one item's figures as embedded in the prompt and as the
// join target of the response. Temporal items carry tier/variation fields,
// ABC items carry class/history; unused fields are omitted.
type ItemContext struct {
	Product   string             `json:"product"`
	Tier      string             `json:"tier,omitempty"`
	Class     string             `json:"class,omitempty"`
	Amount    float64            `json:"amount"`
	Prior     float64            `json:"prior_amount,omitempty"`
	Variation string             `json:"variation,omitempty"`
	History   map[string]float64 `json:"history,omitempty"`
}

// BuildPrompt renders the analysis request for one (store, period) scope.
// Pure string construction: deterministic given inputs, no side effects.
// The item figures are embedded as a literal JSON array and the response
// schema is stated verbatim so the reply can be parsed structurally.
func BuildPrompt(storeID, periodLabel string, items []ItemContext, season SeasonContext, periodTotal float64) string {
	payload, err := json.Marshal(items)
	if err != nil {
		// Items are plain values; marshaling cannot realistically fail.
		payload = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# SALES PERFORMANCE ANALYSIS - RESTAURANT\n\n")

	fmt.Fprintf(&b, "## ROLE\n")
	fmt.Fprintf(&b, "You are a senior restaurant management consultant specialized in menu analysis, sales optimization and seasonal strategy in the Brazilian market.\n\n")

	fmt.Fprintf(&b, "## BUSINESS CONTEXT\n")
	fmt.Fprintf(&b, "- Establishment: Restaurant/Steakhouse (Store %s)\n", storeID)
	fmt.Fprintf(&b, "- Period: %s\n", period.DisplayName(periodLabel))
	fmt.Fprintf(&b, "- Season: %s\n", season.Season)
	fmt.Fprintf(&b, "- Events: %s\n", season.Events)
	fmt.Fprintf(&b, "- Expected trend: %s\n", season.Trend)
	if periodTotal > 0 {
		fmt.Fprintf(&b, "- Period revenue: R$ %.2f\n", periodTotal)
	}
	fmt.Fprintf(&b, "- Items under analysis: %d\n\n", len(items))

	fmt.Fprintf(&b, "## DATA\n")
	fmt.Fprintf(&b, "Each item includes name and sales figures (tier or ABC class, current amount, prior amount and variation, or monthly history).\n\n")
	fmt.Fprintf(&b, "```json\n%s\n```\n\n", payload)

	fmt.Fprintf(&b, "## TASK\n")
	fmt.Fprintf(&b, "Analyze EACH item individually. For top performers, identify the driver of success and how to maximize it. For low performers, diagnose the cause (inverse seasonality, price, visibility) and recommend one specific action. Consider the %s season and the period's events in every analysis. For items marked %q, focus on launch potential.\n\n", season.Season, "new, no prior sales")

	fmt.Fprintf(&b, "## RESPONSE FORMAT (JSON)\n")
	fmt.Fprintf(&b, "Return EXACTLY a JSON array with one object per item, no markdown fences and no text around it:\n\n")
	fmt.Fprintf(&b, "[{\"product\": \"EXACT_NAME_AS_IN_DATA\", \"diagnosis\": \"objective sentence explaining the performance (max %d chars)\", \"action\": \"specific, executable recommendation (max %d chars)\"}]\n\n", MaxDiagnosisLen, MaxActionLen)

	fmt.Fprintf(&b, "## RULES\n")
	fmt.Fprintf(&b, "1. Use the product name EXACTLY as it appears in the data.\n")
	fmt.Fprintf(&b, "2. Diagnosis must be specific to the item, never generic.\n")
	fmt.Fprintf(&b, "3. Action must be executable by the store manager tomorrow.\n")
	fmt.Fprintf(&b, "4. Do not invent figures - use only the data provided.\n")

	return b.String()
}
