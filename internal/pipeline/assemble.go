package pipeline

import (
	"github.com/salescope-lab/salescope/internal/enrich"
	"github.com/salescope-lab/salescope/internal/report"
)

// attachEnrichment merges enrichment results onto items by canonical
// product name. Items without a match get the fallback narrative; when no
// enrichment client is configured every item gets the disabled marker
// instead. Never drops an item, never fails.
func attachEnrichment(items []report.Item, results []enrich.Result, disabled bool) []report.Item {
	if disabled {
		for i := range items {
			items[i].Enrichment = report.Enrichment{
				Diagnosis: enrich.DisabledDiagnosis,
				Action:    enrich.FallbackAction,
			}
		}
		return items
	}

	byProduct := make(map[string]enrich.Result, len(results))
	for _, r := range results {
		byProduct[r.Product] = r
	}

	for i := range items {
		r, ok := byProduct[items[i].Product]
		if !ok {
			items[i].Enrichment = report.Enrichment{
				Diagnosis: enrich.FallbackDiagnosis,
				Action:    enrich.FallbackAction,
			}
			continue
		}
		items[i].Enrichment = report.Enrichment{
			Diagnosis: truncate(r.Diagnosis, enrich.MaxDiagnosisLen),
			Action:    truncate(r.Action, enrich.MaxActionLen),
		}
	}
	return items
}

// truncate caps model output that ignored the length limits in the
// prompt. Cuts on runes so multibyte text is never split mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
