package enrich

import "context"

// Disabled is the capability-null enricher used when no credential is
// configured. It satisfies the same contract as Client without ever
// attempting a call; the assembler sees Disabled() and stamps every item
// with the "AI not available" fallback.
type DisabledClient struct{}

func NewDisabled() DisabledClient { return DisabledClient{} }

func (DisabledClient) Enrich(context.Context, string, string, []ItemContext) []Result {
	return nil
}

func (DisabledClient) Disabled() bool { return true }
