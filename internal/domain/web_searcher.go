package domain

import "context"

// WebSearcher issues one externally-timed web search. Failures are folded into
// the returned ExternalEvidence (SourceLabel "Error") rather than surfaced as
// errors.
type WebSearcher interface {
	SearchWeb(ctx context.Context, query string) ExternalEvidence
}
