package domain

// Intent is the routing decision controlling which retrievers run for a
// question. It is computed once per request and never revised mid-stream.
type Intent string

const (
	IntentInternal Intent = "internal"
	IntentExternal Intent = "external"
	IntentHybrid   Intent = "hybrid"
)

// ChatMessage is one turn of caller-supplied conversation history. History is
// passed through as read-only context and is not consulted by retrieval.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// EvidenceDocument is one internal vector-search hit. FullContent feeds the
// completion prompt; Snippet is the query-focused excerpt shown to the UI and
// is always derived from FullContent, never the reverse.
type EvidenceDocument struct {
	Title          string
	FullContent    string
	Snippet        string
	URL            string
	RelevanceScore float64
	SourceID       string
}

// ErrorSourceLabel marks an ExternalEvidence that records a failed web search.
const ErrorSourceLabel = "Error"

// ExternalEvidence is the result of one web search. A failure is reported as
// a value with SourceLabel set to ErrorSourceLabel, not as an error, so the
// orchestrator can continue and surface partial results.
type ExternalEvidence struct {
	Content     string
	SourceLabel string
	Query       string
}

// IsError reports whether the evidence is the failure sentinel.
func (e ExternalEvidence) IsError() bool {
	return e.SourceLabel == ErrorSourceLabel
}
