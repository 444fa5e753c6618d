package usecase

import (
	"fmt"
	"strings"

	"bullpen-rag/internal/domain"
)

const externalPromptTemplate = `You are a concise financial analyst.

STRICT RULES:
- Answer in 3-5 bullet points ONLY
- Each bullet: ONE key fact (≤20 words)
- End each bullet with [Source: specific name/date]
- NO introductions, NO conclusions, NO fluff

### Data:
%s

### Question:
%s

ANSWER:`

const hybridPromptTemplate = `You are a concise financial analyst.

STRICT RULES:
- Answer in 3-5 bullet points ONLY
- Each bullet: ONE key fact (≤20 words)
- End each bullet with [Source: document/website name]
- NO introductions, NO conclusions, NO fluff

### Internal Data:
%s

### External Data:
%s

### Question:
%s

ANSWER:`

const internalPromptTemplate = `You are a concise financial analyst.

STRICT RULES:
- Answer in 3-5 bullet points ONLY
- Each bullet: ONE key fact (≤20 words)
- End each bullet with [Source: document name]
- NO introductions, NO conclusions, NO fluff

### Documents:
%s

### Question:
%s

ANSWER:`

// BuildAnswerPrompt renders the grounded system prompt for the final answer.
// Each intent gets its own evidence layout; the template choice follows the
// intent, not which evidence happens to be non-empty.
func BuildAnswerPrompt(intent domain.Intent, question string, internal []domain.EvidenceDocument, external *domain.ExternalEvidence) string {
	switch intent {
	case domain.IntentExternal:
		return fmt.Sprintf(externalPromptTemplate, externalContent(external), question)
	case domain.IntentHybrid:
		internalContext := "No internal data found."
		if len(internal) > 0 {
			blocks := make([]string, 0, len(internal))
			for _, doc := range internal {
				blocks = append(blocks, fmt.Sprintf("Document: %s\n%s", doc.Title, doc.FullContent))
			}
			internalContext = strings.Join(blocks, "\n\n")
		}
		externalContext := "No external market data found."
		if external != nil && !external.IsError() {
			externalContext = external.Content
		}
		return fmt.Sprintf(hybridPromptTemplate, internalContext, externalContext, question)
	default:
		blocks := make([]string, 0, len(internal))
		for _, doc := range internal {
			blocks = append(blocks, fmt.Sprintf("Title: %s\nContent: %s", doc.Title, doc.FullContent))
		}
		return fmt.Sprintf(internalPromptTemplate, strings.Join(blocks, "\n\n"), question)
	}
}

func externalContent(external *domain.ExternalEvidence) string {
	if external == nil {
		return ""
	}
	return external.Content
}
