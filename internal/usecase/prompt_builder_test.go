package usecase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"bullpen-rag/internal/domain"
	"bullpen-rag/internal/usecase"
)

func TestBuildAnswerPrompt_External(t *testing.T) {
	external := &domain.ExternalEvidence{Content: "CrowdStrike trades around $80B.", SourceLabel: "Perplexity AI"}

	prompt := usecase.BuildAnswerPrompt(domain.IntentExternal, "What is CrowdStrike's market cap?", nil, external)

	assert.Contains(t, prompt, "### Data:")
	assert.Contains(t, prompt, "CrowdStrike trades around $80B.")
	assert.Contains(t, prompt, "What is CrowdStrike's market cap?")
	assert.Contains(t, prompt, "[Source: specific name/date]")
	assert.True(t, strings.HasSuffix(prompt, "ANSWER:"))
}

func TestBuildAnswerPrompt_Internal(t *testing.T) {
	internal := []domain.EvidenceDocument{
		{Title: "globelink_model.txt", FullContent: "ARR reached $12m in FY24."},
		{Title: "deal_memo.txt", FullContent: "The deal closed in March."},
	}

	prompt := usecase.BuildAnswerPrompt(domain.IntentInternal, "What was the ARR?", internal, nil)

	assert.Contains(t, prompt, "### Documents:")
	assert.Contains(t, prompt, "Title: globelink_model.txt\nContent: ARR reached $12m in FY24.")
	assert.Contains(t, prompt, "Title: deal_memo.txt")
	assert.Contains(t, prompt, "[Source: document name]")
	assert.True(t, strings.HasSuffix(prompt, "ANSWER:"))
}

func TestBuildAnswerPrompt_Hybrid(t *testing.T) {
	internal := []domain.EvidenceDocument{
		{Title: "globelink_model.txt", FullContent: "ARR reached $12m in FY24."},
	}
	external := &domain.ExternalEvidence{Content: "Median SaaS multiple is 7x ARR.", SourceLabel: "Perplexity AI"}

	prompt := usecase.BuildAnswerPrompt(domain.IntentHybrid, "How do we compare?", internal, external)

	assert.Contains(t, prompt, "### Internal Data:")
	assert.Contains(t, prompt, "Document: globelink_model.txt\nARR reached $12m in FY24.")
	assert.Contains(t, prompt, "### External Data:")
	assert.Contains(t, prompt, "Median SaaS multiple is 7x ARR.")
	assert.Contains(t, prompt, "[Source: document/website name]")
}

func TestBuildAnswerPrompt_HybridPlaceholders(t *testing.T) {
	prompt := usecase.BuildAnswerPrompt(domain.IntentHybrid, "How do we compare?", nil, nil)

	assert.Contains(t, prompt, "No internal data found.")
	assert.Contains(t, prompt, "No external market data found.")
}

func TestBuildAnswerPrompt_HybridIgnoresErrorEvidence(t *testing.T) {
	external := &domain.ExternalEvidence{Content: "Web search failed: timeout", SourceLabel: domain.ErrorSourceLabel}

	prompt := usecase.BuildAnswerPrompt(domain.IntentHybrid, "How do we compare?", nil, external)

	assert.Contains(t, prompt, "No external market data found.")
	assert.NotContains(t, prompt, "Web search failed")
}
