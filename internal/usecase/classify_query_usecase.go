package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bullpen-rag/internal/domain"
)

// Keyword tiers for the lexical classification pass. Matching is substring
// containment on the lowercased question; no stemming or tokenization, so
// substrings overmatch on purpose.
var (
	internalKeywords = []string{
		"globelink", "project alpha", "arr", "enterprise value", "nda", "loi",
		"debt schedule", "moic", "our deal", "our company", "our documents",
	}
	externalKeywords = []string{
		"market cap", "stock price", "tesla", "apple", "crowdstrike", "nasdaq",
		"current", "today", "public company",
	}
	comparisonKeywords = []string{
		"compare", "comparison", "benchmark", "vs", "versus", "against",
		"market average", "industry average", "public companies", "competitors",
		"market multiples", "market valuation", "industry standard", "peer group",
		"how does our", "how does globelink", "relative to", "compared to",
	}
)

const classificationPromptTemplate = `You are a query classifier for a financial private equity firm's RAG system.

Classify this question into exactly ONE category:

Question: %q

Categories:
- INTERNAL: Questions about our company's deals, projects, documents, or proprietary information
- EXTERNAL: Questions about public companies, market data, stock prices, or general knowledge
- HYBRID: Questions comparing our internal data with external market information

Examples:
- "What is CrowdStrike's market cap?" -> EXTERNAL
- "What was the ARR for GlobeLink?" -> INTERNAL
- "How does GlobeLink's ARR compare to public SaaS companies?" -> HYBRID
- "What are average revenue multiples for cybersecurity companies vs our deal?" -> HYBRID

Respond with exactly one word: INTERNAL, EXTERNAL, or HYBRID`

const classificationMaxTokens = 20

// QueryClassifier routes a question to an internal, external, or hybrid
// search intent. Classification never fails: any fallback-tier problem
// resolves to IntentExternal.
type QueryClassifier interface {
	Classify(ctx context.Context, question string) domain.Intent
}

// classifierStrategy inspects a question and either decides the intent or
// defers to the next strategy in the chain.
type classifierStrategy func(ctx context.Context, question string) (domain.Intent, bool)

type queryClassifier struct {
	llm    domain.LLMClient
	logger *slog.Logger
	chain  []classifierStrategy
}

// NewQueryClassifier builds the classification chain: hybrid, external, and
// internal lexical tiers, then the model fallback as the chain's tail.
func NewQueryClassifier(llm domain.LLMClient, logger *slog.Logger) QueryClassifier {
	c := &queryClassifier{llm: llm, logger: logger}
	c.chain = []classifierStrategy{
		c.lexicalHybrid,
		c.lexicalExternal,
		c.lexicalInternal,
		c.modelFallback,
	}
	return c
}

func (c *queryClassifier) Classify(ctx context.Context, question string) domain.Intent {
	for _, strategy := range c.chain {
		if intent, ok := strategy(ctx, question); ok {
			return intent
		}
	}
	// Unreachable while modelFallback always decides; kept as the safety bias.
	return domain.IntentExternal
}

func (c *queryClassifier) lexicalHybrid(_ context.Context, question string) (domain.Intent, bool) {
	lower := strings.ToLower(question)
	if containsAny(lower, internalKeywords) && (containsAny(lower, comparisonKeywords) || containsAny(lower, externalKeywords)) {
		c.logger.Info("query_classified",
			slog.String("intent", string(domain.IntentHybrid)),
			slog.String("tier", "lexical"))
		return domain.IntentHybrid, true
	}
	return "", false
}

func (c *queryClassifier) lexicalExternal(_ context.Context, question string) (domain.Intent, bool) {
	if containsAny(strings.ToLower(question), externalKeywords) {
		c.logger.Info("query_classified",
			slog.String("intent", string(domain.IntentExternal)),
			slog.String("tier", "lexical"))
		return domain.IntentExternal, true
	}
	return "", false
}

func (c *queryClassifier) lexicalInternal(_ context.Context, question string) (domain.Intent, bool) {
	if containsAny(strings.ToLower(question), internalKeywords) {
		c.logger.Info("query_classified",
			slog.String("intent", string(domain.IntentInternal)),
			slog.String("tier", "lexical"))
		return domain.IntentInternal, true
	}
	return "", false
}

// modelFallback asks the completion model for a single-word classification.
// It always decides; call failures and unparseable responses bias to
// external so answers stay grounded in verifiable retrieved data.
func (c *queryClassifier) modelFallback(ctx context.Context, question string) (domain.Intent, bool) {
	prompt := fmt.Sprintf(classificationPromptTemplate, question)
	response, err := c.llm.Complete(ctx,
		[]domain.Message{{Role: "user", Content: prompt}},
		domain.CompletionOptions{MaxTokens: classificationMaxTokens},
	)
	if err != nil {
		c.logger.Error("query_classification_call_failed", slog.String("error", err.Error()))
		return domain.IntentExternal, true
	}

	switch strings.ToUpper(strings.TrimSpace(response)) {
	case "INTERNAL":
		c.logClassified(domain.IntentInternal)
		return domain.IntentInternal, true
	case "EXTERNAL":
		c.logClassified(domain.IntentExternal)
		return domain.IntentExternal, true
	case "HYBRID":
		c.logClassified(domain.IntentHybrid)
		return domain.IntentHybrid, true
	default:
		c.logger.Warn("query_classification_unparseable",
			slog.String("response", strings.TrimSpace(response)))
		return domain.IntentExternal, true
	}
}

func (c *queryClassifier) logClassified(intent domain.Intent) {
	c.logger.Info("query_classified",
		slog.String("intent", string(intent)),
		slog.String("tier", "model"))
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
