package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullpen-rag/internal/infra/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_KEY", "key")
	t.Setenv("OPENAI_API_VERSION", "2024-02-01")
	t.Setenv("AZURE_OPENAI_EMBED_MODEL", "embed")
	t.Setenv("AZURE_GPT4O_DEPLOYMENT", "gpt-4o")
	t.Setenv("AZURE_SEARCH_ENDPOINT", "https://example.search.windows.net")
	t.Setenv("AZURE_SEARCH_KEY", "search-key")
	t.Setenv("AZURE_SEARCH_INDEX", "documents")
	t.Setenv("PERPLEXITY_API_KEY", "pplx-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := config.Load()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 300, cfg.AnswerMaxTokens)
	assert.Equal(t, 5, cfg.SearchTopK)
	assert.Equal(t, 30, cfg.WebSearchTimeout)
	assert.NotEmpty(t, cfg.HybridWebQueryPrefix)
	assert.Contains(t, cfg.CORSAllowOrigins, "http://localhost:3000")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9100")
	t.Setenv("SEARCH_TOP_K", "10")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg := config.Load()

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 10, cfg.SearchTopK)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORSAllowOrigins)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SEARCH_TOP_K", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 5, cfg.SearchTopK)
}

func TestValidate_AllPresent(t *testing.T) {
	setRequiredEnv(t)
	require.NoError(t, config.Load().Validate())
}

func TestValidate_ReportsEveryMissingVariable(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AZURE_OPENAI_KEY", "")
	t.Setenv("PERPLEXITY_API_KEY", "  ")

	err := config.Load().Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_OPENAI_KEY")
	assert.Contains(t, err.Error(), "PERPLEXITY_API_KEY")
}

func TestValidateIngest_RequiresBlobSettings(t *testing.T) {
	setRequiredEnv(t)

	err := config.Load().ValidateIngest()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AZURE_BLOB_CONN_STR")
	assert.Contains(t, err.Error(), "AZURE_BLOB_CONTAINER")
}

func TestValidateIngest_AllPresent(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AZURE_BLOB_CONN_STR", "AccountName=acct;AccountKey=a2V5")
	t.Setenv("AZURE_BLOB_CONTAINER", "docs")

	require.NoError(t, config.Load().ValidateIngest())
}
