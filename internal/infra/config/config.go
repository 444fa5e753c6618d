package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every setting the server and the ingest CLI read from the
// environment. A .env file in the working directory is honored when present.
type Config struct {
	Env  string
	Port string

	OpenAIEndpoint   string
	OpenAIKey        string
	OpenAIAPIVersion string
	EmbedDeployment  string
	ChatDeployment   string

	SearchEndpoint string
	SearchKey      string
	SearchIndex    string

	PerplexityAPIKey string

	BlobConnStr   string
	BlobContainer string

	HybridWebQueryPrefix string
	AnswerMaxTokens      int
	SearchTopK           int
	WebSearchTimeout     int
	EmbedCacheSize       int
	EmbedCacheTTL        int
	CORSAllowOrigins     []string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8000"),

		OpenAIEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
		OpenAIKey:        getEnv("AZURE_OPENAI_KEY", ""),
		OpenAIAPIVersion: getEnv("OPENAI_API_VERSION", ""),
		EmbedDeployment:  getEnv("AZURE_OPENAI_EMBED_MODEL", ""),
		ChatDeployment:   getEnv("AZURE_GPT4O_DEPLOYMENT", ""),

		SearchEndpoint: getEnv("AZURE_SEARCH_ENDPOINT", ""),
		SearchKey:      getEnv("AZURE_SEARCH_KEY", ""),
		SearchIndex:    getEnv("AZURE_SEARCH_INDEX", ""),

		PerplexityAPIKey: getEnv("PERPLEXITY_API_KEY", ""),

		BlobConnStr:   getEnv("AZURE_BLOB_CONN_STR", ""),
		BlobContainer: getEnv("AZURE_BLOB_CONTAINER", ""),

		HybridWebQueryPrefix: getEnv("HYBRID_WEB_QUERY_PREFIX", "cybersecurity SaaS companies ARR revenue multiples market data"),
		AnswerMaxTokens:      getEnvInt("ANSWER_MAX_TOKENS", 300),
		SearchTopK:           getEnvInt("SEARCH_TOP_K", 5),
		WebSearchTimeout:     getEnvInt("WEB_SEARCH_TIMEOUT_SECONDS", 30),
		EmbedCacheSize:       getEnvInt("EMBED_CACHE_SIZE", 256),
		EmbedCacheTTL:        getEnvInt("EMBED_CACHE_TTL_MINUTES", 10),
		CORSAllowOrigins: getEnvList("CORS_ALLOW_ORIGINS",
			"http://localhost:3000,http://127.0.0.1:3000,http://localhost:3001,http://127.0.0.1:3001"),
	}
}

// Validate reports every missing required setting at once so operators can fix
// the environment in one pass. The process must not serve traffic on error.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"AZURE_OPENAI_ENDPOINT", c.OpenAIEndpoint},
		{"AZURE_OPENAI_KEY", c.OpenAIKey},
		{"OPENAI_API_VERSION", c.OpenAIAPIVersion},
		{"AZURE_OPENAI_EMBED_MODEL", c.EmbedDeployment},
		{"AZURE_GPT4O_DEPLOYMENT", c.ChatDeployment},
		{"AZURE_SEARCH_ENDPOINT", c.SearchEndpoint},
		{"AZURE_SEARCH_KEY", c.SearchKey},
		{"AZURE_SEARCH_INDEX", c.SearchIndex},
		{"PERPLEXITY_API_KEY", c.PerplexityAPIKey},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateIngest checks the additional settings the ingest CLI needs.
func (c *Config) ValidateIngest() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var missing []string
	if strings.TrimSpace(c.BlobConnStr) == "" {
		missing = append(missing, "AZURE_BLOB_CONN_STR")
	}
	if strings.TrimSpace(c.BlobContainer) == "" {
		missing = append(missing, "AZURE_BLOB_CONTAINER")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	var values []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
