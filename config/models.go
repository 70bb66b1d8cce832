package config

import "time"

// Config holds the configuration of the application
// Use config.LoadConfig to create a new instance
type Config struct {
	LLM          LLM                `mapstructure:"llm"`
	Embeddings   EmbeddingsConfig   `mapstructure:"embeddings"`
	Curator      CuratorConfig      `mapstructure:"curator"`
	CatalogStore CatalogStoreConfig `mapstructure:"catalog_store"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Auth         AuthConfig         `mapstructure:"auth"`
	OTP          OTPConfig          `mapstructure:"otp"`
}

type LLM struct {
	Service string `mapstructure:"service"`
	Model   string `mapstructure:"model"`
	// OpenAIAPIKey and AnthropicAPIKey are loaded from ENV not config file.
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	OpenAIEndpoint  string `mapstructure:"openai_endpoint"`
	OpenAIOrgID     string `mapstructure:"openai_org_id"`
}

type EmbeddingsConfig struct {
	Service string `mapstructure:"service"`
	Model   string `mapstructure:"model"`
	// Dimensions is fixed by the embedding model. Stored vectors with a
	// different dimensionality are treated as stale.
	Dimensions     int    `mapstructure:"dimensions"`
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	OpenAIEndpoint string `mapstructure:"openai_endpoint"`
	OpenAIOrgID    string `mapstructure:"openai_org_id"`
}

// CuratorConfig tunes the retrieval and generation stages.
type CuratorConfig struct {
	// CandidatePool is the number of approximate nearest neighbors scanned
	// before truncating to ResultLimit.
	CandidatePool      int     `mapstructure:"candidate_pool"`
	ResultLimit        int     `mapstructure:"result_limit"`
	MaxRecommendations int     `mapstructure:"max_recommendations"`
	Temperature        float64 `mapstructure:"temperature"`
	MaxResponseTokens  int     `mapstructure:"max_response_tokens"`
}

type CatalogStoreConfig struct {
	Type     string         `mapstructure:"type"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Memory   MemoryConfig   `mapstructure:"memory"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MemoryConfig struct {
	FixturePath string `mapstructure:"fixture_path"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	Secret   string `mapstructure:"secret"`
	Required bool   `mapstructure:"required"`
}

type OTPConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}
