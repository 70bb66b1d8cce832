package config

import (
	"strings"

	"github.com/rasphia/rasphia/internal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

// LoadConfig loads the config file and ENV variables into a Config struct
func LoadConfig(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("RASPHIA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	// Environment variables take precedence over config file
	loadDotEnv()

	envBindings := map[string]string{
		"llm.openai_api_key":        "RASPHIA_OPENAI_API_KEY",
		"llm.anthropic_api_key":     "RASPHIA_ANTHROPIC_API_KEY",
		"embeddings.openai_api_key": "RASPHIA_EMBEDDINGS_OPENAI_API_KEY",
		"auth.secret":               "RASPHIA_AUTH_SECRET",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("Error binding environment variable: %s", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in the curator retrieval defaults when unset.
func applyDefaults(cfg *Config) {
	if cfg.Curator.CandidatePool == 0 {
		cfg.Curator.CandidatePool = DefaultCandidatePool
	}
	if cfg.Curator.ResultLimit == 0 {
		cfg.Curator.ResultLimit = DefaultResultLimit
	}
	if cfg.Curator.MaxRecommendations == 0 {
		cfg.Curator.MaxRecommendations = DefaultMaxRecommendations
	}
	if cfg.Embeddings.Dimensions == 0 {
		cfg.Embeddings.Dimensions = DefaultEmbeddingDimensions
	}
}

const (
	DefaultCandidatePool       = 100
	DefaultResultLimit         = 8
	DefaultMaxRecommendations  = 3
	DefaultEmbeddingDimensions = 1536
)

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Warn(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level based on the config file. Defaults to INFO if not set or invalid
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	log.Info("Log level set to: ", level)
}
