package testutils

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/rasphia/rasphia/config"
)

const charset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTestConfig returns a config suitable for package tests. It does not read
// config.yaml or the environment.
func NewTestConfig() *config.Config {
	return &config.Config{
		LLM: config.LLM{
			Service:      "openai",
			Model:        "gpt-3.5-turbo",
			OpenAIAPIKey: "test-key",
		},
		Embeddings: config.EmbeddingsConfig{
			Service:      "openai",
			Model:        "text-embedding-3-small",
			Dimensions:   config.DefaultEmbeddingDimensions,
			OpenAIAPIKey: "test-key",
		},
		Curator: config.CuratorConfig{
			CandidatePool:      config.DefaultCandidatePool,
			ResultLimit:        config.DefaultResultLimit,
			MaxRecommendations: config.DefaultMaxRecommendations,
		},
		CatalogStore: config.CatalogStoreConfig{
			Type: "memory",
		},
		Log: config.LogConfig{Level: "debug"},
	}
}

// GenerateRandomString returns a random alphanumeric string of the given
// length, for test resource names.
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random string: %w", err)
	}
	for i, b := range bytes {
		bytes[i] = charset[int(b)%len(charset)]
	}
	return string(bytes), nil
}

// FindProjectRoot returns the absolute path to the project root directory.
func FindProjectRoot() (string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("could not get current file path")
	}

	dir := filepath.Dir(currentFilePath)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		// If we've reached the top-level directory, the project root is not found.
		if dir == filepath.Dir(dir) {
			return "", fmt.Errorf("project root not found")
		}

		dir = filepath.Dir(dir)
	}
}

func SetUpDBLogging(db *bun.DB, log logrus.FieldLogger) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.InfoLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}
