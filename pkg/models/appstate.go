package models

import (
	"github.com/rasphia/rasphia/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	LLMClient        LLMClient
	EmbeddingsClient EmbeddingsClient
	CatalogStore     CatalogStore
	TaskRouter       TaskRouter
	TaskPublisher    TaskPublisher
	Config           *config.Config
}
