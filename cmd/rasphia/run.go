package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/rasphia/rasphia/config"
	"github.com/rasphia/rasphia/pkg/auth"
	"github.com/rasphia/rasphia/pkg/llms"
	"github.com/rasphia/rasphia/pkg/models"
	"github.com/rasphia/rasphia/pkg/server"
	"github.com/rasphia/rasphia/pkg/store/memstore"
	"github.com/rasphia/rasphia/pkg/store/postgres"
	"github.com/rasphia/rasphia/pkg/tasks"
)

const (
	ErrCatalogStoreTypeNotSet = "catalog_store.type must be set"
	ErrPostgresDSNNotSet      = "catalog_store.postgres.dsn must be set"
	CatalogStoreTypePostgres  = "postgres"
	CatalogStoreTypeMemory    = "memory"
)

// run is the entrypoint for the rasphia server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring Rasphia: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting rasphia server version %s", config.VersionString)

	config.SetLogLevel(cfg)
	appState := NewAppState(cfg)

	srv := server.Create(appState)

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// NewAppState creates an AppState struct from the config file / ENV, initializes the
// catalog store, the provider clients, and the task queue.
func NewAppState(cfg *config.Config) *models.AppState {
	ctx := context.Background()

	llmClient, err := llms.NewLLMClient(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	embeddingsClient, err := llms.NewEmbeddingsClient(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	appState := &models.AppState{
		LLMClient:        llmClient,
		EmbeddingsClient: embeddingsClient,
		Config:           cfg,
	}

	initializeCatalogStore(appState)
	initializeTasks(ctx, appState)
	setupSignalHandler(appState)

	return appState
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if generateKey {
		fmt.Println(auth.GenerateJWT(cfg))
		os.Exit(0)
	}
	if dumpConfig {
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(b))
		os.Exit(0)
	}
}

// initializeCatalogStore initializes the catalog store based on the config file / ENV
func initializeCatalogStore(appState *models.AppState) {
	cfg := appState.Config
	if cfg.CatalogStore.Type == "" {
		log.Fatal(ErrCatalogStoreTypeNotSet)
	}

	switch cfg.CatalogStore.Type {
	case CatalogStoreTypePostgres:
		if cfg.CatalogStore.Postgres.DSN == "" {
			log.Fatal(ErrPostgresDSNNotSet)
		}
		db, err := postgres.NewPostgresConn(cfg.CatalogStore.Postgres.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		if cfg.Log.Level == "debug" {
			pgDebugLogging(db)
		}
		catalogStore, err := postgres.NewPostgresCatalogStore(appState, db)
		if err != nil {
			log.Fatal(err)
		}
		appState.CatalogStore = catalogStore
	case CatalogStoreTypeMemory:
		catalogStore := memstore.NewMemoryCatalogStore(cfg.Embeddings.Dimensions)
		if cfg.CatalogStore.Memory.FixturePath != "" {
			err := catalogStore.LoadFixtures(context.Background(), cfg.CatalogStore.Memory.FixturePath)
			if err != nil {
				log.Fatalf("Failed to load catalog fixtures: %v", err)
			}
		}
		appState.CatalogStore = catalogStore
	default:
		log.Fatal(
			fmt.Sprintf(
				"catalog_store.type (%s) is not supported",
				cfg.CatalogStore.Type,
			),
		)
	}

	log.Info("Using catalog store: ", cfg.CatalogStore.Type)
}

// initializeTasks starts the task router and wires the publisher used for
// out-of-band embedding recomputes.
func initializeTasks(ctx context.Context, appState *models.AppState) {
	pubsub := tasks.NewGoChannelPubSub()

	router, err := tasks.RunTaskRouter(ctx, appState, pubsub)
	if err != nil {
		log.Fatalf("Failed to run task router: %v", err)
	}
	appState.TaskRouter = router
	appState.TaskPublisher = tasks.NewTaskPublisher(pubsub)
}

func pgDebugLogging(db *bun.DB) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

// setupSignalHandler sets up a signal handler to close connections on termination
func setupSignalHandler(appState *models.AppState) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		if appState.TaskRouter != nil {
			if err := appState.TaskRouter.Close(); err != nil {
				log.Errorf("Error closing task router: %v", err)
			}
		}
		if appState.CatalogStore != nil {
			if err := appState.CatalogStore.Close(); err != nil {
				log.Errorf("Error closing CatalogStore connection: %v", err)
			}
		}
		os.Exit(0)
	}()
}
