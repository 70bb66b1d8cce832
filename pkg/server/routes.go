package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/rasphia/rasphia/pkg/auth"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rasphia/rasphia/pkg/models"
)

const ReadHeaderTimeout = 5 * time.Second

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", appState.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

// @title						Rasphia REST API
// @version					0.x
// @BasePath					/api/v1
// @schemes					http https
// @securityDefinitions.apikey	Bearer
// @in							header
// @name						Authorization
// @description				Type "Bearer" followed by a space and JWT token.
func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))

	otpStore := auth.NewOTPStore(appState.Config.OTP.TTL)

	router.Route("/api/v1", func(r chi.Router) {
		// OTP routes stay open: they are how a caller obtains a token.
		r.Route("/auth/otp", func(r chi.Router) {
			r.Post("/send", SendOTPHandler(appState, otpStore))
			r.Post("/verify", VerifyOTPHandler(appState, otpStore))
		})

		r.Group(func(r chi.Router) {
			if appState.Config.Auth.Required {
				log.Info("JWT authentication required")
				r.Use(auth.JWTVerifier(appState.Config))
				r.Use(jwtauth.Authenticator)
			}

			// Curation routes
			r.Route("/curate", func(r chi.Router) {
				r.Post("/", CurateHandler(appState))
				r.Post("/stream", CurateStreamHandler(appState))
			})

			// Catalog routes
			r.Route("/products", func(r chi.Router) {
				r.Get("/", ListProductsHandler(appState))
				r.Post("/", CreateProductHandler(appState))
				r.Route("/{productUUID}", func(r chi.Router) {
					r.Get("/", GetProductHandler(appState))
					r.Patch("/", UpdateProductHandler(appState))
					r.Delete("/", DeleteProductHandler(appState))
					r.Post("/reviews", AddReviewHandler(appState))
					r.Post("/embedding", RecomputeEmbeddingHandler(appState))
				})
			})
		})
	})

	return router
}
