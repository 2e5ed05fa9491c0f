// Package api provides the HTTP API server and handlers for the LinkStash application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/linkstashapp/linkstash-server/internal/backup"
	"github.com/linkstashapp/linkstash-server/internal/fetch"
	"github.com/linkstashapp/linkstash-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	services        *Services
	fetcher         *fetch.Fetcher
	backups         *backup.BackupService
	restore         *backup.RestoreService
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// fetcher may be nil; the metadata endpoint then returns defaults.
func NewServer(st *store.Store, services *Services, fetcher *fetch.Fetcher, backups *backup.BackupService, restore *backup.RestoreService, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	humaConfig := huma.DefaultConfig("LinkStash API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		fetcher:         fetcher,
		backups:         backups,
		restore:         restore,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: NewRateLimiter(20, time.Minute, 10),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerLinkRoutes()
	s.registerTagRoutes()
	s.registerSuggestRoutes()
	s.registerMetadataRoutes()
	s.registerUsageRoutes()
	s.registerSubscriptionRoutes()
	s.registerSearchRoutes()
	s.registerImportRoutes()
	s.registerBackupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
