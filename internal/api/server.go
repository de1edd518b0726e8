package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/catalogarr/internal/api/handlers"
	"github.com/amaumene/catalogarr/internal/api/middleware"
	"github.com/amaumene/catalogarr/internal/config"
	"github.com/amaumene/catalogarr/internal/controllers"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	db     *models.Database
	engine *controllers.Engine
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db *models.Database, engine *controllers.Engine, logger *logrus.Logger) *Server {
	s := &Server{
		db:     db,
		engine: engine,
		logger: logger,
	}

	// Actions may run a search or a whole finalize, hence the long write timeout
	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.routes(cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the router, for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// routes configures all HTTP routes
func (s *Server) routes(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(s.logger))

	r.Get("/health", handlers.NewHealthHandler(s.logger).ServeHTTP)
	r.Get("/status", handlers.NewStatusHandler(s.db, s.engine.ActiveSessions, s.logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/media/{deepLink}", handlers.NewMediaHandler(s.db, s.logger).ServeHTTP)

	records := handlers.NewRecordsHandler(s.db, s.logger)
	r.Route("/records/{id}", func(r chi.Router) {
		r.Get("/", records.Get)
		r.Post("/ratings", records.Rate)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhook/telegram", handlers.NewWebhookHandler(s.db, cfg.WebhookSecret, cfg.ChannelIDs, s.logger).ServeHTTP)

		operators := handlers.NewOperatorHandler(s.engine, cfg.IsAdmin, s.logger)
		r.Route("/operators/{id}", func(r chi.Router) {
			r.Use(middleware.BearerToken(cfg.OperatorAPIToken, s.logger))
			r.Post("/actions", operators.Act)
			r.Get("/session", operators.Session)
		})
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
