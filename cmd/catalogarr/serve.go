package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amaumene/catalogarr/internal/api"
	"github.com/amaumene/catalogarr/internal/config"
	"github.com/amaumene/catalogarr/internal/controllers"
	"github.com/amaumene/catalogarr/internal/metrics"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/amaumene/catalogarr/internal/scheduler"
	"github.com/amaumene/catalogarr/internal/services/blogger"
	"github.com/amaumene/catalogarr/internal/services/channels"
	"github.com/amaumene/catalogarr/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, channel indexer and publish retry job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger and tracing
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Catalogarr")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	if cfg.TracingEnabled {
		tp := utils.NewTracerProvider(logger)
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
		logger.Info("Tracing enabled")
	}

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Load blacklist
	blacklist, err := utils.LoadBlacklist(cfg.BlacklistFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load blacklist, continuing without it")
		blacklist = utils.NewBlacklist()
	} else {
		logger.WithField("terms", blacklist.Len()).Info("Blacklist loaded")
	}

	// 5. Initialize services
	searcher, err := channels.NewSearcher(cfg, db, blacklist, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize channel searcher: %w", err)
	}
	logger.WithField("channels", len(cfg.ChannelIDs)).Info("Channel searcher initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher, err := blogger.NewPublisher(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Blogger publisher: %w", err)
	}
	if publisher.Enabled() {
		logger.Info("Blogger publisher initialized")
	} else {
		logger.Warn("BLOGGER_BLOG_ID not set, publishing disabled")
	}

	// 6. Initialize workflow engine
	sessions := controllers.NewSessionStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	engine := controllers.NewEngine(sessions, searcher, db, publisher, logger)
	if err := metrics.RegisterActiveSessions(prometheus.DefaultRegisterer, engine.ActiveSessions); err != nil {
		return fmt.Errorf("failed to register session metric: %w", err)
	}
	logger.Info("Workflow engine initialized")

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(cfg.PublishRetrySchedule, db, publisher, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, db, engine, logger)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Catalogarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Catalogarr stopped")
	return nil
}
