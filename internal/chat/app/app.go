package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/parleyhq/parley/internal/chat/http"
	"github.com/parleyhq/parley/internal/chat/mail"
	"github.com/parleyhq/parley/internal/chat/service"
	"github.com/parleyhq/parley/internal/chat/store"
	"github.com/parleyhq/parley/internal/chat/store/drivers/sqlite"
	"github.com/parleyhq/parley/pkg/cryptox"
	"github.com/parleyhq/parley/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the chat service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	mailer mail.Mailer

	// Services
	userService         *service.UserService
	resetService        *service.ResetService
	deviceService       *service.DeviceService
	historyService      *service.HistoryService
	adminService        *service.AdminService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "chat-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("chat service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down chat service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("chat service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	if app.cfg.SMTPAddr != "" {
		app.mailer = &mail.SMTPMailer{
			Addr:     app.cfg.SMTPAddr,
			From:     app.cfg.SMTPFrom,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
		}
		app.logger.Info("smtp mailer enabled", "addr", app.cfg.SMTPAddr)
	} else {
		app.mailer = &mail.LogMailer{Logger: app.logger}
		app.logger.Info("smtp not configured, reset codes will not be delivered")
	}

	app.userService = &service.UserService{
		Store:      app.db,
		AdminEmail: app.cfg.AdminEmail,
	}
	app.resetService = &service.ResetService{
		Store:  app.db,
		Mailer: app.mailer,
		TTL:    app.cfg.ResetCodeTTL,
	}
	app.deviceService = &service.DeviceService{Store: app.db}
	app.historyService = &service.HistoryService{Store: app.db}
	app.adminService = &service.AdminService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.cfg.CookieTTL,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.UserService = app.userService
	router.ResetService = app.resetService
	router.DeviceService = app.deviceService
	router.HistoryService = app.historyService
	router.AdminService = app.adminService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
