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

	httpapi "github.com/codequesthq/gate/internal/gate/http"
	"github.com/codequesthq/gate/internal/gate/notify"
	"github.com/codequesthq/gate/internal/gate/service"
	"github.com/codequesthq/gate/internal/gate/store"
	"github.com/codequesthq/gate/internal/gate/store/drivers/sqlite"
	"github.com/codequesthq/gate/pkg/jwtx"
	"github.com/codequesthq/gate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gate service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	tokens *jwtx.HS256
	clock  func() time.Time

	// Services
	sessionService      *service.SessionService
	passcodeService     *service.PasscodeService
	gateService         *service.GateService
	userService         *service.UserService
	subscriptionService *service.SubscriptionService
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
			Service: "gate-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	tokens, err := jwtx.NewHS256([]byte(cfg.SessionSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session signer: %w", err)
	}
	app.tokens = tokens

	if err := app.initClock(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("gate service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down gate service...")

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

	app.logger.Info("gate service stopped")
	return nil
}

// initClock sets the clock the access windows are evaluated against. The
// windows are wall-clock hours, so deployments not running in the audience's
// timezone set GATE_TIMEZONE.
func (app *Application) initClock() error {
	if app.cfg.Timezone == "" {
		app.clock = time.Now
		return nil
	}

	loc, err := time.LoadLocation(app.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", app.cfg.Timezone, err)
	}
	app.clock = func() time.Time { return time.Now().In(loc) }
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
func (app *Application) initServices() error {
	app.sessionService = &service.SessionService{
		Store:  app.db,
		Tokens: app.tokens,
		Issuer: app.cfg.Issuer,
		Now:    app.clock,
	}

	app.passcodeService = &service.PasscodeService{
		Store: app.db,
		TTL:   service.PasscodeTTL,
		Now:   app.clock,
	}
	app.subscriptionService = &service.SubscriptionService{
		Store: app.db,
		Now:   app.clock,
	}

	if app.cfg.EmailEnabled() {
		mailer, err := notify.NewEmailNotifier(notify.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.SMTPFrom,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize email notifier: %w", err)
		}
		app.passcodeService.Email = mailer
		app.subscriptionService.Mailer = mailer
	} else {
		app.logger.Warn("email delivery disabled, no SMTP host configured")
	}

	if app.cfg.SMSEnabled() {
		app.passcodeService.SMS = notify.NewSMSNotifier(notify.TwilioConfig{
			AccountSID: app.cfg.TwilioAccountSID,
			AuthToken:  app.cfg.TwilioAuthToken,
			FromNumber: app.cfg.TwilioFromNumber,
		})
	} else {
		app.logger.Warn("SMS delivery disabled, Twilio not configured")
	}

	app.gateService = &service.GateService{
		Sessions:  app.sessionService,
		Passcodes: app.passcodeService,
		Now:       app.clock,
	}
	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokens,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.GateService = app.gateService
	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.PasscodeService = app.passcodeService
	router.SubscriptionService = app.subscriptionService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
