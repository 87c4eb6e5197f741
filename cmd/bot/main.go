package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"relaybot/internal/config"
	"relaybot/internal/handler"
	"relaybot/internal/login"
	"relaybot/internal/middleware"
	"relaybot/internal/repository/postgres"
	"relaybot/internal/rules"
	"relaybot/internal/session"
	"relaybot/internal/telegram"
)

// shutdownTimeout bounds how long we wait for live sessions to disconnect
const shutdownTimeout = 30 * time.Second

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Relay Bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully")

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Database migrations completed")

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	ruleRepo := postgres.NewRuleRepo(db)

	// Credential store and network dialer
	sessionDir, err := telegram.NewSessionDir(cfg.SessionDir)
	if err != nil {
		logger.Fatal("Failed to prepare session directory", zap.Error(err))
	}
	dialer := telegram.NewDialer(cfg.APIID, cfg.APIHash, sessionDir, logger)

	// Rule store and setup wizard
	store := rules.NewStore(ruleRepo, logger)
	if err := store.Load(); err != nil {
		logger.Fatal("Failed to load forwarding rules", zap.Error(err))
	}
	wizard := rules.NewWizard(store, cfg.SetupTimeout, logger)

	// Session registry and login manager
	registry := session.NewRegistry(logger)
	loginMgr := login.NewManager(dialer, registry, store, cfg.LoginTimeout, logger)

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	// Initialize handler
	bot.Use(middleware.EnsureUser(userRepo, logger))
	h := handler.NewHandler(bot, loginMgr, wizard, store, registry, userRepo, sessionDir, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Restore persisted sessions before taking traffic. A failed artifact
	// never blocks the others, and a failed scan never blocks startup.
	restorer := session.NewRestorer(sessionDir, dialer, registry, store, logger)
	restored, err := restorer.Restore(ctx)
	if err != nil {
		logger.Error("Session restoration failed", zap.Error(err))
	}
	logger.Info("Session restoration finished", zap.Int("restored", restored))

	// Keep-alive endpoint for the hosting platform
	go runHealthServer(cfg.HealthAddr, logger)

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	bot.Stop()
	cancel()

	// Disconnect every live session, best-effort within the deadline
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	registry.CloseAll(closeCtx)

	logger.Info("Bot stopped gracefully")
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runHealthServer answers liveness probes so the hosting platform keeps the
// process awake.
func runHealthServer(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "I am awake!")
	})

	logger.Info("Health endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Health endpoint stopped", zap.Error(err))
	}
}
