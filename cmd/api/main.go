package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/hubble-app/identity-api/internal/config"
	"github.com/hubble-app/identity-api/internal/database"
	"github.com/hubble-app/identity-api/internal/email"
	httpServer "github.com/hubble-app/identity-api/internal/http"
	"github.com/hubble-app/identity-api/internal/identity"
	"github.com/hubble-app/identity-api/internal/logging"
	"github.com/hubble-app/identity-api/internal/publicid"
	"github.com/hubble-app/identity-api/internal/registration"
	"github.com/hubble-app/identity-api/internal/session"
	"github.com/hubble-app/identity-api/internal/user"
	"github.com/hubble-app/identity-api/internal/version"
)

// @title           Hubble Identity API
// @version         1.0
// @description     Two-phase registration and session service for the Hubble app.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	credentialRepo := identity.NewCredentialRepository(db)
	sessionStore := identity.NewRedisSessionStore(redisClient)
	stagingStore := registration.NewRedisStagingStore(redisClient)

	// Initialize PASETO token issuer
	tokenIssuer, err := identity.NewTokenIssuer(cfg.Provider.SessionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
	)

	// Initialize identity provider
	provider := identity.NewLocalProvider(
		credentialRepo,
		sessionStore,
		tokenIssuer,
		emailService,
		logger,
		cfg.Provider.SessionTTL,
		cfg.Provider.VerificationTTL,
	)

	// Initialize registration coordinator
	allocator := publicid.NewAllocator(userRepo)
	coordinator := registration.NewCoordinator(
		provider,
		userRepo,
		stagingStore,
		allocator,
		logger,
	)

	// Initialize session gate
	gate := session.NewGate(provider, userRepo, logger)

	// Initialize version checker
	versionSource := version.NewRedisSource(redisClient, cfg.Version.Key, cfg.Version.Channel)
	versionChecker := version.NewChecker(cfg.Version.Client, versionSource, logger)
	versionChecker.OnMismatch(func(current, required string) {
		logger.Warn("client version out of date",
			"current", current,
			"required", required,
		)
	})
	if err := versionChecker.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start version checker: %w", err)
	}
	defer versionChecker.Stop()

	// Initialize HTTP handlers and router
	handler := httpServer.NewHandler(coordinator, gate, provider, userRepo, versionChecker, logger)
	router := httpServer.NewRouter(cfg, handler, provider, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
