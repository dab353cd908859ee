package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/auth"
	authPostgres "github.com/mechmaster/subscription-management/internal/auth/postgres"
	"github.com/mechmaster/subscription-management/internal/content"
	contentPostgres "github.com/mechmaster/subscription-management/internal/content/postgres"
	"github.com/mechmaster/subscription-management/internal/core/events"
	"github.com/mechmaster/subscription-management/internal/paymentgateway"
	"github.com/mechmaster/subscription-management/internal/subscription"
	subscriptionPostgres "github.com/mechmaster/subscription-management/internal/subscription/postgres"
	"github.com/mechmaster/subscription-management/internal/transport"
	"github.com/mechmaster/subscription-management/internal/transport/rest"
	"github.com/mechmaster/subscription-management/internal/user"
	userPostgres "github.com/mechmaster/subscription-management/internal/user/postgres"
	"github.com/mechmaster/subscription-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// GORM shares the pgx connection pool with sqlx
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventBus := events.NewEventBus(lg)
	baseHandler := transport.NewBaseHandler(lg)

	// Payment gateway client
	gatewayClient := paymentgateway.NewClient(paymentgateway.Config{
		APIURL:    config.Razorpay.APIURL,
		KeyID:     config.Razorpay.KeyID,
		KeySecret: config.Razorpay.KeySecret,
		Timeout:   config.Razorpay.Timeout,
	}, lg)

	// Auth
	tokenGenerator := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenTTL,
		config.Security.RefreshTokenTTL,
	)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGenerator, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)
	rbac := auth.NewRBACAuthorization(&auth.DefaultPermissionChecker{}, lg)

	// Users
	userRepo := userPostgres.NewUserRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	// Subscription and payments
	subscriptionRepo := subscriptionPostgres.NewSubscriptionRepository(gormDB)
	subscriptionService := subscription.NewService(gatewayClient, subscriptionRepo, config.Razorpay.KeySecret, eventBus, lg)
	subscriptionHandler := subscription.NewHandler(baseHandler, subscriptionService, lg)

	// Content
	contentRepo := contentPostgres.NewContentRepository(gormDB)
	contentService := content.NewService(contentRepo, subscriptionService, lg)
	contentHandler := content.NewHandler(baseHandler, contentService)

	// Audit trail for payment outcomes
	subscription.NewEventHandler(lg).RegisterEventHandlers(eventBus)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, authHandler, rbac, userHandler, contentHandler, subscriptionHandler, lg)

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Router: router,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
