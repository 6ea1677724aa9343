package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Egham-7/headshot-studio/internal/api"
	"github.com/Egham-7/headshot-studio/internal/catalog"
	"github.com/Egham-7/headshot-studio/internal/config"
	"github.com/Egham-7/headshot-studio/internal/database"
	"github.com/Egham-7/headshot-studio/internal/metrics"
	"github.com/Egham-7/headshot-studio/internal/models"
	"github.com/Egham-7/headshot-studio/internal/services/auth"
	"github.com/Egham-7/headshot-studio/internal/services/billing"
	"github.com/Egham-7/headshot-studio/internal/services/credits"
	"github.com/Egham-7/headshot-studio/internal/services/generate"
	"github.com/Egham-7/headshot-studio/internal/services/guard"
	"github.com/Egham-7/headshot-studio/internal/services/middleware"
	"github.com/Egham-7/headshot-studio/internal/services/orchestrator"
	"github.com/Egham-7/headshot-studio/internal/services/scheduler"
	"github.com/Egham-7/headshot-studio/internal/services/storage"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

const (
	generatePath    = "/api/generate"
	maxBodySize     = 20 * 1024 * 1024
	shutdownTimeout = 30 * time.Second
)

// App is a Headshot Studio server instance.
type App struct {
	config *config.Config
	app    *fiber.App
	redis  *redis.Client
	db     *database.DB
	pruner *scheduler.EventPruneScheduler
}

type appInfrastructure struct {
	redis *redis.Client
	db    *database.DB
}

type appServices struct {
	plans        *catalog.Plans
	verifier     auth.Verifier
	store        credits.Store
	history      api.HistoryReader
	orchestrator *orchestrator.Service
	billing      *billing.Service
	pruner       *scheduler.EventPruneScheduler
}

// NewApp creates a new App with the given configuration.
// The cfg parameter is required and must not be nil.
func NewApp(cfg *config.Config) *App {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() to create config")
	}

	return &App{
		config: cfg,
	}
}

// Setup validates the configuration, connects infrastructure and registers
// every route. Run calls it; tests call it directly.
func (a *App) Setup() error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(a.config)

	a.app = createFiberApp(a.config)

	// === Infrastructure Setup ===
	infra, err := initializeInfrastructure(a.config)
	if err != nil {
		return err
	}
	a.redis = infra.redis
	a.db = infra.db

	// === Services Initialization ===
	services, err := initializeServices(a.config, infra)
	if err != nil {
		a.Close()
		return err
	}
	a.pruner = services.pruner

	// === Middleware Setup ===
	setupMiddleware(a.app, a.config)

	// === Routes Setup ===
	if err := setupRoutes(a.app, a.config, infra, services); err != nil {
		a.Close()
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	a.app.Get("/", welcomeHandler())

	return nil
}

// Fiber exposes the underlying fiber app once Setup has run
func (a *App) Fiber() *fiber.App {
	return a.app
}

// Close releases redis and database connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			fiberlog.Errorf("Failed to close Redis client: %v", err)
		}
		a.redis = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			fiberlog.Errorf("Failed to close database connection: %v", err)
		}
		a.db = nil
	}
}

// Run starts the server and blocks until shutdown.
func (a *App) Run() error {
	if err := a.Setup(); err != nil {
		return err
	}
	defer a.Close()

	if a.pruner != nil {
		go a.pruner.Start(context.Background())
		defer a.pruner.Stop()
	}

	listenAddr := ":" + a.config.Server.Port

	fmt.Printf("Headshot Studio starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", a.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := a.app.Listen(listenAddr); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		fiberlog.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	}

	fiberlog.Info("Server shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownErrChan := make(chan error, 1)
	go func() {
		shutdownErrChan <- a.app.ShutdownWithTimeout(shutdownTimeout)
	}()

	select {
	case err := <-shutdownErrChan:
		if err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fiberlog.Info("Server shutdown completed successfully")
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timeout exceeded")
	}

	return nil
}

func createFiberApp(cfg *config.Config) *fiber.App {
	isProd := cfg.IsProduction()

	// A generation request may legitimately run for the full model timeout
	writeTimeout := max(2*time.Minute, cfg.GenerationTimeout()+30*time.Second)

	return fiber.New(fiber.Config{
		AppName:           "Headshot Studio v1.0",
		EnablePrintRoutes: !isProd,
		BodyLimit:         maxBodySize,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       5 * time.Minute,
		ReadBufferSize:    8192,
		WriteBufferSize:   8192,
		Prefork:           false,
		CaseSensitive:     true,
		StrictRouting:     false,
		Network:           "tcp",
		ServerHeader:      "HeadshotStudio",
	})
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	isProd := cfg.IsProduction()

	// Recover middleware (must be first)
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	if cfg.Metrics.Enabled {
		app.Use(metrics.Middleware())
	}

	app.Use(limiter.New(limiter.Config{
		Max:               cfg.Server.RateLimit.Max,
		Expiration:        time.Duration(cfg.Server.RateLimit.ExpirationSeconds) * time.Second,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please slow down.",
			})
		},
	}))

	// Request timeout; generation gets the model timeout plus headroom
	requestTimeout := cfg.RequestTimeout()
	generationTimeout := cfg.GenerationTimeout() + 10*time.Second
	app.Use(func(c *fiber.Ctx) error {
		timeout := requestTimeout
		if c.Path() == generatePath {
			timeout = generationTimeout
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		return c.Next()
	})

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	allowedHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization", "User-Agent",
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowHeaders:     strings.Join(allowedHeaders, ", "),
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: !strings.Contains(cfg.Server.AllowedOrigins, "*"),
		MaxAge:           86400,
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	// Profiler (dev only)
	if !isProd {
		app.Use(pprof.New())
	}
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	case "panic":
		fiberlog.SetLevel(fiberlog.LevelPanic)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}

	fiberlog.Infof("Log level set to: %s", logLevel)
}

func createRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		fiberlog.Info("Redis not configured - in-flight guard is process-local")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.MaxRetries = 3

	fiberlog.Debugf("Redis client configuration: PoolSize=%d, MinIdle=%d, MaxRetries=%d",
		opt.PoolSize, opt.MinIdleConns, opt.MaxRetries)

	return testRedisConnectionWithRetry(redis.NewClient(opt))
}

func testRedisConnectionWithRetry(client *redis.Client) (*redis.Client, error) {
	const maxAttempts = 3
	const baseDelay = 1 * time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()

		if err == nil {
			fiberlog.Infof("Redis connection established successfully (attempt %d/%d)", attempt, maxAttempts)
			return client, nil
		}

		fiberlog.Warnf("Redis connection failed (attempt %d/%d): %v", attempt, maxAttempts, err)

		if attempt < maxAttempts {
			delay := time.Duration(attempt) * baseDelay
			fiberlog.Infof("Retrying Redis connection in %v...", delay)
			time.Sleep(delay)
		}
	}

	if err := client.Close(); err != nil {
		fiberlog.Errorf("Failed to close Redis client after connection failures: %v", err)
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", maxAttempts)
}

func initializeInfrastructure(cfg *config.Config) (*appInfrastructure, error) {
	infra := &appInfrastructure{}

	redisClient, err := createRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}
	infra.redis = redisClient

	if cfg.Database != nil {
		db, err := database.New(*cfg.Database, cfg.GetNormalizedLogLevel())
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, fmt.Errorf("failed to create database connection: %w", err)
		}
		infra.db = db

		fiberlog.Infof("Database (%s) initialized successfully", db.DriverName())

		if err := credits.AutoMigrate(db.DB); err != nil {
			_ = db.Close()
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		fiberlog.Info("Database migrations completed successfully")
	} else {
		fiberlog.Info("Database not configured")
	}

	return infra, nil
}

func initializeServices(cfg *config.Config, infra *appInfrastructure) (*appServices, error) {
	plans, err := catalog.NewPlans(cfg.Billing.Plans)
	if err != nil {
		return nil, fmt.Errorf("invalid plan table: %w", err)
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		return nil, err
	}

	services := &appServices{
		plans:    plans,
		verifier: verifier,
	}

	switch cfg.Credits.Store {
	case models.CreditStoreDatabase:
		store := credits.NewDatabaseStore(infra.db.DB)
		services.store = store
		services.history = store
	case models.CreditStoreClerk:
		fiberlog.Warn("Credit balances live in Clerk metadata; updates are only serialised within this process")
		services.store = credits.NewClerkStore(credits.ClerkMetadataClient{})
	default:
		return nil, fmt.Errorf("unsupported credit store: %s", cfg.Credits.Store)
	}

	var ledger credits.EventLedger
	switch {
	case infra.db != nil:
		dbLedger := credits.NewDatabaseLedger(infra.db.DB)
		ledger = dbLedger
		services.pruner = scheduler.NewEventPruneScheduler(dbLedger,
			time.Duration(cfg.Credits.EventRetentionHours)*time.Hour, time.Hour)
	case infra.redis != nil:
		ledger = credits.NewRedisLedger(infra.redis, cfg.Redis.KeyPrefix, time.Duration(cfg.Redis.EventTTLHours)*time.Hour)
	default:
		fiberlog.Warn("No database or Redis configured - processed webhook events are only remembered in memory")
		ledger = credits.NewMemoryLedger()
	}

	var generationGuard guard.Guard = guard.NewLocalGuard()
	if infra.redis != nil {
		generationGuard = guard.NewRedisGuard(infra.redis, cfg.Redis.KeyPrefix, time.Duration(cfg.Redis.InFlightTTLMs)*time.Millisecond)
	}

	var images storage.ImageStore
	if cfg.Storage != nil {
		s3Store, err := storage.NewS3Store(*cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to configure image storage: %w", err)
		}
		images = s3Store
	}

	generator, err := generate.New(cfg.Generation)
	if err != nil {
		return nil, err
	}

	services.orchestrator = orchestrator.NewService(orchestrator.Config{
		Provider:          string(cfg.Generation.Provider),
		InitialCredits:    cfg.Credits.InitialCredits,
		GenerationTimeout: cfg.GenerationTimeout(),
	}, generator, services.store, generationGuard, images)

	gateway, err := billing.NewStripeGateway(cfg.Billing.SecretKey, nil)
	if err != nil {
		return nil, err
	}
	services.billing = billing.NewService(billing.Config{
		WebhookSecret: cfg.Billing.WebhookSecret,
		AppURL:        cfg.Server.AppURL,
	}, gateway, plans, services.store, ledger)

	return services, nil
}

func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.Auth.Provider {
	case models.AuthProviderClerk:
		return auth.NewClerkVerifier(cfg.Auth.ClerkConfig.SecretKey), nil
	case models.AuthProviderJWT:
		return auth.NewSharedSecretVerifier(cfg.Auth.JWTConfig.Secret, cfg.Auth.JWTConfig.Issuer)
	default:
		return nil, fmt.Errorf("unsupported auth provider: %s", cfg.Auth.Provider)
	}
}

func setupRoutes(app *fiber.App, cfg *config.Config, infra *appInfrastructure, services *appServices) error {
	authMiddleware := middleware.NewAuthMiddleware(services.verifier, nil)
	requireAuth := authMiddleware.RequireAuth()

	healthHandler := api.NewHealthHandler(infra.db, infra.redis)
	configHandler := api.NewConfigHandler(cfg)
	catalogHandler := api.NewCatalogHandler(services.plans)
	creditsHandler := api.NewCreditsHandler(services.orchestrator, services.history)
	generateHandler := api.NewGenerateHandler(services.orchestrator)
	checkoutHandler := api.NewCheckoutHandler(services.billing, services.plans)
	stripeHandler := api.NewStripeWebhookHandler(services.billing)

	// Health check endpoint (always enabled)
	app.Get("/health", healthHandler.HealthCheck)

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, metrics.Handler())
	}

	apiGroup := app.Group("/api")
	apiGroup.All("/config", api.AllowMethods(fiber.MethodGet), configHandler.GetConfig)
	apiGroup.Get("/catalog", catalogHandler.GetCatalog)
	apiGroup.Get("/credits", requireAuth, creditsHandler.GetCredits)
	apiGroup.Get("/credits/history", requireAuth, creditsHandler.GetHistory)
	apiGroup.All("/generate", api.AllowMethods(fiber.MethodPost), requireAuth, generateHandler.Generate)
	apiGroup.All("/create-checkout-session", api.AllowMethods(fiber.MethodPost), requireAuth, checkoutHandler.CreateCheckoutSession)
	apiGroup.All("/stripe-webhook", api.AllowMethods(fiber.MethodPost), stripeHandler.HandleWebhook)

	if cfg.Auth.ClerkConfig != nil && cfg.Auth.ClerkConfig.WebhookSecret != "" {
		clerkHandler, err := api.NewClerkWebhookHandler(cfg.Auth.ClerkConfig.WebhookSecret, services.orchestrator)
		if err != nil {
			return fmt.Errorf("failed to initialize Clerk webhook verifier: %w", err)
		}
		apiGroup.All("/clerk-webhook", api.AllowMethods(fiber.MethodPost), clerkHandler.HandleWebhook)
	}

	return nil
}

func welcomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":    "Welcome to Headshot Studio!",
			"version":    "1.0.0",
			"go_version": runtime.Version(),
			"status":     "running",
			"endpoints": fiber.Map{
				"config":   "/api/config",
				"catalog":  "/api/catalog",
				"credits":  "/api/credits",
				"generate": "/api/generate",
				"checkout": "/api/create-checkout-session",
				"health":   "/health",
			},
		})
	}
}
