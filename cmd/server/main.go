package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/travellistings/internal/domain"
	"github.com/aryan0dhankhar/travellistings/internal/featureflags"
	"github.com/aryan0dhankhar/travellistings/internal/handler"
	"github.com/aryan0dhankhar/travellistings/internal/infrastructure/events"
	"github.com/aryan0dhankhar/travellistings/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/travellistings/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/travellistings/internal/observability/tracing"
	"github.com/aryan0dhankhar/travellistings/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/travellistings/internal/reliability/retry"
	"github.com/aryan0dhankhar/travellistings/internal/repository"
	"github.com/aryan0dhankhar/travellistings/internal/security"
	"github.com/aryan0dhankhar/travellistings/internal/security/audit"
	"github.com/aryan0dhankhar/travellistings/internal/security/auth"
	"github.com/aryan0dhankhar/travellistings/internal/security/ratelimit"
	"github.com/aryan0dhankhar/travellistings/internal/service"
	"github.com/aryan0dhankhar/travellistings/internal/worker"
	"github.com/aryan0dhankhar/travellistings/pkg/cache"
	"github.com/aryan0dhankhar/travellistings/pkg/config"
	"github.com/aryan0dhankhar/travellistings/pkg/database"
)

const serviceName = "travellistings"

// stores groups the repositories the services run on
type stores struct {
	users    domain.UserRepository
	listings domain.ListingRepository
	bookings domain.BookingRepository
	reviews  domain.ReviewRepository
	ping     handler.Pinger
}

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	logCfg := logger.Config{Environment: cfg.Environment, Level: cfg.LogLevel}
	if cfg.FluentBitEnabled {
		logCfg.Fluent = &logger.FluentConfig{
			Host:      cfg.FluentBitHost,
			Port:      cfg.FluentBitPort,
			TagPrefix: cfg.FluentBitTagPrefix,
		}
	}
	log, logCloser, err := logger.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log.Info("starting travellistings server",
		slog.String("environment", cfg.Environment),
		slog.String("store", cfg.StoreDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []io.Closer
	fail := func(msg string, err error) {
		log.Error(msg, slog.String("error", err.Error()))
		closeAll(log, closers)
		os.Exit(1)
	}

	// 3. Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		fail("failed to initialize tracing", err)
	}

	// 4. Initialize the entity store
	st, dbCloser, err := openStore(ctx, cfg, log)
	if err != nil {
		fail("failed to open store", err)
	}
	if dbCloser != nil {
		closers = append(closers, dbCloser)
	}
	checks := map[string]handler.Pinger{"store": st.ping}

	// 5. Initialize Redis (optional): shared rating cache and listing locks
	var (
		summaries service.SummaryCache
		locker    service.Locker
	)
	ratingTTL := time.Duration(cfg.RatingCacheTTLSeconds) * time.Second
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			fail("failed to connect to Redis", err)
		}
		closers = append(closers, redisClient)
		checks["redis"] = redisClient
		summaries = repository.NewRedisRatingCache(redisClient, ratingTTL, log)
		locker = repository.NewRedisLocker(redisClient, 10*time.Second, log)
	} else {
		local := cache.New[domain.RatingSummary](int64(cfg.RatingCacheSize))
		defer local.Close()
		summaries = service.NewLocalSummaryCache(local, ratingTTL)
		locker = service.NewKeyedMutex()
		log.Info("redis not configured: using in-process rating cache and listing locks")
	}

	// 6. Initialize the event publisher
	var publisher service.EventPublisher = events.NewLogPublisher(log)
	if cfg.AMQPURL != "" && featureflags.EnabledOr(featureflags.DomainEvents, true) {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			fail("failed to connect to message broker", err)
		}
		closers = append(closers, amqpPublisher)
		checks["broker"] = amqpPublisher
		publisher = amqpPublisher
	}

	// 7. Initialize security components
	secret := cfg.JWTSecret
	if secret == "" {
		secret = generateDevSecret()
		log.Warn("JWT_SECRET not set: using an ephemeral secret, tokens will not survive a restart")
	}
	tokenManager := auth.NewTokenManager(secret, serviceName)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)
	policy := security.NewPolicy()

	// 8. Initialize services
	ratings := service.NewRatingAggregator(st.reviews, summaries, log)
	authService := service.NewAuthService(st.users, st.reviews, ratings, tokenManager, time.Duration(cfg.JWTTTLMinutes)*time.Minute, log)
	listingService := service.NewListingService(st.listings, st.reviews, ratings, policy, auditLogger, log)
	bookingService := service.NewBookingService(st.listings, st.bookings, policy, locker, publisher, auditLogger, log)
	reviewService := service.NewReviewService(st.reviews, st.listings, ratings, policy, publisher, auditLogger, log)

	// 9. Setup HTTP routes
	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService, log),
		Listings:       handler.NewListingHandler(listingService, bookingService, log),
		Bookings:       handler.NewBookingHandler(bookingService, log),
		Reviews:        handler.NewReviewHandler(reviewService, log),
		Health:         handler.NewHealthHandler(checks, log),
		Tokens:         tokenManager,
		Limiter:        rateLimiter,
		Audit:          auditLogger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log,
	})

	// 10. Start completion worker in background
	if featureflags.EnabledOr(featureflags.CompletionWorker, true) {
		completionWorker := worker.NewCompletionWorker(
			bookingService,
			log,
			time.Duration(cfg.CompletionIntervalMinutes)*time.Minute,
		)
		go completionWorker.Start(ctx)
	}

	// 11. Start HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.Error("server error", slog.String("error", err.Error()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop completion worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("failed to flush traces", slog.String("error", err.Error()))
	}
	closeAll(log, closers)
	log.Info("server stopped")
	if logCloser != nil {
		_ = logCloser.Close()
	}
}

// openStore returns the repositories for the configured driver. Postgres
// repositories are wrapped with retries and a circuit breaker.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, io.Closer, error) {
	if cfg.StoreDriver == "memory" {
		mem := repository.NewMemoryStore()
		log.Warn("using in-memory store: data is lost on restart")
		return &stores{
			users:    mem.Users(),
			listings: mem.Listings(),
			bookings: mem.Bookings(),
			reviews:  mem.Reviews(),
			ping:     mem,
		}, nil, nil
	}

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		URL:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db := pool.GetDB()
	guard := repository.NewGuard(circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second), retry.DefaultConfig(), log)
	return &stores{
		users:    repository.NewPostgresUserRepository(db, log),
		listings: repository.NewResilientListingRepository(repository.NewPostgresListingRepository(db, log), guard),
		bookings: repository.NewResilientBookingRepository(repository.NewPostgresBookingRepository(db, log), guard),
		reviews:  repository.NewResilientReviewRepository(repository.NewPostgresReviewRepository(db, log), guard),
		ping:     handler.PingFunc(pool.Health),
	}, pool, nil
}

func closeAll(log *slog.Logger, closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.Error("failed to close resource", slog.String("error", err.Error()))
		}
	}
}

func generateDevSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("dev-%d", time.Now().UnixNano())
}
