package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studycards/internal/authprovider"
	"studycards/internal/config"
	"studycards/internal/db"
	"studycards/internal/email"
	apihttp "studycards/internal/http"
	"studycards/internal/kv"
	"studycards/internal/llm"
	"studycards/internal/repository"
	"studycards/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			sentryEnabled = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	cardRepo := repository.NewPgFlashcardRepository(pool)

	var (
		store   kv.Store = kv.NewMemoryStore()
		limiter service.EmailRateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory store", zap.Error(err))
		} else {
			store = kv.NewRedisStore(redisClient, "studycards:")
			limiter = service.NewRedisEmailRateLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	var emailSender email.Sender = email.NewLogSender(logger)
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed, logging emails instead", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var provider authprovider.Provider
	if cfg.AuthProviderEnabled() {
		provider = authprovider.NewGoTrueClient(cfg.AuthProviderURL, cfg.AuthProviderKey, cfg.BackendTimeout, logger)
		logger.Info("external auth provider enabled")
	}

	generator := service.NewPlaceholderGenerator()
	if cfg.LLMAPIKey != "" {
		generator = service.NewLLMCardGenerator(llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, service.CardLLMOptions(cfg.LLMTimeout), logger), logger)
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.SecretKey,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		service.NewRefreshTokenStore(store),
	)
	authSvc := service.NewAuthService(service.AuthServiceDeps{
		Logger:        logger,
		Users:         userRepo,
		Sessions:      jwtSvc,
		Verifications: service.NewVerificationTokenService(cfg.SecretKey),
		Resets:        service.NewResetTokenService(store),
		KV:            store,
		Provider:      provider,
		EmailSender:   emailSender,
		Limiter:       limiter,
		BaseURL:       cfg.PublicBaseURL,
	})
	cardSvc := service.NewFlashcardService(logger, cardRepo, generator)

	router := apihttp.NewRouter(logger,
		apihttp.RouterOptions{BackendTimeout: cfg.BackendTimeout, Sentry: sentryEnabled},
		jwtSvc,
		apihttp.NewAuthHandler(logger, authSvc, cardSvc),
		apihttp.NewFlashcardHandler(logger, cardSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
