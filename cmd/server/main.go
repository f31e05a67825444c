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

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/config"
	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/events"
	"github.com/yukikurage/taskboard-api/internal/logger"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/server"
	"github.com/yukikurage/taskboard-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	zlog, err := logger.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to database
	db, err := database.Connect(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		zlog.Fatal("failed to create session store", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event fanout: publish straight into the hub, or through redis so every
	// instance's hub receives the event.
	hub := events.NewHub(cfg.EventsBuffer, zlog)
	var publisher services.EventPublisher = hub
	var redisClient *redis.Client
	if cfg.EventsRelay == "redis" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		relay := events.NewRedisRelay(redisClient, cfg.EventsRedisChannel, hub, zlog)
		publisher = relay
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zlog.Error("event relay stopped", zap.Error(err))
			}
		}()
	}

	var generator services.TaskGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewAIService(cfg.OpenAIAPIKey)
	}

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	router := server.NewRouter(server.Dependencies{
		DB:       db,
		Log:      zlog,
		Sessions: store,
		Tokens:   tokens,
		Users:    userRepo,
		Hub:      hub,

		AuthService:   services.NewAuthService(userRepo, tokens, auth.NewAssertionVerifier(cfg.IdentityAssertionSecret)),
		TaskService:   services.NewTaskService(taskRepo, userRepo, activityRepo, publisher, generator, zlog),
		ReportService: services.NewReportService(taskRepo),
		AdminService:  services.NewAdminService(userRepo, activityRepo, hub, zlog),
		UserService:   services.NewUserService(userRepo),

		EventsKeepAlive: cfg.EventsKeepAlive,
		AuthRateLimit:   cfg.AuthRateLimit,
		AuthRateBurst:   cfg.AuthRateBurst,
	})

	// No write timeout: /api/events responses stay open.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown waits for active handlers, and event streams only return once
	// their hub connection is closed.
	srv.RegisterOnShutdown(hub.Close)

	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr), zap.String("events_relay", cfg.EventsRelay))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server shutdown", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("stopped")
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.SessionStore == "cookie" {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	} else {
		redisSessions, err := redisStore.NewStore(
			10,              // Redis pool size
			"tcp",           // network type
			cfg.RedisAddr(), // Redis address from config
			"",              // username (empty for default user)
			"",              // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store = redisSessions
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
