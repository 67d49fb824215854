package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"parkspot/docs"
	"parkspot/internal/auth"
	"parkspot/internal/cache"
	"parkspot/internal/config"
	"parkspot/internal/db"
	"parkspot/internal/handler"
	"parkspot/internal/logger"
	"parkspot/internal/realtime"
	"parkspot/internal/router"
	"parkspot/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Parking Finder API
// @version 1.0
// @description Parking spot marketplace: publish spots, search nearby, and book them.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("database init", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer store.Close(context.Background()) //nolint:errcheck

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, zlog)
	if cacheClient == nil {
		zlog.Info("REDIS_ADDR not set, caching disabled")
	} else if err := cacheClient.Ping(ctx); err != nil {
		zlog.Warn("redis unreachable, continuing without cache hits", zap.Error(err))
	}
	defer cacheClient.Close() //nolint:errcheck

	hub := realtime.NewHub(zlog, cfg.CORSOrigins)
	go hub.Run(ctx)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)

	// Initialize services
	authService := service.NewAuthService(store.Users, jwtService)
	userService := service.NewUserService(store.Users, cacheClient)
	spotService := service.NewSpotService(store.Spots, store.Users, cacheClient, zlog,
		service.WithNotifier(hub),
		service.WithAvailabilityOwnerCheck(cfg.AvailabilityRequiresOwner),
	)
	bookingService := service.NewBookingService(store.Bookings, store.Spots, store.Users, cacheClient, hub, zlog)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, zlog, jwtService, hub, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Spots:    handler.NewSpotHandler(spotService),
		Bookings: handler.NewBookingHandler(bookingService),
		Users:    handler.NewUserHandler(userService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	zlog.Info("swagger documentation available", zap.String("url", swaggerURL(cfg.SwaggerHost, cfg.ServerPort)))

	addr := ":" + cfg.ServerPort
	go func() {
		zlog.Info("server starting", zap.String("addr", addr), zap.String("db_driver", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
}

// swaggerURL builds the UI address. host may already carry a scheme.
func swaggerURL(host, port string) string {
	if host == "" {
		host = "localhost:" + port
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/") + "/swagger/index.html"
}
