package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"parkspot/internal/auth"
	"parkspot/internal/config"
	"parkspot/internal/db"
	"parkspot/internal/logger"
	"parkspot/internal/service"
)

func main() {
	source := flag.String("file", "fixtures.json", "path or http(s) URL of the fixture document")
	flag.Parse()

	cfg := config.Load()
	zlog, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	fixtures, err := loadFixtures(*source)
	if err != nil {
		zlog.Fatal("load fixtures", zap.String("source", *source), zap.Error(err))
	}
	zlog.Info("fixtures loaded", zap.Int("users", len(fixtures.Users)), zap.Int("spots", len(fixtures.Spots)))

	ctx := context.Background()
	store, err := db.Open(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("database init", zap.Error(err))
	}
	defer store.Close(ctx) //nolint:errcheck

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	s := &seeder{
		users: store.Users,
		auth:  service.NewAuthService(store.Users, jwtService),
		spots: service.NewSpotService(store.Spots, store.Users, nil, zlog),
		log:   zlog,
	}

	stats, err := s.run(ctx, fixtures)
	if err != nil {
		zlog.Fatal("seed failed", zap.Error(err))
	}
	zlog.Info("seed completed",
		zap.Int("users_created", stats.UsersCreated),
		zap.Int("users_existing", stats.UsersExisting),
		zap.Int("spots_created", stats.SpotsCreated),
		zap.Int("spots_existing", stats.SpotsExisting),
	)
}
