// Package db opens the configured storage backend and exposes its
// repositories.
package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"parkspot/internal/config"
	"parkspot/internal/repository"
	"parkspot/internal/repository/mongodb"
)

// Store bundles the repositories of one backend.
type Store struct {
	Users    repository.UserRepository
	Spots    repository.SpotRepository
	Bookings repository.BookingRepository

	close func(ctx context.Context) error
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the backend selected by cfg.DBDriver and prepares its
// schema or indexes.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DBDriver == config.DriverMongoDB {
		return openMongo(ctx, cfg, log)
	}
	return openSQL(cfg, log)
}

func openSQL(cfg *config.Config, log *zap.Logger) (*Store, error) {
	gormDB, err := NewGorm(cfg.DBDriver, cfg.DatabaseDSN, cfg.IsDevelopment(), log)
	if err != nil {
		return nil, err
	}
	if cfg.ResetDB {
		log.Warn("RESET_DB set, dropping tables", zap.String("driver", cfg.DBDriver))
	}
	if err := Migrate(gormDB, cfg.ResetDB); err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))

	return &Store{
		Users:    repository.NewUserRepository(gormDB),
		Spots:    repository.NewSpotRepository(gormDB),
		Bookings: repository.NewBookingRepository(gormDB),
		close:    func(context.Context) error { return sqlDB.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Store, error) {
	client, err := NewMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	database := client.Database(cfg.MongoDB)

	if cfg.ResetDB {
		log.Warn("RESET_DB set, dropping collections", zap.String("database", cfg.MongoDB))
		if err := mongodb.Drop(ctx, database); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
	}
	if err := mongodb.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info("database ready", zap.String("driver", config.DriverMongoDB), zap.String("database", cfg.MongoDB))

	return &Store{
		Users:    mongodb.NewUserRepository(database),
		Spots:    mongodb.NewSpotRepository(database),
		Bookings: mongodb.NewBookingRepository(database),
		close:    client.Disconnect,
	}, nil
}
