package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"luxdrive/internal/config"
)

// Open builds the Store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreFile:
		fs, err := NewFileStore(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Using file store", zap.String("path", fs.Path()))
		return NewFileBackend(fs), nil
	case config.StoreSQLite:
		logger.Info("Using sqlite store", zap.String("path", cfg.SQLitePath))
		return NewSQLiteBackend(ctx, cfg.SQLitePath)
	case config.StoreMongo:
		logger.Info("Using mongo store", zap.String("database", cfg.MongoDB))
		return NewMongoBackend(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.StoreFirestore:
		client, err := NewFirestoreClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewFirestoreBackend(client)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
