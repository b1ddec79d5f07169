package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/fakeorders"
	"github.com/doceeser/orderboard/internal/storage/memory"
	"github.com/doceeser/orderboard/internal/storage/mongodb"
	"github.com/doceeser/orderboard/internal/storage/postgres"
)

const seedSpacing = 7 * time.Minute

// openOrderStore открывает хранилище по выбранному драйверу и возвращает
// функцию его закрытия.
func openOrderStore(ctx context.Context, cfg Config, logger *log.Entry) (domain.OrderStore, func(), error) {
	storeLogger := logger.WithField("storage", string(cfg.StorageDriver))

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := pg.EnsureSchema(ctx); err != nil {
				_ = pg.Close()
				return nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		closeFn := func() {
			if err := pg.Close(); err != nil {
				storeLogger.WithError(err).Warn("failed to close postgres")
			}
		}
		storeLogger.Info("postgres order store ready")
		return postgres.NewOrderStore(pg, storeLogger), closeFn, nil

	case StorageDriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := mongodb.EnsureIndexes(ctx, client.Database().Collection(cfg.MongoCollection)); err != nil {
			_ = client.Close(context.Background())
			return nil, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				storeLogger.WithError(err).Warn("failed to close mongo")
			}
		}
		storeLogger.WithField("collection", cfg.MongoCollection).Info("mongo order store ready")
		return mongodb.NewOrderStore(client, cfg.MongoCollection, storeLogger), closeFn, nil

	default:
		store := memory.NewOrderStore()
		if err := seedOrders(ctx, store, cfg.SeedOrders); err != nil {
			return nil, nil, err
		}
		storeLogger.WithField("seeded", cfg.SeedOrders).Info("in-memory order store ready")
		return store, func() {}, nil
	}
}

// seedOrders заполняет хранилище демонстрационными заказами.
func seedOrders(ctx context.Context, store domain.OrderStore, n int) error {
	if n <= 0 {
		return nil
	}
	gen := fakeorders.New(0)
	for _, order := range gen.Orders(n, seedSpacing) {
		if _, err := store.Create(ctx, order); err != nil {
			return fmt.Errorf("seed order %s: %w", order.ID, err)
		}
	}
	return nil
}
