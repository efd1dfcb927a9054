package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/memory"
	"storefront/internal/infra/messaging"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/notification"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//閉じる順は登録の逆
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Error("close failed", "err", err)
			}
		}
	}()

	//ストア（postgres / memory）
	tx, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	if cfg.Seed {
		if err := tx.WithinTx(ctx, func(r repo.TxRepos) error {
			return r.Products().Seed(ctx, db.SeedProducts())
		}); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		slog.Info("product catalog seeded")
	}

	//商品キャッシュ（REDIS_URLが無ければ無効）
	var productCache usecase.ProductCache = cache.NoopProductCache{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisProductCache(cfg.RedisURL, cfg.ProductCacheTTL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		productCache = rc
		closers = append(closers, rc.Close)
		slog.Info("product cache enabled", "ttl", cfg.ProductCacheTTL)
	}

	//注文通知（KAFKA_BROKERSが無ければログのみ）
	var publisher notification.Publisher = messaging.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kp := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		publisher = kp
		closers = append(closers, kp.Close)
		slog.Info("order notifications via kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaOrderTopic)
	}
	dispatcher := notification.NewDispatcher(publisher, cfg.NotifyBuffer, cfg.NotifyTimeout)
	closers = append(closers, func() error {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return dispatcher.Close(drainCtx)
	})

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, tx, validator.NewAuthValidator())
	productUC := usecase.NewProductUsecase(tx, productCache)
	orderUC := usecase.NewOrderUsecase(tx, productCache, dispatcher)
	auditUC := usecase.NewAuditUsecase(tx)

	e := server.New(logger)
	server.RegisterRoutes(e, cfg, authUC, server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminUser:    handler.NewAdminUserHandler(authUC),
		AdminAudit:   handler.NewAdminAuditHandler(auditUC),
	})

	addr := ":" + cfg.Port
	slog.Info("server starting", "addr", addr, "env", cfg.GoEnv, "store", cfg.StoreDriver)
	if err := server.Start(ctx, e, addr, 15*time.Second); err != nil {
		return err
	}
	slog.Info("server exited")
	return nil
}

func openStore(cfg config.Config) (repo.TransactionManager, func() error, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() error { return nil }, nil
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return infraRepo.NewTxManagerGorm(gormDB, cfg.DBLockTimeout, cfg.DBStatementTimeout), sqlDB.Close, nil
}

// prodはJSON、devはテキスト
func newLogger(cfg config.Config) *slog.Logger {
	var w io.Writer = os.Stdout
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
