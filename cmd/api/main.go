package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"powerchip/internal/config"
	"powerchip/internal/handler"
	"powerchip/internal/infra/cache"
	"powerchip/internal/infra/db"
	"powerchip/internal/infra/mercadopago"
	"powerchip/internal/infra/notify"
	infraRepo "powerchip/internal/infra/repository"
	"powerchip/internal/observability"
	"powerchip/internal/server"
	"powerchip/internal/usecase"
	"powerchip/internal/validator"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(observability.LoggerOptions{
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFile,
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	tx := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//支払い状態キャッシュ（REDIS_ADDRが無ければなし）
	var statusCache usecase.StatusCache = usecase.NoopStatusCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = rdb.Close() }()
		statusCache = cache.NewRedisStatusCache(rdb, cfg.StatusCacheTTL)
		logger.Info("status cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	//注文イベント通知
	var notifier usecase.Notifier = notify.NewLogNotifier(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kp := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() { _ = kp.Close() }()
		notifier = kp
		logger.Info("kafka notifier enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	gateway := mercadopago.NewClient(
		cfg.MPAccessToken,
		mercadopago.WithBaseURL(cfg.MPBaseURL),
		mercadopago.WithTimeout(cfg.MPTimeout),
		mercadopago.WithNotificationURL(cfg.MPNotificationURL),
		mercadopago.WithLogger(logger),
	)
	if cfg.MPWebhookSecret == "" {
		logger.Warn("MP_WEBHOOK_SECRET is empty, webhook signatures are not verified")
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, validator.NewAuthValidator(userRepo))
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, tx)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(tx, orderRepo, orderItemRepo)
	paymentUC := usecase.NewPaymentUsecase(orderRepo, userRepo, gateway, statusCache, logger)
	webhookUC := usecase.NewWebhookUsecase(tx, orderRepo, gateway, notifier, statusCache, cfg.MPWebhookSecret, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(tx, orderRepo, orderItemRepo, auditRepo, statusCache)
	statsUC := usecase.NewAdminStatsUsecase(productRepo, orderRepo, userRepo)
	adminUserUC := usecase.NewAdminUserUsecase(tx, userRepo)

	//Handler生成
	srv := server.New(cfg, logger, server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		Webhook:      handler.NewWebhookHandler(webhookUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, statsUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminUser:    handler.NewAdminUserHandler(adminUserUC),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
