package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/memory"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/ratelimit"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Service: "storefront", Env: cfg.GoEnv, Level: cfg.LogLevel})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := server.WithSignals(context.Background())
	defer cancel()

	//ストレージ選択
	txm, userRepo, err := openStorage(cfg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(reg)
	serverMetrics := metrics.NewServerMetrics(reg)

	clock := &realClock{}
	pricing := usecase.Pricing{
		Currency:              cfg.Currency,
		TaxRate:               cfg.TaxRate,
		ShippingFee:           cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}

	//Usecase生成
	events := usecase.NewOrderEventLog(txm, clock)
	ledger := usecase.NewInventoryLedger(log, orderMetrics)
	sm := usecase.NewOrderStateMachine(txm, events, clock, log, orderMetrics, cfg.TxMaxRetries)

	checkoutUC := usecase.NewCheckoutUsecase(txm, ledger, pricing, clock, log)
	orderUC := usecase.NewOrderUsecase(txm, events)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, sm, events, ledger)
	adminInventoryUC := usecase.NewAdminInventoryUsecase(txm, ledger, clock, log)

	limiter := ratelimit.NewStore(ratelimit.Options{
		RPS:      cfg.RateLimitRPS,
		Burst:    cfg.RateLimitBurst,
		Capacity: cfg.RateLimitCapacity,
		IdleTTL:  cfg.RateLimitIdleTTL,
	})
	defer limiter.Close()

	//Handler生成
	e := server.New(log, serverMetrics, reg)
	server.RegisterRoutes(e, cfg, userRepo, server.Handlers{
		Orders:         handler.NewOrderHandler(checkoutUC, orderUC),
		AdminOrders:    handler.NewAdminOrderHandler(adminOrderUC),
		AdminInventory: handler.NewAdminInventoryHandler(adminInventoryUC),
	}, limiter)

	return server.Start(ctx, e, cfg.Addr(), log)
}

func openStorage(cfg config.Config, log *slog.Logger) (repository.TransactionManager, repository.UserRepository, error) {
	if cfg.StorageBackend == config.StorageBackendMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		seedDemo(store)
		return store, store.Users(), nil
	}

	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, nil, err
	}
	return infraRepo.NewTxManagerGorm(gormDB), infraRepo.NewUserGormRepository(gormDB), nil
}

// ローカル確認用の最低限のデータ（user=1, admin=2）
func seedDemo(store *memory.Store) {
	store.PutUser(model.User{ID: 1, Email: "user@example.com", Role: model.RoleUser, IsActive: true})
	store.PutUser(model.User{ID: 2, Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true})

	p := store.PutProduct(model.Product{Name: "T-shirt", Price: 2500, IsActive: true})
	for _, size := range []string{"S", "M", "L"} {
		store.PutSizeVariant(model.SizeVariant{ProductID: p.ID, SizeLabel: size, Stock: 10})
	}
}
