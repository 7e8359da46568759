package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/swapyard/swapyard-backend/api/routes"
	"github.com/swapyard/swapyard-backend/internal/accounts"
	"github.com/swapyard/swapyard-backend/internal/escrow"
	"github.com/swapyard/swapyard-backend/internal/items"
	"github.com/swapyard/swapyard-backend/internal/offers"
	"github.com/swapyard/swapyard-backend/internal/settlement"
	"github.com/swapyard/swapyard-backend/internal/transactions"
	"github.com/swapyard/swapyard-backend/pkg/auth/session"
	"github.com/swapyard/swapyard-backend/pkg/config"
	"github.com/swapyard/swapyard-backend/pkg/db"
	"github.com/swapyard/swapyard-backend/pkg/logger"
	"github.com/swapyard/swapyard-backend/pkg/metrics"
	"github.com/swapyard/swapyard-backend/pkg/migrate"
	"github.com/swapyard/swapyard-backend/pkg/outbox"
	"github.com/swapyard/swapyard-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, time.Duration(cfg.JWT.ExpirationMinutes)*time.Minute)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	offersRepo := offers.NewRepository(dbClient.DB())
	itemsRepo := items.NewRepository(dbClient.DB())
	accountsRepo := accounts.NewRepository(dbClient.DB())
	transactionsRepo := transactions.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	offersService, err := offers.NewService(offersRepo, itemsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create offers service", err)
		os.Exit(1)
	}
	accountsService, err := accounts.NewService(accountsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}
	transactionsService, err := transactions.NewService(transactionsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}
	settlementService, err := settlement.NewService(
		offersRepo,
		transactionsRepo,
		itemsRepo,
		accountsRepo,
		escrow.NewCustodian(),
		dbClient,
		outboxService,
		cfg.Fees,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			offersService,
			settlementService,
			transactionsService,
			accountsService,
			settlementMetrics,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
