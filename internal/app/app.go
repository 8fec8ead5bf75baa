package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/api"
	"github.com/ayo6706/hufflepay/internal/api/middleware"
	"github.com/ayo6706/hufflepay/internal/config"
	"github.com/ayo6706/hufflepay/internal/gateway"
	"github.com/ayo6706/hufflepay/internal/idempotency"
	"github.com/ayo6706/hufflepay/internal/ledger"
	"github.com/ayo6706/hufflepay/internal/observability"
	"github.com/ayo6706/hufflepay/internal/registry"
	"github.com/ayo6706/hufflepay/internal/service"
	"github.com/ayo6706/hufflepay/internal/worker"
)

// Run bootstraps the swap engine and HTTP server, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := ledger.NewFileStore(cfg.SnapshotPath)
	led := ledger.New(snapshots, logger)
	if err := led.Load(); err != nil {
		if !errors.Is(err, ledger.ErrNoSnapshot) {
			return fmt.Errorf("load ledger snapshot: %w", err)
		}
		logger.Info("no ledger snapshot found, starting empty", zap.String("path", cfg.SnapshotPath))
	}

	aliceNode := gateway.NewSimulated("alice", cfg.AliceNodeHost, logger)
	bobNode := gateway.NewSimulated("bob", cfg.BobNodeHost, logger)
	edgeNode := gateway.NewSimulated("edge", cfg.EdgeNodeHost, logger)
	nodes := map[string]gateway.Node{
		"alice": aliceNode,
		"bob":   bobNode,
		"edge":  edgeNode,
	}

	assetSvc := service.NewAssetService(led, logger)
	if err := assetSvc.InitializeDefaults(); err != nil {
		return fmt.Errorf("initialize default balances: %w", err)
	}

	reg := registry.New()
	rates := service.NewStaticExchangeRateService(nil)
	swapSvc := service.NewSwapService(reg, led, rates, edgeNode, bobNode, cfg.ProviderFeePercent, logger).
		WithGatewayTimeout(cfg.GatewayTimeout)

	var redisClient *redis.Client
	var idemStore *idempotency.Store
	if cfg.RedisURL != "" {
		redisClient, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		idemStore = idempotency.NewStore(redisClient, cfg.IdempotencyTTL)
	} else {
		logger.Info("redis url not set, idempotency disabled")
	}

	reconSvc := service.NewReconciliationService(led, logger)
	reconWorker := worker.NewReconciliationWorker(reconSvc).
		WithInterval(cfg.ReconciliationInterval)
	stopWorker := reconWorker.Run(ctx)

	var redisCmd redis.Cmdable
	if redisClient != nil {
		redisCmd = redisClient
	}
	router := api.NewRouter(cfg, logger, swapSvc, assetSvc, nodes, led, idemStore, redisCmd)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping reconciliation worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
