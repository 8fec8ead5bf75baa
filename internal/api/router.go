package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/api/handler"
	"github.com/ayo6706/hufflepay/internal/api/middleware"
	"github.com/ayo6706/hufflepay/internal/api/spec"
	"github.com/ayo6706/hufflepay/internal/config"
	"github.com/ayo6706/hufflepay/internal/gateway"
	"github.com/ayo6706/hufflepay/internal/idempotency"
	"github.com/ayo6706/hufflepay/internal/ledger"
	"github.com/ayo6706/hufflepay/internal/service"
)

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	swaps     *service.SwapService
	assets    *service.AssetService
	nodes     map[string]gateway.Node
	ledger    *ledger.Ledger
	idemStore *idempotency.Store
	redis     redis.Cmdable
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	swaps *service.SwapService,
	assets *service.AssetService,
	nodes map[string]gateway.Node,
	led *ledger.Ledger,
	idemStore *idempotency.Store,
	redisClient redis.Cmdable,
) *Router {
	return &Router{
		cfg:       cfg,
		logger:    logger,
		swaps:     swaps,
		assets:    assets,
		nodes:     nodes,
		ledger:    led,
		idemStore: idemStore,
		redis:     redisClient,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	swapHandler := handler.NewSwapHandler(api.swaps)
	assetHandler := handler.NewAssetHandler(api.assets)
	nodeHandler := handler.NewNodeHandler(api.nodes)
	healthHandler := handler.NewHealthHandler(api.ledger, api.redis)

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Get("/v1/swaps", swapHandler.ListSwaps)
		r.Get("/v1/swaps/{id}", swapHandler.GetSwap)
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/swaps", swapHandler.InitiateSwap)
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/swaps/{id}/execute", swapHandler.ExecuteSwap)

		r.Get("/v1/nodes/{node}/info", nodeHandler.GetInfo)
		r.Post("/v1/nodes/{node}/invoices", nodeHandler.CreateInvoice)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.RequireRole("admin"))
		r.Use(middleware.AdminRateLimiter(api.cfg.AdminRateLimitRPS))

		r.Post("/v1/admin/assets/mint", assetHandler.MintAsset)
		r.Post("/v1/admin/assets/transfer", assetHandler.TransferAsset)
		r.Post("/v1/admin/assets/init", assetHandler.Initialize)
		r.Get("/v1/admin/assets/{party}", assetHandler.GetAssets)
	})

	return r
}
