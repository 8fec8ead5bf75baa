package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration derived from environment variables.
type Config struct {
	HTTPPort     string
	LogLevel     string
	SnapshotPath string

	RedisURL string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	ProviderFeePercent decimal.Decimal
	GatewayTimeout     time.Duration

	AliceNodeHost string
	BobNodeHost   string
	EdgeNodeHost  string

	ReconciliationInterval time.Duration
	PublicRateLimitRPS     int
	AdminRateLimitRPS      int
	IdempotencyTTL         time.Duration
}

// Load reads environment variables using viper and returns a typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "HUFFLEPAY_PORT")
	bindEnv(v, "log_level", "LOG_LEVEL", "HUFFLEPAY_LOG_LEVEL")
	bindEnv(v, "snapshot_path", "SNAPSHOT_PATH", "HUFFLEPAY_SNAPSHOT_PATH")
	bindEnv(v, "redis_url", "REDIS_URL", "HUFFLEPAY_REDIS_URL")
	bindEnv(v, "jwt_secret", "JWT_SECRET", "HUFFLEPAY_JWT_SECRET")
	bindEnv(v, "jwt_issuer", "JWT_ISSUER", "HUFFLEPAY_JWT_ISSUER")
	bindEnv(v, "jwt_audience", "JWT_AUDIENCE", "HUFFLEPAY_JWT_AUDIENCE")
	bindEnv(v, "provider_fee_percent", "PROVIDER_FEE_PERCENT", "HUFFLEPAY_PROVIDER_FEE_PERCENT")
	bindEnv(v, "gateway_timeout", "GATEWAY_TIMEOUT", "HUFFLEPAY_GATEWAY_TIMEOUT")
	bindEnv(v, "alice_node_host", "ALICE_NODE_HOST", "HUFFLEPAY_ALICE_NODE_HOST")
	bindEnv(v, "bob_node_host", "BOB_NODE_HOST", "HUFFLEPAY_BOB_NODE_HOST")
	bindEnv(v, "edge_node_host", "EDGE_NODE_HOST", "HUFFLEPAY_EDGE_NODE_HOST")
	bindEnv(v, "reconciliation_interval", "RECONCILIATION_INTERVAL", "HUFFLEPAY_RECONCILIATION_INTERVAL")
	bindEnv(v, "public_rate_limit_rps", "PUBLIC_RATE_LIMIT_RPS", "HUFFLEPAY_PUBLIC_RATE_LIMIT_RPS")
	bindEnv(v, "admin_rate_limit_rps", "ADMIN_RATE_LIMIT_RPS", "HUFFLEPAY_ADMIN_RATE_LIMIT_RPS")
	bindEnv(v, "idempotency_ttl", "IDEMPOTENCY_TTL", "HUFFLEPAY_IDEMPOTENCY_TTL")

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("snapshot_path", "data/ledger.json")
	v.SetDefault("redis_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "hufflepay")
	v.SetDefault("jwt_audience", "hufflepay-api")
	v.SetDefault("provider_fee_percent", "0.5")
	v.SetDefault("gateway_timeout", "30s")
	v.SetDefault("alice_node_host", "localhost:8081")
	v.SetDefault("bob_node_host", "localhost:8082")
	v.SetDefault("edge_node_host", "localhost:8083")
	v.SetDefault("reconciliation_interval", "1m")
	v.SetDefault("public_rate_limit_rps", 10)
	v.SetDefault("admin_rate_limit_rps", 100)
	v.SetDefault("idempotency_ttl", "24h")

	feePercent, err := decimal.NewFromString(v.GetString("provider_fee_percent"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_FEE_PERCENT: %w", err)
	}
	if feePercent.IsNegative() || feePercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("PROVIDER_FEE_PERCENT must be in [0, 100), got %s", feePercent)
	}

	gatewayTimeout, err := time.ParseDuration(v.GetString("gateway_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}
	reconciliationInterval, err := time.ParseDuration(v.GetString("reconciliation_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILIATION_INTERVAL: %w", err)
	}
	ttl, err := time.ParseDuration(v.GetString("idempotency_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}

	cfg := &Config{
		HTTPPort:               v.GetString("port"),
		LogLevel:               v.GetString("log_level"),
		SnapshotPath:           v.GetString("snapshot_path"),
		RedisURL:               v.GetString("redis_url"),
		JWTSecret:              v.GetString("jwt_secret"),
		JWTIssuer:              v.GetString("jwt_issuer"),
		JWTAudience:            v.GetString("jwt_audience"),
		ProviderFeePercent:     feePercent,
		GatewayTimeout:         gatewayTimeout,
		AliceNodeHost:          v.GetString("alice_node_host"),
		BobNodeHost:            v.GetString("bob_node_host"),
		EdgeNodeHost:           v.GetString("edge_node_host"),
		ReconciliationInterval: reconciliationInterval,
		PublicRateLimitRPS:     max(v.GetInt("public_rate_limit_rps"), 1),
		AdminRateLimitRPS:      max(v.GetInt("admin_rate_limit_rps"), 1),
		IdempotencyTTL:         ttl,
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if strings.TrimSpace(cfg.JWTIssuer) == "" {
		return nil, fmt.Errorf("JWT_ISSUER is required")
	}
	if strings.TrimSpace(cfg.JWTAudience) == "" {
		return nil, fmt.Errorf("JWT_AUDIENCE is required")
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}
