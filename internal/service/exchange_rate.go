package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayo6706/hufflepay/internal/domain"
	"github.com/shopspring/decimal"
)

// ExchangeRateService defines the interface for fetching FX rates.
// Rates are an external data source; the orchestrator only consumes
// them.
type ExchangeRateService interface {
	// GetExchangeRate returns the rate to convert from source to target
	// currency, or domain.ErrRateNotFound for an unknown pair.
	GetExchangeRate(ctx context.Context, sourceCurrency, targetCurrency string) (decimal.Decimal, error)
}

// StaticExchangeRateService serves a fixed rate table. The default
// table carries every pair under both its display and backend codes, so
// lookups resolve whichever form callers send.
type StaticExchangeRateService struct {
	rates map[string]decimal.Decimal
}

// NewStaticExchangeRateService builds a rate service; a nil table uses
// DefaultExchangeRates.
func NewStaticExchangeRateService(rates map[string]decimal.Decimal) *StaticExchangeRateService {
	if rates == nil {
		rates = DefaultExchangeRates()
	}
	return &StaticExchangeRateService{rates: rates}
}

func (s *StaticExchangeRateService) GetExchangeRate(ctx context.Context, source, target string) (decimal.Decimal, error) {
	key := rateKey(source, target)
	rate, ok := s.rates[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrRateNotFound, key)
	}
	return rate, nil
}

func rateKey(source, target string) string {
	return strings.ToUpper(strings.TrimSpace(source)) + "-" + strings.ToUpper(strings.TrimSpace(target))
}

// DefaultExchangeRates returns the built-in rate table, keyed by
// "SOURCE-TARGET" for both display and backend currency pairs.
func DefaultExchangeRates() map[string]decimal.Decimal {
	btcUsd := decimal.NewFromInt(70000)
	usdBtc := decimal.NewFromInt(1).Div(btcUsd)

	return map[string]decimal.Decimal{
		// Display currency pairs
		"USDT-EURC": decimal.RequireFromString("0.91"),
		"EURC-USDT": decimal.RequireFromString("1.10"),
		"BTC-USDT":  btcUsd,
		"USDT-BTC":  usdBtc,
		"GBPT-USDT": decimal.RequireFromString("1.25"),
		"USDT-GBPT": decimal.RequireFromString("0.80"),
		"JPYT-USDT": decimal.RequireFromString("0.0067"),
		"USDT-JPYT": decimal.RequireFromString("149.8"),

		// Backend currency pairs
		"USD-EUR": decimal.RequireFromString("0.91"),
		"EUR-USD": decimal.RequireFromString("1.10"),
		"BTC-USD": btcUsd,
		"USD-BTC": usdBtc,
		"GBP-USD": decimal.RequireFromString("1.25"),
		"USD-GBP": decimal.RequireFromString("0.80"),
		"JPY-USD": decimal.RequireFromString("0.0067"),
		"USD-JPY": decimal.RequireFromString("149.8"),
	}
}
