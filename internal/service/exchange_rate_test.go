package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayo6706/hufflepay/internal/domain"
)

func TestStaticExchangeRates(t *testing.T) {
	svc := NewStaticExchangeRateService(nil)
	ctx := context.Background()

	rate, err := svc.GetExchangeRate(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.91").Equal(rate))

	// Keys are normalized, so case and whitespace do not matter.
	rate, err = svc.GetExchangeRate(ctx, " usdt ", "eurc")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.91").Equal(rate))

	_, err = svc.GetExchangeRate(ctx, "USD", "ZAR")
	assert.ErrorIs(t, err, domain.ErrRateNotFound)
}

func TestStaticExchangeRatesCustomTable(t *testing.T) {
	svc := NewStaticExchangeRateService(map[string]decimal.Decimal{
		"USD-NGN": decimal.NewFromInt(1500),
	})

	rate, err := svc.GetExchangeRate(context.Background(), "USD", "NGN")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1500).Equal(rate))

	_, err = svc.GetExchangeRate(context.Background(), "USD", "EUR")
	assert.ErrorIs(t, err, domain.ErrRateNotFound)
}
