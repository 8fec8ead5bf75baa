package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/domain"
	"github.com/ayo6706/hufflepay/internal/gateway"
	"github.com/ayo6706/hufflepay/internal/ledger"
	"github.com/ayo6706/hufflepay/internal/registry"
)

// swapFixture wires a full in-memory engine: seeded ledger, registry,
// simulated nodes and the services under test.
type swapFixture struct {
	ledger   *ledger.Ledger
	registry *registry.Registry
	edge     *gateway.Simulated
	payee    *gateway.Simulated
	swaps    *SwapService
	assets   *AssetService
}

// newSwapFixture seeds the default balances: alice 10000 USD, bob
// 10000 EUR, edge 10000 USD / 9000 EUR / 1 BTC.
func newSwapFixture(t *testing.T) *swapFixture {
	t.Helper()

	logger := zap.NewNop()
	led := ledger.New(nil, logger)
	assets := NewAssetService(led, logger)
	require.NoError(t, assets.InitializeDefaults())

	reg := registry.New()
	edge := gateway.NewSimulated("edge", "localhost:8082", logger)
	payee := gateway.NewSimulated("bob", "localhost:8081", logger)

	swaps := NewSwapService(reg, led, NewStaticExchangeRateService(nil), edge, payee,
		decimal.RequireFromString("0.5"), logger)

	return &swapFixture{
		ledger:   led,
		registry: reg,
		edge:     edge,
		payee:    payee,
		swaps:    swaps,
		assets:   assets,
	}
}

// newShortfallFixture seeds bob with less EUR than any reversal will
// need, so a compensated execution breaks mid-rollback.
func newShortfallFixture(t *testing.T) *swapFixture {
	t.Helper()

	logger := zap.NewNop()
	led := ledger.New(nil, logger)
	_, err := led.Mint(domain.PartyAlice, "USD", decimal.NewFromInt(10000))
	require.NoError(t, err)
	_, err = led.Mint(domain.PartyBob, "EUR", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, led.SeedDefaults())

	reg := registry.New()
	edge := gateway.NewSimulated("edge", "localhost:8082", logger)
	payee := gateway.NewSimulated("bob", "localhost:8081", logger)

	swaps := NewSwapService(reg, led, NewStaticExchangeRateService(nil), edge, payee,
		decimal.RequireFromString("0.5"), logger)

	return &swapFixture{
		ledger:   led,
		registry: reg,
		edge:     edge,
		payee:    payee,
		swaps:    swaps,
		assets:   NewAssetService(led, logger),
	}
}

// totalBalance sums a party's entries for one asset name.
func (f *swapFixture) totalBalance(t *testing.T, party domain.Party, asset string) decimal.Decimal {
	t.Helper()

	entries, err := f.ledger.Balances(party)
	require.NoError(t, err)
	total := decimal.Zero
	for _, e := range entries {
		if e.Name == asset {
			total = total.Add(e.Amount)
		}
	}
	return total
}
