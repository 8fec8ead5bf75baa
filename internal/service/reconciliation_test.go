package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/domain"
)

func TestReconcileBalancedLedger(t *testing.T) {
	f := newSwapFixture(t)
	svc := NewReconciliationService(f.ledger, zap.NewNop())

	diverged, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, diverged)
}

func TestReconcileAfterSwaps(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	svc := NewReconciliationService(f.ledger, zap.NewNop())

	// Transfers conserve totals, so a completed swap and a compensated
	// one both leave the ledger balanced.
	resp, err := f.swaps.InitiateSwap(ctx, InitiateSwapRequest{
		SourceAmount:   decimal.NewFromInt(100),
		SourceCurrency: "USD",
		TargetCurrency: "EUR",
	})
	require.NoError(t, err)
	result, err := f.swaps.ExecuteSwap(ctx, resp.SwapID)
	require.NoError(t, err)
	require.True(t, result.Success)

	f.edge.FailureRate = 1.0
	resp, err = f.swaps.InitiateSwap(ctx, InitiateSwapRequest{
		SourceAmount:   decimal.NewFromInt(200),
		SourceCurrency: "USD",
		TargetCurrency: "EUR",
	})
	require.NoError(t, err)
	result, err = f.swaps.ExecuteSwap(ctx, resp.SwapID)
	require.NoError(t, err)
	require.False(t, result.Success)

	diverged, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, diverged)
}

func TestReconcileAfterDirectTransfer(t *testing.T) {
	f := newSwapFixture(t)
	svc := NewReconciliationService(f.ledger, zap.NewNop())

	entries, err := f.ledger.Balances(domain.PartyAlice)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	_, err = f.ledger.Transfer(entries[0].ID, decimal.NewFromInt(10), domain.PartyAlice, domain.PartyBob)
	require.NoError(t, err)

	diverged, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, diverged)
}

func TestReconcileCanceledContext(t *testing.T) {
	f := newSwapFixture(t)
	svc := NewReconciliationService(f.ledger, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Reconcile(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
