package gateway

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/domain"
)

func newTestNode(t *testing.T) *Simulated {
	t.Helper()
	return NewSimulated("edge", "localhost:8083", zap.NewNop())
}

func TestGetInfo(t *testing.T) {
	n := newTestNode(t)

	info, err := n.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "edge@localhost:8083", info.Alias)
	assert.NotEmpty(t, info.PubKey)
	assert.True(t, info.SyncedToChain)
}

func TestCreateAndPayInvoice(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()

	inv, err := n.CreateInvoice(ctx, CreateInvoiceRequest{
		Amount:      decimal.RequireFromString("90.545"),
		Description: "payment to bob",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inv.PaymentRequest)
	assert.True(t, inv.ExpiresAt.After(inv.CreatedAt))

	receipt, err := n.PayInvoice(ctx, inv.PaymentRequest)
	require.NoError(t, err)
	assert.True(t, receipt.Confirmed)
	assert.True(t, decimal.RequireFromString("90.545").Equal(receipt.Amount))
}

func TestPayInvoiceRejectsGarbage(t *testing.T) {
	n := newTestNode(t)

	_, err := n.PayInvoice(context.Background(), "not-a-payment-request")
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
}

func TestPayInvoiceFailureInjection(t *testing.T) {
	n := newTestNode(t)
	n.FailureRate = 1.0

	inv, err := n.CreateInvoice(context.Background(), CreateInvoiceRequest{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	_, err = n.PayInvoice(context.Background(), inv.PaymentRequest)
	assert.ErrorIs(t, err, domain.ErrPaymentFailed)
}

func TestHoldInvoiceLifecycle(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()

	preimage, hashLock, err := domain.NewPreimage()
	require.NoError(t, err)

	inv, err := n.CreateHoldInvoice(ctx, CreateHoldInvoiceRequest{
		Amount:   decimal.NewFromInt(100),
		HashLock: hashLock,
	})
	require.NoError(t, err)
	assert.Equal(t, hashLock, inv.HashLock)

	settled, canceled, ok := n.HoldState(hashLock)
	require.True(t, ok)
	assert.False(t, settled)
	assert.False(t, canceled)

	require.NoError(t, n.SettleHoldInvoice(ctx, preimage))

	settled, _, _ = n.HoldState(hashLock)
	assert.True(t, settled)

	// Settling twice and canceling a settled hold both fail.
	assert.ErrorIs(t, n.SettleHoldInvoice(ctx, preimage), domain.ErrHoldAlreadySettled)
	assert.ErrorIs(t, n.CancelHoldInvoice(ctx, hashLock), domain.ErrHoldAlreadySettled)
}

func TestHoldInvoiceCancel(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()

	preimage, hashLock, err := domain.NewPreimage()
	require.NoError(t, err)

	_, err = n.CreateHoldInvoice(ctx, CreateHoldInvoiceRequest{
		Amount:   decimal.NewFromInt(100),
		HashLock: hashLock,
	})
	require.NoError(t, err)

	require.NoError(t, n.CancelHoldInvoice(ctx, hashLock))

	// A canceled hold cannot be settled, even with the right preimage.
	assert.ErrorIs(t, n.SettleHoldInvoice(ctx, preimage), domain.ErrHoldNotFound)
}

func TestSettleUnknownHold(t *testing.T) {
	n := newTestNode(t)

	preimage, _, err := domain.NewPreimage()
	require.NoError(t, err)
	assert.ErrorIs(t, n.SettleHoldInvoice(context.Background(), preimage), domain.ErrHoldNotFound)

	assert.ErrorIs(t, n.CancelHoldInvoice(context.Background(), "deadbeef"), domain.ErrHoldNotFound)
}

func TestCreateHoldInvoiceRequiresHashLock(t *testing.T) {
	n := newTestNode(t)

	_, err := n.CreateHoldInvoice(context.Background(), CreateHoldInvoiceRequest{
		Amount: decimal.NewFromInt(10),
	})
	assert.Error(t, err)
}

func TestParsePaymentRequest(t *testing.T) {
	amount, err := parsePaymentRequest("lnbcrt90.545_invoice_123_0001")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("90.545").Equal(amount))

	_, err = parsePaymentRequest("lnbcrtgarbage")
	assert.Error(t, err)

	_, err = parsePaymentRequest("bolt11")
	assert.Error(t, err)
}
