package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ayo6706/hufflepay/internal/domain"
	"github.com/ayo6706/hufflepay/internal/observability"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultInvoiceExpiry = 3600 // seconds

// Simulated is an in-process Node implementation. It keeps a real hold
// table keyed by hash-lock and verifies preimages on settlement, but
// settles "payments" instantly instead of touching a settlement layer.
//
// FailureRate injects payment failures (0.0 to 1.0) and Latency delays
// every call, both for exercising the orchestrator's compensation and
// timeout paths.
type Simulated struct {
	name string
	host string

	FailureRate float64
	Latency     time.Duration

	mu    sync.Mutex
	holds map[string]*hold

	logger *zap.Logger
}

type hold struct {
	invoice  domain.Invoice
	settled  bool
	canceled bool
}

// NewSimulated connects a simulated node. The host is identity metadata
// only; no network connection is made.
func NewSimulated(name, host string, logger *zap.Logger) *Simulated {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulated{
		name:   name,
		host:   host,
		holds:  make(map[string]*hold),
		logger: logger.With(zap.String("node", name)),
	}
}

func (n *Simulated) Name() string { return n.name }

func (n *Simulated) GetInfo(ctx context.Context) (domain.NodeInfo, error) {
	if err := n.wait(ctx); err != nil {
		return domain.NodeInfo{}, err
	}
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, n.host)
	return domain.NodeInfo{
		PubKey:         "sim_pubkey_" + sanitized,
		Alias:          fmt.Sprintf("%s@%s", n.name, n.host),
		Version:        "0.17.0-beta",
		ActiveChannels: 2,
		Peers:          3,
		BlockHeight:    101,
		SyncedToChain:  true,
	}, nil
}

func (n *Simulated) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*domain.Invoice, error) {
	start := time.Now()
	if err := n.wait(ctx); err != nil {
		observability.ObserveGatewayCall(n.name, "create_invoice", "canceled", time.Since(start))
		return nil, err
	}
	inv := n.newInvoice(req.Amount, req.Description, req.ExpirySeconds)
	observability.ObserveGatewayCall(n.name, "create_invoice", "ok", time.Since(start))
	n.logger.Info("created invoice", zap.String("amount", req.Amount.String()), zap.String("request", inv.PaymentRequest))
	return &inv, nil
}

func (n *Simulated) CreateHoldInvoice(ctx context.Context, req CreateHoldInvoiceRequest) (*domain.Invoice, error) {
	start := time.Now()
	if err := n.wait(ctx); err != nil {
		observability.ObserveGatewayCall(n.name, "create_hold_invoice", "canceled", time.Since(start))
		return nil, err
	}
	if req.HashLock == "" {
		return nil, fmt.Errorf("hold invoice requires a hash lock")
	}
	inv := n.newInvoice(req.Amount, req.Description, req.ExpirySeconds)
	inv.ID = req.HashLock
	inv.HashLock = req.HashLock

	n.mu.Lock()
	n.holds[req.HashLock] = &hold{invoice: inv}
	n.mu.Unlock()

	observability.ObserveGatewayCall(n.name, "create_hold_invoice", "ok", time.Since(start))
	n.logger.Info("created hold invoice", zap.String("amount", req.Amount.String()), zap.String("hash_lock", req.HashLock))
	return &inv, nil
}

func (n *Simulated) PayInvoice(ctx context.Context, paymentRequest string) (*domain.PaymentReceipt, error) {
	start := time.Now()
	if err := n.wait(ctx); err != nil {
		observability.ObserveGatewayCall(n.name, "pay_invoice", "canceled", time.Since(start))
		return nil, err
	}

	amount, err := parsePaymentRequest(paymentRequest)
	if err != nil {
		observability.ObserveGatewayCall(n.name, "pay_invoice", "failed", time.Since(start))
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	if rand.Float64() < n.FailureRate {
		observability.ObserveGatewayCall(n.name, "pay_invoice", "failed", time.Since(start))
		return nil, fmt.Errorf("%w: recipient temporarily unavailable", domain.ErrPaymentFailed)
	}

	receipt := &domain.PaymentReceipt{
		PaymentRequest: paymentRequest,
		Amount:         amount,
		Fee:            decimal.NewFromInt(int64(rand.Intn(100))).Div(decimal.NewFromInt(1000)),
		Confirmed:      true,
		PaidAt:         time.Now().UTC(),
	}
	observability.ObserveGatewayCall(n.name, "pay_invoice", "ok", time.Since(start))
	n.logger.Info("paid invoice", zap.String("amount", amount.String()))
	return receipt, nil
}

func (n *Simulated) SettleHoldInvoice(ctx context.Context, preimage string) error {
	start := time.Now()
	if err := n.wait(ctx); err != nil {
		observability.ObserveGatewayCall(n.name, "settle_hold", "canceled", time.Since(start))
		return err
	}

	hashLock, err := domain.HashLockFor(preimage)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrHoldNotFound, err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	h, ok := n.holds[hashLock]
	if !ok || h.canceled {
		observability.ObserveGatewayCall(n.name, "settle_hold", "failed", time.Since(start))
		return fmt.Errorf("%w: hash lock %s", domain.ErrHoldNotFound, hashLock)
	}
	if h.settled {
		observability.ObserveGatewayCall(n.name, "settle_hold", "failed", time.Since(start))
		return fmt.Errorf("%w: hash lock %s", domain.ErrHoldAlreadySettled, hashLock)
	}
	h.settled = true
	observability.ObserveGatewayCall(n.name, "settle_hold", "ok", time.Since(start))
	n.logger.Info("settled hold invoice", zap.String("hash_lock", hashLock))
	return nil
}

func (n *Simulated) CancelHoldInvoice(ctx context.Context, hashLock string) error {
	start := time.Now()
	if err := n.wait(ctx); err != nil {
		observability.ObserveGatewayCall(n.name, "cancel_hold", "canceled", time.Since(start))
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	h, ok := n.holds[hashLock]
	if !ok {
		observability.ObserveGatewayCall(n.name, "cancel_hold", "failed", time.Since(start))
		return fmt.Errorf("%w: hash lock %s", domain.ErrHoldNotFound, hashLock)
	}
	if h.settled {
		observability.ObserveGatewayCall(n.name, "cancel_hold", "failed", time.Since(start))
		return fmt.Errorf("%w: hash lock %s", domain.ErrHoldAlreadySettled, hashLock)
	}
	h.canceled = true
	observability.ObserveGatewayCall(n.name, "cancel_hold", "ok", time.Since(start))
	n.logger.Info("canceled hold invoice", zap.String("hash_lock", hashLock))
	return nil
}

// HoldState reports the lifecycle flags of a hold, for tests and
// operator introspection.
func (n *Simulated) HoldState(hashLock string) (settled, canceled, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	h, found := n.holds[hashLock]
	if !found {
		return false, false, false
	}
	return h.settled, h.canceled, true
}

func (n *Simulated) newInvoice(amount decimal.Decimal, description string, expirySeconds int) domain.Invoice {
	if expirySeconds <= 0 {
		expirySeconds = defaultInvoiceExpiry
	}
	id := fmt.Sprintf("invoice_%d_%04d", time.Now().UnixMilli(), rand.Intn(10000))
	now := time.Now().UTC()
	return domain.Invoice{
		ID:             id,
		PaymentRequest: fmt.Sprintf("lnbcrt%s_%s", amount.String(), id),
		Amount:         amount,
		Description:    description,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Duration(expirySeconds) * time.Second),
	}
}

// wait simulates network latency while honoring cancellation.
func (n *Simulated) wait(ctx context.Context) error {
	if n.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(n.Latency):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gateway call canceled: %w", ctx.Err())
	}
}

func parsePaymentRequest(request string) (decimal.Decimal, error) {
	if !strings.HasPrefix(request, "lnbcrt") {
		return decimal.Zero, fmt.Errorf("unrecognized payment request %q", request)
	}
	body := strings.TrimPrefix(request, "lnbcrt")
	amountStr, _, found := strings.Cut(body, "_")
	if !found {
		return decimal.Zero, fmt.Errorf("malformed payment request %q", request)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed amount in payment request %q", request)
	}
	return amount, nil
}
