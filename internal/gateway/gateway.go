package gateway

import (
	"context"

	"github.com/ayo6706/hufflepay/internal/domain"
	"github.com/shopspring/decimal"
)

// Node is the escrow gateway contract for a single payment node. The
// orchestrator holds one Node per party and relies on this surface
// only: the hold lifecycle (create, settle, cancel), one-shot invoice
// payment, and node introspection.
type Node interface {
	// Name identifies the node ("alice", "bob", "edge").
	Name() string

	// GetInfo returns the node's identity summary.
	GetInfo(ctx context.Context) (domain.NodeInfo, error)

	// CreateInvoice issues a plain payable descriptor.
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*domain.Invoice, error)

	// CreateHoldInvoice issues a descriptor bound to a hash-lock. Funds
	// paid into it stay held until settled with the matching preimage
	// or canceled.
	CreateHoldInvoice(ctx context.Context, req CreateHoldInvoiceRequest) (*domain.Invoice, error)

	// PayInvoice pays a descriptor issued by another node. Failure to
	// reach or satisfy the payee surfaces as domain.ErrPaymentFailed.
	PayInvoice(ctx context.Context, paymentRequest string) (*domain.PaymentReceipt, error)

	// SettleHoldInvoice releases a held payment by presenting the
	// preimage whose digest is the hold's hash-lock.
	SettleHoldInvoice(ctx context.Context, preimage string) error

	// CancelHoldInvoice returns held funds to the payer.
	CancelHoldInvoice(ctx context.Context, hashLock string) error
}

// CreateInvoiceRequest carries the parameters for a plain invoice.
type CreateInvoiceRequest struct {
	Amount        decimal.Decimal
	Description   string
	ExpirySeconds int
}

// CreateHoldInvoiceRequest carries the parameters for a hash-locked
// hold invoice.
type CreateHoldInvoiceRequest struct {
	Amount        decimal.Decimal
	HashLock      string
	Description   string
	ExpirySeconds int
}
