package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapStatus is the lifecycle phase of a swap. Statuses are monotonic;
// Completed and Failed are terminal and the record becomes immutable.
type SwapStatus string

const (
	SwapStatusInitiated SwapStatus = "initiated"
	SwapStatusExecuting SwapStatus = "executing"
	SwapStatusCompleted SwapStatus = "completed"
	SwapStatusFailed    SwapStatus = "failed"
)

// Swap is the full record of one cross-currency swap. Created at
// initiation, mutated only by the orchestrator, never deleted.
type Swap struct {
	ID string `json:"id"`

	SourceAmount          decimal.Decimal `json:"source_amount"`
	SourceCurrency        string          `json:"source_currency"`
	BackendSourceCurrency string          `json:"backend_source_currency"`
	TargetAmount          decimal.Decimal `json:"target_amount"`
	TargetCurrency        string          `json:"target_currency"`
	BackendTargetCurrency string          `json:"backend_target_currency"`

	Description string `json:"description,omitempty"`

	// Balance entry identifiers resolved at initiation, before any
	// state mutation. Forward transfers debit the alice source and edge
	// target entries; compensation debits the bob target and edge
	// source entries.
	AliceSourceEntryID string `json:"alice_source_entry_id"`
	EdgeSourceEntryID  string `json:"edge_source_entry_id"`
	EdgeTargetEntryID  string `json:"edge_target_entry_id"`
	BobTargetEntryID   string `json:"bob_target_entry_id"`

	Preimage string `json:"preimage"`
	HashLock string `json:"hash_lock"`

	SourceInvoice *Invoice `json:"source_invoice,omitempty"`
	TargetInvoice *Invoice `json:"target_invoice,omitempty"`

	ExchangeDetails ExchangeDetails `json:"exchange_details"`

	Status      SwapStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the swap reached an immutable state.
func (s *Swap) Terminal() bool {
	return s.Status == SwapStatusCompleted || s.Status == SwapStatusFailed
}

// Clone returns a copy safe to hand outside the registry.
func (s *Swap) Clone() *Swap {
	out := *s
	if s.SourceInvoice != nil {
		inv := *s.SourceInvoice
		out.SourceInvoice = &inv
	}
	if s.TargetInvoice != nil {
		inv := *s.TargetInvoice
		out.TargetInvoice = &inv
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
