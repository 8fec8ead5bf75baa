package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is an opaque payable descriptor issued by a node. Hold
// invoices carry the hash-lock they are bound to; plain invoices leave
// it empty.
type Invoice struct {
	ID             string          `json:"id"`
	PaymentRequest string          `json:"request"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	HashLock       string          `json:"hash_lock,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

// PaymentReceipt confirms an outgoing invoice payment.
type PaymentReceipt struct {
	PaymentRequest string          `json:"request"`
	Amount         decimal.Decimal `json:"amount"`
	Fee            decimal.Decimal `json:"fee"`
	Confirmed      bool            `json:"is_confirmed"`
	PaidAt         time.Time       `json:"paid_at"`
}

// NodeInfo is the identity summary a node reports about itself.
type NodeInfo struct {
	PubKey         string `json:"identity_pubkey"`
	Alias          string `json:"alias"`
	Version        string `json:"version"`
	ActiveChannels int    `json:"num_active_channels"`
	Peers          int    `json:"num_peers"`
	BlockHeight    int64  `json:"block_height"`
	SyncedToChain  bool   `json:"synced_to_chain"`
}
