package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEntry is a single named fungible balance held by a party.
// Entries are addressed by identifier and never merged by name: minting
// the same asset twice yields two distinct entries.
type BalanceEntry struct {
	ID        string          `json:"id"`
	Owner     Party           `json:"owner"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransferRecord describes one completed ledger transfer.
type TransferRecord struct {
	ID        string          `json:"id"`
	EntryID   string          `json:"entry_id"`
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	FromParty Party           `json:"from_party"`
	ToParty   Party           `json:"to_party"`
	Timestamp time.Time       `json:"timestamp"`
}
