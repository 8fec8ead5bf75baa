package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the ledger, gateway and orchestrator.
// Validation and not-found errors surface to callers with no side
// effects; ErrCompensationFailed marks ledger state that needs manual
// reconciliation.
var (
	ErrUnknownParty        = errors.New("unknown party")
	ErrEntryNotFound       = errors.New("balance entry not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRateNotFound        = errors.New("exchange rate not found")
	ErrAssetNotFound       = errors.New("asset not found")
	ErrSwapNotFound        = errors.New("swap not found")
	ErrSwapNotExecutable   = errors.New("swap is not executable")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrHoldNotFound        = errors.New("hold invoice not found")
	ErrHoldAlreadySettled  = errors.New("hold invoice already settled")
	ErrCompensationFailed  = errors.New("compensation failed, manual reconciliation required")
)

// AssetNotFoundError names the party and currency a balance lookup
// failed for, before any swap state was mutated.
type AssetNotFoundError struct {
	Party    Party
	Currency string
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("%s asset not found in %s wallet", e.Currency, e.Party)
}

func (e *AssetNotFoundError) Is(target error) bool {
	return target == ErrAssetNotFound
}
