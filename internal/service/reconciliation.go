package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/ledger"
	"github.com/ayo6706/hufflepay/internal/observability"
)

// ReconciliationService audits conservation: for every asset, the sum
// of balances across all parties must equal the total ever minted.
// Divergence means a transfer path lost or duplicated funds.
type ReconciliationService struct {
	ledger *ledger.Ledger
	logger *zap.Logger
}

func NewReconciliationService(led *ledger.Ledger, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{ledger: led, logger: logger}
}

// Reconcile compares held totals against minted totals and returns the
// names of diverged assets. Each divergence is logged and counted; the
// run itself only errors on context cancellation.
func (s *ReconciliationService) Reconcile(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	held := s.ledger.TotalsByAsset()
	minted := s.ledger.MintedTotals()

	var diverged []string
	for asset, mintedTotal := range minted {
		heldTotal := held[asset]
		if heldTotal.Equal(mintedTotal) {
			continue
		}
		diverged = append(diverged, asset)
		observability.IncrementLedgerImbalance(asset)
		s.logger.Error("ledger imbalance detected",
			zap.String("asset", asset),
			zap.String("minted", mintedTotal.String()),
			zap.String("held", heldTotal.String()),
			zap.String("difference", heldTotal.Sub(mintedTotal).String()))
	}
	for asset, heldTotal := range held {
		if _, ok := minted[asset]; ok {
			continue
		}
		// Held but never minted: funds appeared out of nowhere.
		diverged = append(diverged, asset)
		observability.IncrementLedgerImbalance(asset)
		s.logger.Error("ledger imbalance detected",
			zap.String("asset", asset),
			zap.String("minted", "0"),
			zap.String("held", heldTotal.String()))
	}

	if len(diverged) == 0 {
		s.logger.Debug("ledger reconciled", zap.Int("assets", len(minted)))
	}
	return diverged, nil
}
