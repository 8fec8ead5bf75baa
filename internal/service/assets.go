package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/domain"
	"github.com/ayo6706/hufflepay/internal/ledger"
)

// AssetService is the admin surface over the ledger: minting, balance
// reads, direct transfers and first-boot provisioning. It accepts party
// names as strings so handlers pass request input straight through.
type AssetService struct {
	ledger *ledger.Ledger
	logger *zap.Logger
}

func NewAssetService(led *ledger.Ledger, logger *zap.Logger) *AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetService{ledger: led, logger: logger}
}

// MintAsset creates a new balance entry for the named party.
func (s *AssetService) MintAsset(party, assetName string, amount decimal.Decimal) (domain.BalanceEntry, error) {
	p, err := domain.ParseParty(party)
	if err != nil {
		return domain.BalanceEntry{}, err
	}
	return s.ledger.Mint(p, assetName, amount)
}

// GetAssets returns the party's balance entries.
func (s *AssetService) GetAssets(party string) ([]domain.BalanceEntry, error) {
	p, err := domain.ParseParty(party)
	if err != nil {
		return nil, err
	}
	return s.ledger.Balances(p)
}

// TransferAsset moves amount off the given entry between two parties.
func (s *AssetService) TransferAsset(entryID string, amount decimal.Decimal, from, to string) (domain.TransferRecord, error) {
	fromParty, err := domain.ParseParty(from)
	if err != nil {
		return domain.TransferRecord{}, err
	}
	toParty, err := domain.ParseParty(to)
	if err != nil {
		return domain.TransferRecord{}, err
	}
	return s.ledger.Transfer(entryID, amount, fromParty, toParty)
}

// InitializeDefaults provisions starting balances for a fresh ledger:
// the edge node's liquidity pool plus a source balance for alice and a
// target balance for bob. Parties that already hold entries are left
// untouched, so restarts on an existing snapshot do not double-mint.
func (s *AssetService) InitializeDefaults() error {
	seeded := false

	empty, err := s.partyEmpty(domain.PartyAlice)
	if err != nil {
		return err
	}
	if empty {
		if _, err := s.ledger.Mint(domain.PartyAlice, "USD", decimal.NewFromInt(10000)); err != nil {
			return fmt.Errorf("seed alice: %w", err)
		}
		seeded = true
	}

	empty, err = s.partyEmpty(domain.PartyBob)
	if err != nil {
		return err
	}
	if empty {
		if _, err := s.ledger.Mint(domain.PartyBob, "EUR", decimal.NewFromInt(10000)); err != nil {
			return fmt.Errorf("seed bob: %w", err)
		}
		seeded = true
	}

	empty, err = s.partyEmpty(domain.PartyEdge)
	if err != nil {
		return err
	}
	if empty {
		if err := s.ledger.SeedDefaults(); err != nil {
			return err
		}
		seeded = true
	}

	if seeded {
		s.logger.Info("default balances initialized")
	}
	return nil
}

func (s *AssetService) partyEmpty(party domain.Party) (bool, error) {
	entries, err := s.ledger.Balances(party)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
