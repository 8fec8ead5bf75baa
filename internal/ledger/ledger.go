package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ayo6706/hufflepay/internal/domain"
	"github.com/ayo6706/hufflepay/internal/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger holds per-party named fungible balances and applies mints and
// transfers atomically. It is the single shared mutable resource of the
// swap engine: all balance reads and writes go through one mutex, which
// makes transfers on the same entry linearizable across concurrent
// callers.
type Ledger struct {
	mu       sync.Mutex
	balances map[domain.Party]map[string]*domain.BalanceEntry
	minted   map[string]decimal.Decimal
	version  uint64

	store SnapshotStore

	// persistMu serializes snapshot writes outside the balance mutex so
	// file I/O never blocks concurrent transfers.
	persistMu   sync.Mutex
	lastWritten uint64

	logger *zap.Logger
}

// New creates an empty ledger for the fixed party set.
func New(store SnapshotStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	balances := make(map[domain.Party]map[string]*domain.BalanceEntry, len(domain.Parties()))
	for _, p := range domain.Parties() {
		balances[p] = make(map[string]*domain.BalanceEntry)
	}
	return &Ledger{
		balances: balances,
		minted:   make(map[string]decimal.Decimal),
		store:    store,
		logger:   logger,
	}
}

// Load restores state from the snapshot store. A missing snapshot
// leaves the ledger empty and returns ErrNoSnapshot so the caller can
// seed defaults.
func (l *Ledger) Load() error {
	if l.store == nil {
		return ErrNoSnapshot
	}
	snap, err := l.store.Load()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range domain.Parties() {
		l.balances[p] = make(map[string]*domain.BalanceEntry)
		for id, entry := range snap.Balances[p] {
			e := entry
			e.Owner = p
			l.balances[p][id] = &e
		}
	}
	l.minted = make(map[string]decimal.Decimal, len(snap.Minted))
	for name, total := range snap.Minted {
		l.minted[name] = total
	}
	return nil
}

// Mint creates a new balance entry for the party. Entries are never
// merged by name: repeated mints of the same asset stay distinct and
// are addressed by identifier only.
func (l *Ledger) Mint(party domain.Party, assetName string, amount decimal.Decimal) (domain.BalanceEntry, error) {
	if !amount.IsPositive() {
		return domain.BalanceEntry{}, fmt.Errorf("mint amount must be positive, got %s", amount)
	}
	assetName = domain.NormalizeCurrency(assetName)
	if assetName == "" {
		return domain.BalanceEntry{}, fmt.Errorf("asset name is required")
	}

	l.mu.Lock()
	holdings, ok := l.balances[party]
	if !ok {
		l.mu.Unlock()
		return domain.BalanceEntry{}, fmt.Errorf("%w: %q", domain.ErrUnknownParty, party)
	}

	entry := &domain.BalanceEntry{
		ID:        uuid.NewString(),
		Owner:     party,
		Name:      assetName,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	holdings[entry.ID] = entry
	l.minted[assetName] = l.minted[assetName].Add(amount)
	snap, version := l.snapshotLocked()
	out := *entry
	l.mu.Unlock()

	l.persist(snap, version)
	l.logger.Info("minted asset",
		zap.String("party", string(party)),
		zap.String("asset", assetName),
		zap.String("amount", amount.String()),
		zap.String("entry_id", out.ID),
	)
	return out, nil
}

// Balances returns copies of the party's entries, oldest first.
func (l *Ledger) Balances(party domain.Party) ([]domain.BalanceEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings, ok := l.balances[party]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownParty, party)
	}
	out := make([]domain.BalanceEntry, 0, len(holdings))
	for _, entry := range holdings {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Transfer moves amount from the identified entry of one party to the
// other. The destination receives the amount on an entry with the same
// identifier, created if absent. The whole read-check-write is a single
// critical section; a failed transfer leaves both sides untouched.
func (l *Ledger) Transfer(entryID string, amount decimal.Decimal, from, to domain.Party) (domain.TransferRecord, error) {
	if !amount.IsPositive() {
		return domain.TransferRecord{}, fmt.Errorf("transfer amount must be positive, got %s", amount)
	}

	l.mu.Lock()
	source, ok := l.balances[from]
	if !ok {
		l.mu.Unlock()
		return domain.TransferRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownParty, from)
	}
	target, ok := l.balances[to]
	if !ok {
		l.mu.Unlock()
		return domain.TransferRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownParty, to)
	}

	entry, ok := source[entryID]
	if !ok {
		l.mu.Unlock()
		return domain.TransferRecord{}, fmt.Errorf("%w: entry %s not held by %s", domain.ErrEntryNotFound, entryID, from)
	}
	if entry.Amount.LessThan(amount) {
		l.mu.Unlock()
		return domain.TransferRecord{}, fmt.Errorf("%w: %s < %s", domain.ErrInsufficientBalance, entry.Amount, amount)
	}

	entry.Amount = entry.Amount.Sub(amount)
	if dest, ok := target[entryID]; ok {
		dest.Amount = dest.Amount.Add(amount)
	} else {
		target[entryID] = &domain.BalanceEntry{
			ID:        entryID,
			Owner:     to,
			Name:      entry.Name,
			Amount:    amount,
			CreatedAt: time.Now().UTC(),
		}
	}

	record := domain.TransferRecord{
		ID:        uuid.NewString(),
		EntryID:   entryID,
		Asset:     entry.Name,
		Amount:    amount,
		FromParty: from,
		ToParty:   to,
		Timestamp: time.Now().UTC(),
	}
	snap, version := l.snapshotLocked()
	l.mu.Unlock()

	l.persist(snap, version)
	l.logger.Info("transferred asset",
		zap.String("asset", record.Asset),
		zap.String("amount", amount.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return record, nil
}

// TotalsByAsset sums current balances per asset name across all parties.
func (l *Ledger) TotalsByAsset() map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	totals := make(map[string]decimal.Decimal)
	for _, holdings := range l.balances {
		for _, entry := range holdings {
			totals[entry.Name] = totals[entry.Name].Add(entry.Amount)
		}
	}
	return totals
}

// MintedTotals returns the cumulative minted amount per asset name.
// Transfers never change these, so they double as the conservation
// baseline the reconciliation service checks against.
func (l *Ledger) MintedTotals() map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]decimal.Decimal, len(l.minted))
	for name, total := range l.minted {
		out[name] = total
	}
	return out
}

// SeedDefaults provisions the edge node's default liquidity the way a
// fresh deployment expects it: 10000 USD, 9000 EUR and 1 BTC.
func (l *Ledger) SeedDefaults() error {
	defaults := []struct {
		asset  string
		amount decimal.Decimal
	}{
		{"USD", decimal.NewFromInt(10000)},
		{"EUR", decimal.NewFromInt(9000)},
		{"BTC", decimal.NewFromInt(1)},
	}
	for _, d := range defaults {
		if _, err := l.Mint(domain.PartyEdge, d.asset, d.amount); err != nil {
			return fmt.Errorf("seed %s: %w", d.asset, err)
		}
	}
	return nil
}

// snapshotLocked builds a deep copy of the current state. Callers must
// hold l.mu.
func (l *Ledger) snapshotLocked() (*Snapshot, uint64) {
	l.version++
	snap := &Snapshot{
		Balances: make(map[domain.Party]map[string]domain.BalanceEntry, len(l.balances)),
		Minted:   make(map[string]decimal.Decimal, len(l.minted)),
		SavedAt:  time.Now().UTC(),
	}
	for party, holdings := range l.balances {
		entries := make(map[string]domain.BalanceEntry, len(holdings))
		for id, entry := range holdings {
			entries[id] = *entry
		}
		snap.Balances[party] = entries
	}
	for name, total := range l.minted {
		snap.Minted[name] = total
	}
	return snap, l.version
}

// persist writes a snapshot unless a newer one has already been
// written. Snapshot failures are logged, not surfaced: the in-memory
// mutation has already been applied and durability is best-effort.
func (l *Ledger) persist(snap *Snapshot, version uint64) {
	if l.store == nil {
		return
	}
	l.persistMu.Lock()
	defer l.persistMu.Unlock()
	if version <= l.lastWritten {
		return
	}
	if err := l.store.Save(snap); err != nil {
		observability.IncrementSnapshotFailure()
		l.logger.Warn("ledger snapshot write failed", zap.Error(err))
		return
	}
	l.lastWritten = version
}
