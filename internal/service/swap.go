package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/domain"
	"github.com/ayo6706/hufflepay/internal/gateway"
	"github.com/ayo6706/hufflepay/internal/ledger"
	"github.com/ayo6706/hufflepay/internal/observability"
	"github.com/ayo6706/hufflepay/internal/registry"
)

const (
	defaultSwapDescription = "HufflePay cross-currency swap"
	defaultGatewayTimeout  = 30 * time.Second
)

// SwapService orchestrates the three-party swap: conversion math and
// invoice setup at initiation, then ledger transfers, invoice payment
// and hold settlement at execution, with compensation when the forward
// path breaks partway.
type SwapService struct {
	registry       *registry.Registry
	ledger         *ledger.Ledger
	rates          ExchangeRateService
	edgeNode       gateway.Node
	payeeNode      gateway.Node
	feePercent     decimal.Decimal
	gatewayTimeout time.Duration

	// locks serializes execution per swap ID so a duplicate execute
	// request blocks until the first finishes and then sees a terminal
	// status.
	locks  sync.Map
	logger *zap.Logger
}

// NewSwapService wires the orchestrator. edgeNode is the provider node
// that holds the source payment and pays the payee; payeeNode issues
// the target invoice.
func NewSwapService(reg *registry.Registry, led *ledger.Ledger, rates ExchangeRateService, edgeNode, payeeNode gateway.Node, feePercent decimal.Decimal, logger *zap.Logger) *SwapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapService{
		registry:       reg,
		ledger:         led,
		rates:          rates,
		edgeNode:       edgeNode,
		payeeNode:      payeeNode,
		feePercent:     feePercent,
		gatewayTimeout: defaultGatewayTimeout,
		logger:         logger,
	}
}

// WithGatewayTimeout overrides the per-call deadline applied to node
// operations.
func (s *SwapService) WithGatewayTimeout(d time.Duration) *SwapService {
	if d > 0 {
		s.gatewayTimeout = d
	}
	return s
}

// InitiateSwapRequest is the caller's view of a new swap.
type InitiateSwapRequest struct {
	SourceAmount   decimal.Decimal
	SourceCurrency string
	TargetCurrency string
	Description    string
}

// InitiateSwapResponse carries everything the payer needs to proceed:
// the swap ID, both invoices and the quoted conversion.
type InitiateSwapResponse struct {
	SwapID          string                 `json:"swap_id"`
	SourceInvoice   *domain.Invoice        `json:"source_invoice"`
	TargetInvoice   *domain.Invoice        `json:"target_invoice"`
	ExchangeDetails domain.ExchangeDetails `json:"exchange_details"`
}

// ExecuteResult reports the outcome of an execution attempt. A payment
// failure that compensated cleanly is a valid business outcome, not an
// error: Success is false, Error carries the cause and the swap record
// reflects the failed state with balances restored.
type ExecuteResult struct {
	Success bool         `json:"success"`
	Swap    *domain.Swap `json:"swap"`
	Error   string       `json:"error,omitempty"`
}

// InitiateSwap quotes the conversion, resolves the four ledger entries
// the execution will move funds through, generates the hash-lock pair
// and creates both invoices. No balances change here; a gateway failure
// leaves a failed record and no ledger mutation.
func (s *SwapService) InitiateSwap(ctx context.Context, req InitiateSwapRequest) (*InitiateSwapResponse, error) {
	if !req.SourceAmount.IsPositive() {
		return nil, fmt.Errorf("source amount must be positive, got %s", req.SourceAmount)
	}
	source := domain.NormalizeCurrency(req.SourceCurrency)
	target := domain.NormalizeCurrency(req.TargetCurrency)
	if source == "" || target == "" {
		return nil, errors.New("source and target currency are required")
	}
	description := req.Description
	if description == "" {
		description = defaultSwapDescription
	}

	backendSource := domain.CanonicalCurrency(source)
	backendTarget := domain.CanonicalCurrency(target)

	rate, err := s.resolveRate(ctx, source, target, backendSource, backendTarget)
	if err != nil {
		return nil, err
	}
	details := domain.ComputeExchange(req.SourceAmount, rate, s.feePercent)

	preimage, hashLock, err := domain.NewPreimage()
	if err != nil {
		return nil, fmt.Errorf("generate preimage: %w", err)
	}

	aliceSourceID, err := s.entryID(domain.PartyAlice, source, backendSource)
	if err != nil {
		return nil, err
	}
	edgeSourceID, err := s.entryID(domain.PartyEdge, source, backendSource)
	if err != nil {
		return nil, err
	}
	edgeTargetID, err := s.entryID(domain.PartyEdge, target, backendTarget)
	if err != nil {
		return nil, err
	}
	bobTargetID, err := s.entryID(domain.PartyBob, target, backendTarget)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	swap := &domain.Swap{
		ID:                    newSwapID(),
		SourceAmount:          req.SourceAmount,
		SourceCurrency:        source,
		BackendSourceCurrency: backendSource,
		TargetAmount:          details.FinalAmount,
		TargetCurrency:        target,
		BackendTargetCurrency: backendTarget,
		Description:           description,
		AliceSourceEntryID:    aliceSourceID,
		EdgeSourceEntryID:     edgeSourceID,
		EdgeTargetEntryID:     edgeTargetID,
		BobTargetEntryID:      bobTargetID,
		Preimage:              preimage,
		HashLock:              hashLock,
		ExchangeDetails:       details,
		Status:                domain.SwapStatusInitiated,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	s.registry.Put(swap)

	s.logger.Info("initiating swap",
		zap.String("swap_id", swap.ID),
		zap.String("source", source),
		zap.String("target", target),
		zap.String("amount", req.SourceAmount.String()),
		zap.String("rate", rate.String()))

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	sourceInvoice, err := s.edgeNode.CreateHoldInvoice(gwCtx, gateway.CreateHoldInvoiceRequest{
		Amount:      req.SourceAmount,
		HashLock:    hashLock,
		Description: fmt.Sprintf("HufflePay: hold payment from %s (%s)", domain.PartyAlice, source),
	})
	if err != nil {
		err = fmt.Errorf("create hold invoice: %w", err)
		s.fail(swap, err)
		return nil, err
	}
	targetInvoice, err := s.payeeNode.CreateInvoice(gwCtx, gateway.CreateInvoiceRequest{
		Amount:      details.FinalAmount,
		Description: fmt.Sprintf("HufflePay: payment to %s (%s)", domain.PartyBob, target),
	})
	if err != nil {
		// Hold was already placed; release it so nothing stays locked
		// behind a record that will never execute.
		if cancelErr := s.edgeNode.CancelHoldInvoice(gwCtx, hashLock); cancelErr != nil {
			s.logger.Warn("cancel hold after failed initiation",
				zap.String("swap_id", swap.ID), zap.Error(cancelErr))
		}
		err = fmt.Errorf("create target invoice: %w", err)
		s.fail(swap, err)
		return nil, err
	}

	swap.SourceInvoice = sourceInvoice
	swap.TargetInvoice = targetInvoice
	s.save(swap)

	s.logger.Info("swap initiated",
		zap.String("swap_id", swap.ID),
		zap.String("final_amount", details.FinalAmount.String()))

	return &InitiateSwapResponse{
		SwapID:          swap.ID,
		SourceInvoice:   sourceInvoice,
		TargetInvoice:   targetInvoice,
		ExchangeDetails: details,
	}, nil
}

// swapStep pairs one forward mutation with the transfer that undoes
// it. Compensation replays reverts in the opposite order the runs
// applied.
type swapStep struct {
	name   string
	run    func() error
	revert func() error
}

// ExecuteSwap runs the settlement saga for an initiated swap: move the
// source amount alice to edge, move the converted amount edge to bob,
// pay the target invoice through the edge node, then settle the hold
// with the preimage. Any failure after a ledger mutation rolls the
// applied transfers back and cancels the hold.
func (s *SwapService) ExecuteSwap(ctx context.Context, swapID string) (*ExecuteResult, error) {
	lock := s.lockFor(swapID)
	lock.Lock()
	defer lock.Unlock()

	swap, err := s.registry.Get(swapID)
	if err != nil {
		return nil, err
	}
	if swap.Status != domain.SwapStatusInitiated {
		return nil, fmt.Errorf("%w: swap %s is %s", domain.ErrSwapNotExecutable, swapID, swap.Status)
	}
	if err := transitionSwap(swap, domain.SwapStatusExecuting); err != nil {
		return nil, err
	}
	s.save(swap)

	forward := []swapStep{
		{
			name: "debit payer source",
			run: func() error {
				_, err := s.ledger.Transfer(swap.AliceSourceEntryID, swap.SourceAmount, domain.PartyAlice, domain.PartyEdge)
				return err
			},
			revert: func() error {
				_, err := s.ledger.Transfer(swap.EdgeSourceEntryID, swap.SourceAmount, domain.PartyEdge, domain.PartyAlice)
				return err
			},
		},
		{
			name: "credit payee target",
			run: func() error {
				_, err := s.ledger.Transfer(swap.EdgeTargetEntryID, swap.TargetAmount, domain.PartyEdge, domain.PartyBob)
				return err
			},
			revert: func() error {
				_, err := s.ledger.Transfer(swap.BobTargetEntryID, swap.TargetAmount, domain.PartyBob, domain.PartyEdge)
				return err
			},
		},
	}

	applied := make([]swapStep, 0, len(forward))
	for _, step := range forward {
		if err := step.run(); err != nil {
			stepErr := fmt.Errorf("%s: %w", step.name, err)
			s.logger.Error("swap step failed",
				zap.String("swap_id", swap.ID),
				zap.String("step", step.name),
				zap.Error(err))
			if compErr := s.compensate(ctx, swap, applied); compErr != nil {
				return nil, s.failCompensation(swap, stepErr, compErr)
			}
			s.fail(swap, stepErr)
			observability.IncrementSwapOutcome("failed")
			return nil, stepErr
		}
		applied = append(applied, step)
	}

	payCtx, cancelPay := context.WithTimeout(ctx, s.gatewayTimeout)
	receipt, payErr := s.edgeNode.PayInvoice(payCtx, swap.TargetInvoice.PaymentRequest)
	cancelPay()
	if payErr != nil {
		return s.failPayment(ctx, swap, applied, fmt.Errorf("pay target invoice: %w", payErr))
	}

	settleCtx, cancelSettle := context.WithTimeout(ctx, s.gatewayTimeout)
	settleErr := s.edgeNode.SettleHoldInvoice(settleCtx, swap.Preimage)
	cancelSettle()
	if settleErr != nil {
		return s.failPayment(ctx, swap, applied, fmt.Errorf("settle hold invoice: %w", settleErr))
	}

	now := time.Now().UTC()
	swap.CompletedAt = &now
	if err := transitionSwap(swap, domain.SwapStatusCompleted); err != nil {
		return nil, err
	}
	s.save(swap)
	observability.IncrementSwapOutcome("completed")

	s.logger.Info("swap completed",
		zap.String("swap_id", swap.ID),
		zap.String("paid_amount", receipt.Amount.String()),
		zap.String("target_currency", swap.TargetCurrency))

	return &ExecuteResult{Success: true, Swap: swap.Clone()}, nil
}

// GetSwap returns the swap record for id.
func (s *SwapService) GetSwap(id string) (*domain.Swap, error) {
	return s.registry.Get(id)
}

// ListSwaps returns every swap ordered by creation time, oldest first.
func (s *SwapService) ListSwaps() []*domain.Swap {
	swaps := s.registry.List()
	sort.Slice(swaps, func(i, j int) bool {
		return swaps[i].CreatedAt.Before(swaps[j].CreatedAt)
	})
	return swaps
}

// failPayment handles a gateway failure after all forward transfers
// applied. Clean compensation yields a structured failure result; a
// compensation failure escalates to ErrCompensationFailed.
func (s *SwapService) failPayment(ctx context.Context, swap *domain.Swap, applied []swapStep, cause error) (*ExecuteResult, error) {
	s.logger.Warn("swap payment failed, compensating",
		zap.String("swap_id", swap.ID), zap.Error(cause))
	if compErr := s.compensate(ctx, swap, applied); compErr != nil {
		return nil, s.failCompensation(swap, cause, compErr)
	}
	s.fail(swap, cause)
	observability.IncrementSwapOutcome("failed")
	return &ExecuteResult{Success: false, Swap: swap.Clone(), Error: cause.Error()}, nil
}

// failCompensation records a swap whose rollback itself broke. The
// record keeps both causes; balances may be inconsistent until the
// reconciliation pass flags them.
func (s *SwapService) failCompensation(swap *domain.Swap, cause, compErr error) error {
	s.fail(swap, fmt.Errorf("%v; compensation: %v", cause, compErr))
	observability.IncrementSwapOutcome("compensation_failed")
	s.logger.Error("swap compensation failed",
		zap.String("swap_id", swap.ID),
		zap.NamedError("cause", cause),
		zap.NamedError("compensation", compErr))
	return fmt.Errorf("%w: %v (after %v)", domain.ErrCompensationFailed, compErr, cause)
}

// compensate reverses the applied forward steps newest first, then
// releases the hold so the payer's escrowed funds return.
func (s *SwapService) compensate(ctx context.Context, swap *domain.Swap, applied []swapStep) error {
	for i := len(applied) - 1; i >= 0; i-- {
		step := applied[i]
		if err := step.revert(); err != nil {
			observability.IncrementCompensation("failed")
			return fmt.Errorf("reverse %s: %w", step.name, err)
		}
		s.logger.Info("swap step reversed",
			zap.String("swap_id", swap.ID), zap.String("step", step.name))
	}

	cancelCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	if err := s.edgeNode.CancelHoldInvoice(cancelCtx, swap.HashLock); err != nil {
		observability.IncrementCompensation("failed")
		return fmt.Errorf("cancel hold: %w", err)
	}
	observability.IncrementCompensation("success")
	return nil
}

func (s *SwapService) fail(swap *domain.Swap, cause error) {
	swap.Error = cause.Error()
	if err := transitionSwap(swap, domain.SwapStatusFailed); err != nil {
		s.logger.Error("mark swap failed", zap.String("swap_id", swap.ID), zap.Error(err))
		return
	}
	s.save(swap)
}

func (s *SwapService) save(swap *domain.Swap) {
	swap.UpdatedAt = time.Now().UTC()
	s.registry.Put(swap)
}

func (s *SwapService) lockFor(id string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// resolveRate tries the display currency pair first, then the backend
// pair, so USDT->EURC and USD->EUR both hit the table.
func (s *SwapService) resolveRate(ctx context.Context, source, target, backendSource, backendTarget string) (decimal.Decimal, error) {
	rate, err := s.rates.GetExchangeRate(ctx, source, target)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, domain.ErrRateNotFound) {
		return decimal.Zero, err
	}
	rate, err = s.rates.GetExchangeRate(ctx, backendSource, backendTarget)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, domain.ErrRateNotFound) {
		return decimal.Zero, err
	}
	return decimal.Zero, fmt.Errorf("%w: %s-%s", domain.ErrRateNotFound, source, target)
}

// entryID resolves the balance entry a party holds for a currency,
// matching the display code first and the backend code as a fallback.
func (s *SwapService) entryID(party domain.Party, display, backend string) (string, error) {
	entries, err := s.ledger.Balances(party)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Name == display {
			return e.ID, nil
		}
	}
	for _, e := range entries {
		if e.Name == backend {
			return e.ID, nil
		}
	}
	return "", &domain.AssetNotFoundError{Party: party, Currency: display}
}

func newSwapID() string {
	return "swap_" + ulid.Make().String()
}
