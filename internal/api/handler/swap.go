package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/hufflepay/internal/domain"
	"github.com/ayo6706/hufflepay/internal/service"
)

type SwapHandler struct {
	svc *service.SwapService
}

func NewSwapHandler(svc *service.SwapService) *SwapHandler {
	return &SwapHandler{svc: svc}
}

type initiateSwapRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	SourceCurrency string          `json:"source_currency"`
	TargetCurrency string          `json:"target_currency"`
	Description    string          `json:"description"`
}

// InitiateSwap quotes and registers a new swap.
func (h *SwapHandler) InitiateSwap(w http.ResponseWriter, r *http.Request) {
	var req initiateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		RespondError(w, r, http.StatusBadRequest, "swap/invalid-amount", "amount must be positive")
		return
	}
	if req.SourceCurrency == "" || req.TargetCurrency == "" {
		RespondError(w, r, http.StatusBadRequest, "swap/missing-currency", "source_currency and target_currency are required")
		return
	}

	resp, err := h.svc.InitiateSwap(r.Context(), service.InitiateSwapRequest{
		SourceAmount:   req.Amount,
		SourceCurrency: req.SourceCurrency,
		TargetCurrency: req.TargetCurrency,
		Description:    req.Description,
	})
	if err != nil {
		if status, problemType, message, ok := mapDomainError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "swap/initiation-failed", "swap initiation failed: "+err.Error())
		return
	}

	RespondJSON(w, http.StatusCreated, resp)
}

// ExecuteSwap runs the settlement saga for an initiated swap. A payment
// failure that compensated cleanly returns 200 with success=false; a
// broken compensation returns 500 so operators notice.
func (h *SwapHandler) ExecuteSwap(w http.ResponseWriter, r *http.Request) {
	swapID := chi.URLParam(r, "id")

	result, err := h.svc.ExecuteSwap(r.Context(), swapID)
	if err != nil {
		if errors.Is(err, domain.ErrCompensationFailed) {
			RespondError(w, r, http.StatusInternalServerError, "swap/compensation-failed", err.Error())
			return
		}
		if status, problemType, message, ok := mapDomainError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "swap/execution-failed", "swap execution failed: "+err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// GetSwap returns one swap record.
func (h *SwapHandler) GetSwap(w http.ResponseWriter, r *http.Request) {
	swap, err := h.svc.GetSwap(chi.URLParam(r, "id"))
	if err != nil {
		if status, problemType, message, ok := mapDomainError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "swap/lookup-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, swap)
}

// ListSwaps returns every swap, oldest first.
func (h *SwapHandler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	swaps := h.svc.ListSwaps()
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"swaps": swaps,
		"count": len(swaps),
	})
}
