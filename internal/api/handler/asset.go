package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/hufflepay/internal/service"
)

type AssetHandler struct {
	svc *service.AssetService
}

func NewAssetHandler(svc *service.AssetService) *AssetHandler {
	return &AssetHandler{svc: svc}
}

type mintAssetRequest struct {
	Party  string          `json:"party"`
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// MintAsset creates a new balance entry for a party.
func (h *AssetHandler) MintAsset(w http.ResponseWriter, r *http.Request) {
	var req mintAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		RespondError(w, r, http.StatusBadRequest, "assets/invalid-amount", "amount must be positive")
		return
	}

	entry, err := h.svc.MintAsset(req.Party, req.Asset, req.Amount)
	if err != nil {
		if status, problemType, message, ok := mapDomainError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "assets/mint-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusCreated, entry)
}

// GetAssets returns a party's balance entries.
func (h *AssetHandler) GetAssets(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.GetAssets(chi.URLParam(r, "party"))
	if err != nil {
		if status, problemType, message, ok := mapDomainError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "assets/lookup-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"assets": entries,
		"count":  len(entries),
	})
}

type transferAssetRequest struct {
	EntryID string          `json:"entry_id"`
	Amount  decimal.Decimal `json:"amount"`
	From    string          `json:"from"`
	To      string          `json:"to"`
}

// TransferAsset moves funds between parties outside a swap.
func (h *AssetHandler) TransferAsset(w http.ResponseWriter, r *http.Request) {
	var req transferAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.EntryID == "" {
		RespondError(w, r, http.StatusBadRequest, "assets/missing-entry", "entry_id is required")
		return
	}

	record, err := h.svc.TransferAsset(req.EntryID, req.Amount, req.From, req.To)
	if err != nil {
		if status, problemType, message, ok := mapDomainError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "assets/transfer-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusCreated, record)
}

// Initialize provisions the default balances for a fresh deployment.
func (h *AssetHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.InitializeDefaults(); err != nil {
		RespondError(w, r, http.StatusInternalServerError, "assets/init-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "initialized"})
}
