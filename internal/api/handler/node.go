package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ayo6706/hufflepay/internal/gateway"
)

// NodeHandler exposes read and invoice operations on the payment nodes.
type NodeHandler struct {
	nodes map[string]gateway.Node
}

func NewNodeHandler(nodes map[string]gateway.Node) *NodeHandler {
	return &NodeHandler{nodes: nodes}
}

func (h *NodeHandler) node(w http.ResponseWriter, r *http.Request) (gateway.Node, bool) {
	name := chi.URLParam(r, "node")
	node, ok := h.nodes[name]
	if !ok {
		RespondError(w, r, http.StatusNotFound, "nodes/unknown", "unknown node: "+name)
		return nil, false
	}
	return node, true
}

// GetInfo returns the node's identity summary.
func (h *NodeHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	node, ok := h.node(w, r)
	if !ok {
		return
	}
	info, err := node.GetInfo(r.Context())
	if err != nil {
		RespondError(w, r, http.StatusBadGateway, "nodes/unavailable", err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, info)
}

type createInvoiceRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	ExpirySeconds int             `json:"expiry_seconds"`
}

// CreateInvoice issues a plain invoice on the node.
func (h *NodeHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	node, ok := h.node(w, r)
	if !ok {
		return
	}

	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		RespondError(w, r, http.StatusBadRequest, "invoices/invalid-amount", "amount must be positive")
		return
	}

	invoice, err := node.CreateInvoice(r.Context(), gateway.CreateInvoiceRequest{
		Amount:        req.Amount,
		Description:   req.Description,
		ExpirySeconds: req.ExpirySeconds,
	})
	if err != nil {
		RespondError(w, r, http.StatusBadGateway, "invoices/create-failed", err.Error())
		return
	}
	RespondJSON(w, http.StatusCreated, invoice)
}
