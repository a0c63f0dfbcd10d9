package web

import (
	"net/http"

	"cantina-ledger/internal/app"
)

func (h *Handler) recordCashSale(w http.ResponseWriter, r *http.Request) {
	var req app.CashSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		writeError(w, r, "quantity must be positive", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	sale, err := h.svc.RecordCashSale(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, sale)
}

func (h *Handler) recordCreditSale(w http.ResponseWriter, r *http.Request) {
	var req app.CreditSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		writeError(w, r, "quantity must be positive", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if req.ClientID == nil && req.ClientName == "" {
		writeError(w, r, "client_id or client_name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.RecordCreditSale(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, result)
}
