package web

import (
	"net/http"

	"cantina-ledger/internal/app"
)

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, clients)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	client, err := h.svc.CreateClient(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeCreated(w, client)
}

func (h *Handler) clientDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.GetClientDetail(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, detail)
}

// listDebtors returns every client with an open tab, biggest first, for the
// payments screen.
func (h *Handler) listDebtors(w http.ResponseWriter, r *http.Request) {
	debtors, err := h.svc.ListDebtors(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, debtors)
}

func (h *Handler) addManualDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req app.ManualDebtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ClientID = id
	debt, err := h.svc.AddManualDebt(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, debt)
}

func (h *Handler) settleDebts(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.SettleClientDebts(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}
