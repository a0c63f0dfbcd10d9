package web

import (
	"net/http"

	"cantina-ledger/internal/app"
	"cantina-ledger/internal/core"
)

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.svc.ListUpcomingReservations(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, reservations)
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	var req app.ReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ClientName == "" || req.ProductName == "" {
		writeError(w, r, "client_name and product_name are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	reservation, err := h.svc.CreateReservation(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeCreated(w, reservation)
}

// resolveReservation handles POST /api/reservations/{id}/status with a body
// of {"status": "..."} naming one of the terminal states.
func (h *Handler) resolveReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status core.ReservationStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Terminal() {
		writeError(w, r, "status must be completed_paid, completed_debt, or missed", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	reservation, err := h.svc.ResolveReservation(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, reservation)
}
