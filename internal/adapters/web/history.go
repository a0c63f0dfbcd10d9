package web

import (
	"fmt"
	"net/http"
	"time"

	"cantina-ledger/internal/core"
)

// parseHistoryParams reads from/to (YYYY-MM-DD) and the optional type
// filter from the query string. The range is inclusive: from starts at
// midnight, to ends at the last instant of its day.
func parseHistoryParams(r *http.Request) (from, to time.Time, filter *core.HistoryType, err error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		return from, to, nil, fmt.Errorf("from and to query parameters are required")
	}
	from, err = time.Parse("2006-01-02", fromStr)
	if err != nil {
		return from, to, nil, fmt.Errorf("invalid from date: %w", err)
	}
	to, err = time.Parse("2006-01-02", toStr)
	if err != nil {
		return from, to, nil, fmt.Errorf("invalid to date: %w", err)
	}
	to = to.AddDate(0, 0, 1).Add(-time.Millisecond)

	if t := r.URL.Query().Get("type"); t != "" {
		ht := core.HistoryType(t)
		switch ht {
		case core.HistorySale, core.HistoryDebt, core.HistoryReservation:
			filter = &ht
		default:
			return from, to, nil, fmt.Errorf("invalid type filter %q", t)
		}
	}
	return from, to, filter, nil
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	from, to, filter, err := parseHistoryParams(r)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	report, err := h.svc.GetHistory(r.Context(), from, to, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (h *Handler) historyPDF(w http.ResponseWriter, r *http.Request) {
	from, to, filter, err := parseHistoryParams(r)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	data, err := h.svc.ExportHistoryPDF(r.Context(), from, to, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	filename := fmt.Sprintf("historico_%s_%s.pdf", from.Format("2006-01-02"), to.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	_, _ = w.Write(data)
}
