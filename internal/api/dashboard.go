package api

import (
	"net/http"
	"strconv"
)

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("expiry_days"))
	if days <= 0 {
		days = 30
	}
	stats, err := h.store.Dashboard(r.Context(), days)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
