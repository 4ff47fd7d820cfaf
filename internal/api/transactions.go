package api

import (
	"net/http"
	"strconv"

	"pharmatrack/m/domain"
	"pharmatrack/m/internal/inventory"
	"pharmatrack/m/internal/store"
)

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req store.NewTransaction
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txn, err := h.store.CreateTransaction(r.Context(), req)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, txn)
}

type transactionDetail struct {
	domain.Transaction
	Items []domain.TransactionItem `json:"items"`
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	txn, err := h.store.GetTransaction(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	items, err := h.store.TransactionItems(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transactionDetail{Transaction: txn, Items: items})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	patientID, _ := strconv.ParseInt(r.URL.Query().Get("patient_id"), 10, 64)
	transactions, err := h.store.ListTransactions(r.Context(), patientID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

// addTransactionItem is the sale entry point: it moves stock through the
// inventory service.
func (h *Handler) addTransactionItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	var req inventory.SaleItemInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.inv.AddTransactionItem(r.Context(), id, req)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) updateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	var payload struct {
		Status domain.TransactionStatus `json:"status"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txn, err := h.store.UpdateTransactionStatus(r.Context(), id, payload.Status)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}
