package api

import (
	"net/http"

	"pharmatrack/m/domain"
	"pharmatrack/m/internal/store"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req store.NewOrder
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := h.store.CreateOrder(r.Context(), req)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

type orderDetail struct {
	domain.Order
	Items []domain.OrderItem `json:"items"`
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	items, err := h.store.OrderItems(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orderDetail{Order: order, Items: items})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.store.ListOrders(r.Context(), status)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

type orderItemRequest struct {
	MedicineID int64 `json:"medicine_id"`
	Quantity   int64 `json:"quantity"`
}

func (h *Handler) addOrderItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req orderItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.store.AddOrderItem(r.Context(), id, req.MedicineID, req.Quantity)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// updateOrderStatus routes through the inventory service so the transition
// into delivered credits stock exactly once.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var payload struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := h.inv.UpdateOrderStatus(r.Context(), id, payload.Status)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
