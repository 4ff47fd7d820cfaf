package api

import (
	"net/http"
	"strconv"

	"pharmatrack/m/domain"
	"pharmatrack/m/internal/notify"
	"pharmatrack/m/internal/store"
)

func (h *Handler) createPrescription(w http.ResponseWriter, r *http.Request) {
	var req store.NewPrescription
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	prescription, err := h.store.CreatePrescription(r.Context(), req)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	h.events.Emit(notify.Event{Kind: notify.KindNewPrescription, PrescriptionID: prescription.ID})
	respondJSON(w, http.StatusCreated, prescription)
}

type prescriptionDetail struct {
	domain.Prescription
	Items []domain.PrescriptionItem `json:"items"`
}

func (h *Handler) getPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}
	prescription, err := h.store.GetPrescription(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	items, err := h.store.PrescriptionItems(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prescriptionDetail{Prescription: prescription, Items: items})
}

func (h *Handler) listPrescriptions(w http.ResponseWriter, r *http.Request) {
	patientID, _ := strconv.ParseInt(r.URL.Query().Get("patient_id"), 10, 64)
	prescriptions, err := h.store.ListPrescriptions(r.Context(), patientID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prescriptions)
}

func (h *Handler) deletePrescription(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}
	if err := h.store.DeletePrescription(r.Context(), id); err != nil {
		h.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addPrescriptionItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid prescription id")
		return
	}
	var req store.NewPrescriptionItem
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.store.AddPrescriptionItem(r.Context(), id, req)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}
