package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/server/middleware"
	"github.com/mandatohub/mandato/internal/store"
)

// DemandHandler serves constituent demands, including the kanban status
// transitions the board UI drives.
type DemandHandler struct {
	store *store.Store
}

// NewDemandHandler creates a DemandHandler.
func NewDemandHandler(st *store.Store) *DemandHandler {
	return &DemandHandler{store: st}
}

// List returns demands, optionally filtered to one kanban column via
// ?status=.
// GET /api/v1/demands
func (h *DemandHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidDemandStatus(status) {
		writeError(w, http.StatusBadRequest, "Status inválido: "+status)
		return
	}

	demands, err := h.store.ListDemands(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao listar demandas")
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Data: demands,
		Meta: &model.ResponseMeta{Count: len(demands)},
	})
}

// Create opens a new demand.
// POST /api/v1/demands
func (h *DemandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d model.Demand
	if err := readJSON(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if d.Title == "" {
		writeError(w, http.StatusBadRequest, "Título é obrigatório")
		return
	}
	if d.Status != "" && !model.ValidDemandStatus(d.Status) {
		writeError(w, http.StatusBadRequest, "Status inválido: "+d.Status)
		return
	}

	if user := middleware.GetUser(r.Context()); user != nil {
		d.CreatedBy = user.ID
	}

	if err := h.store.CreateDemand(r.Context(), &d); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao criar demanda")
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

// Get returns one demand.
// GET /api/v1/demands/{demandId}
func (h *DemandHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "demandId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de demanda inválido")
		return
	}

	d, err := h.store.GetDemand(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Demanda não encontrada")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao buscar demanda")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// Update replaces a demand's mutable fields.
// PUT /api/v1/demands/{demandId}
func (h *DemandHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "demandId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de demanda inválido")
		return
	}

	existing, err := h.store.GetDemand(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Demanda não encontrada")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao buscar demanda")
		return
	}

	var updates model.Demand
	if err := readJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if updates.Title != "" {
		existing.Title = updates.Title
	}
	if updates.Status != "" {
		if !model.ValidDemandStatus(updates.Status) {
			writeError(w, http.StatusBadRequest, "Status inválido: "+updates.Status)
			return
		}
		existing.Status = updates.Status
	}
	existing.Description = updates.Description
	existing.Priority = updates.Priority
	existing.ContactID = updates.ContactID
	existing.AssigneeID = updates.AssigneeID

	if err := h.store.UpdateDemand(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar demanda")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// UpdateStatus moves a demand to another kanban column. The board client
// applies the move optimistically and calls this endpoint; a rejection here
// makes it roll the card back.
// PATCH /api/v1/demands/{demandId}/status
func (h *DemandHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "demandId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de demanda inválido")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if !model.ValidDemandStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Status inválido: "+req.Status)
		return
	}

	if err := h.store.UpdateDemandStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Demanda não encontrada")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao mover demanda")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": req.Status})
}

// Delete removes a demand.
// DELETE /api/v1/demands/{demandId}
func (h *DemandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "demandId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de demanda inválido")
		return
	}

	if err := h.store.DeleteDemand(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Demanda não encontrada")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao remover demanda")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
