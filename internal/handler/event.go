package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/server/middleware"
	"github.com/mandatohub/mandato/internal/store"
)

// EventHandler serves the office agenda.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(st *store.Store) *EventHandler {
	return &EventHandler{store: st}
}

// List returns all agenda entries in chronological order.
// GET /api/v1/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao listar eventos")
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Data: events,
		Meta: &model.ResponseMeta{Count: len(events)},
	})
}

// Create schedules an event.
// POST /api/v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var e model.Event
	if err := readJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if e.Title == "" {
		writeError(w, http.StatusBadRequest, "Título é obrigatório")
		return
	}
	if e.StartsAt.IsZero() {
		writeError(w, http.StatusBadRequest, "Data de início é obrigatória")
		return
	}
	if !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt) {
		writeError(w, http.StatusBadRequest, "Data de término anterior ao início")
		return
	}

	if user := middleware.GetUser(r.Context()); user != nil {
		e.CreatedBy = user.ID
	}

	if err := h.store.CreateEvent(r.Context(), &e); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao criar evento")
		return
	}

	writeJSON(w, http.StatusCreated, e)
}

// Get returns one event.
// GET /api/v1/events/{eventId}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "eventId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de evento inválido")
		return
	}

	e, err := h.store.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Evento não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao buscar evento")
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// Update replaces an event's mutable fields.
// PUT /api/v1/events/{eventId}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "eventId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de evento inválido")
		return
	}

	existing, err := h.store.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Evento não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao buscar evento")
		return
	}

	var updates model.Event
	if err := readJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if updates.Title != "" {
		existing.Title = updates.Title
	}
	if !updates.StartsAt.IsZero() {
		existing.StartsAt = updates.StartsAt
	}
	if !updates.EndsAt.IsZero() {
		if updates.EndsAt.Before(existing.StartsAt) {
			writeError(w, http.StatusBadRequest, "Data de término anterior ao início")
			return
		}
		existing.EndsAt = updates.EndsAt
	}
	existing.Location = updates.Location
	existing.Notes = updates.Notes

	if err := h.store.UpdateEvent(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar evento")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// Delete removes an event.
// DELETE /api/v1/events/{eventId}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "eventId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de evento inválido")
		return
	}

	if err := h.store.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Evento não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao remover evento")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
