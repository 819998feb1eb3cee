package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mandatohub/mandato/internal/model"
	"github.com/mandatohub/mandato/internal/server/middleware"
	"github.com/mandatohub/mandato/internal/store"
)

// ContactHandler serves the voter/supporter base.
type ContactHandler struct {
	store *store.Store
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(st *store.Store) *ContactHandler {
	return &ContactHandler{store: st}
}

// List returns a page of contacts.
// GET /api/v1/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", 50), 1, 500)
	offset := queryInt(r, "offset", 0)

	contacts, err := h.store.ListContacts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao listar contatos")
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Data: contacts,
		Meta: &model.ResponseMeta{Count: len(contacts), Limit: limit, Offset: offset},
	})
}

// Create adds a contact to the base.
// POST /api/v1/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c model.Contact
	if err := readJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if c.Name == "" {
		writeError(w, http.StatusBadRequest, "Nome é obrigatório")
		return
	}

	if user := middleware.GetUser(r.Context()); user != nil {
		c.CreatedBy = user.ID
	}

	if err := h.store.CreateContact(r.Context(), &c); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao criar contato")
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// Get returns one contact.
// GET /api/v1/contacts/{contactId}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "contactId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de contato inválido")
		return
	}

	c, err := h.store.GetContact(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contato não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao buscar contato")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Update replaces a contact's mutable fields.
// PUT /api/v1/contacts/{contactId}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "contactId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de contato inválido")
		return
	}

	existing, err := h.store.GetContact(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contato não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao buscar contato")
		return
	}

	var updates model.Contact
	if err := readJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if updates.Name != "" {
		existing.Name = updates.Name
	}
	existing.Email = updates.Email
	existing.Phone = updates.Phone
	existing.Neighborhood = updates.Neighborhood
	existing.City = updates.City
	existing.Tags = updates.Tags
	existing.Notes = updates.Notes

	if err := h.store.UpdateContact(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao atualizar contato")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// Delete removes a contact.
// DELETE /api/v1/contacts/{contactId}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "contactId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de contato inválido")
		return
	}

	if err := h.store.DeleteContact(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contato não encontrado")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro ao remover contato")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
